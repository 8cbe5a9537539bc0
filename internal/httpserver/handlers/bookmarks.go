package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/linemark/internal/domain"
	"github.com/MrSnakeDoc/linemark/internal/httpserver/deps"
	"github.com/MrSnakeDoc/linemark/internal/logger"
)

type addRequest struct {
	Path  string `json:"path"`
	Line  int    `json:"line"` // zero-based
	Label string `json:"label,omitempty"`
}

type renameRequest struct {
	Label string `json:"label"`
}

type fixRequest struct {
	Line *int `json:"line,omitempty"` // absent => keep the current line
}

type moveRequest struct {
	Path string `json:"path"`
}

// ListBookmarks returns the bookmarks matching ?q=, ordered by location.
func ListBookmarks(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := strings.TrimSpace(r.URL.Query().Get("q"))
		writeJSON(w, http.StatusOK, d.Service.List(q))
	}
}

func AddBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req addRequest
		if err := decode(r, d, &req); err != nil {
			writeError(w, d, err)
			return
		}
		if strings.TrimSpace(req.Path) == "" {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "path is required"})
			return
		}
		if req.Line < 0 {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "line must be >= 0"})
			return
		}
		b := d.Service.Add(r.Context(), req.Path, req.Line, req.Label)
		writeJSON(w, http.StatusCreated, b)
	}
}

func ClearBookmarks(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n := d.Service.Len()
		d.Service.Clear()
		d.Logger.Info("bookmarks cleared", logger.Int("count", n))
		w.WriteHeader(http.StatusNoContent)
	}
}

func GetBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b, err := d.Service.Get(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, d, err)
			return
		}
		writeJSON(w, http.StatusOK, b)
	}
}

// RemoveBookmark answers 204 whether or not the bookmark existed.
func RemoveBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := d.Service.Remove(chi.URLParam(r, "id")); err != nil && !errors.Is(err, domain.ErrNotFound) {
			writeError(w, d, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func RenameBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req renameRequest
		if err := decode(r, d, &req); err != nil {
			writeError(w, d, err)
			return
		}
		b, err := d.Service.Rename(chi.URLParam(r, "id"), req.Label)
		if err != nil {
			writeError(w, d, err)
			return
		}
		writeJSON(w, http.StatusOK, b)
	}
}

func RecordAccess(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b, err := d.Service.RecordAccess(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, d, err)
			return
		}
		writeJSON(w, http.StatusOK, b)
	}
}

func FixPosition(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req fixRequest
		if err := decode(r, d, &req); err != nil {
			writeError(w, d, err)
			return
		}
		line := -1
		if req.Line != nil {
			line = *req.Line
		}
		b, err := d.Service.FixPosition(r.Context(), chi.URLParam(r, "id"), line)
		if err != nil {
			writeError(w, d, err)
			return
		}
		writeJSON(w, http.StatusOK, b)
	}
}

func MoveBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req moveRequest
		if err := decode(r, d, &req); err != nil {
			writeError(w, d, err)
			return
		}
		if strings.TrimSpace(req.Path) == "" {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "path is required"})
			return
		}
		b, err := d.Service.Move(r.Context(), chi.URLParam(r, "id"), req.Path)
		if err != nil {
			writeError(w, d, err)
			return
		}
		writeJSON(w, http.StatusOK, b)
	}
}
