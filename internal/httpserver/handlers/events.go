package handlers

import (
	"net/http"
	"strings"

	"github.com/MrSnakeDoc/linemark/internal/httpserver/deps"
)

type renameEvent struct {
	OldPath string `json:"oldPath"`
	NewPath string `json:"newPath"`
}

type renameResult struct {
	Moved int `json:"moved"`
}

type changeEvent struct {
	Path string `json:"path"`
}

type openDocument struct {
	Path    string `json:"path"`
	Text    string `json:"text"`
	Version int64  `json:"version"`
}

func HandleRename(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var ev renameEvent
		if err := decode(r, d, &ev); err != nil {
			writeError(w, d, err)
			return
		}
		if strings.TrimSpace(ev.OldPath) == "" || strings.TrimSpace(ev.NewPath) == "" {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "oldPath and newPath are required"})
			return
		}
		writeJSON(w, http.StatusOK, renameResult{Moved: d.Service.HandleRename(r.Context(), ev.OldPath, ev.NewPath)})
	}
}

func HandleChange(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var ev changeEvent
		if err := decode(r, d, &ev); err != nil {
			writeError(w, d, err)
			return
		}
		if strings.TrimSpace(ev.Path) == "" {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "path is required"})
			return
		}
		writeJSON(w, http.StatusOK, d.Service.HandleChange(r.Context(), ev.Path))
	}
}

// OpenDocument pushes the live text of an editor buffer.
func OpenDocument(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var doc openDocument
		if err := decode(r, d, &doc); err != nil {
			writeError(w, d, err)
			return
		}
		if strings.TrimSpace(doc.Path) == "" {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "path is required"})
			return
		}
		writeJSON(w, http.StatusOK, d.Service.OpenDocument(r.Context(), doc.Path, doc.Text, doc.Version))
	}
}

func CloseDocument(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Query().Get("path")
		if strings.TrimSpace(path) == "" {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "path is required"})
			return
		}
		d.Service.CloseDocument(path)
		w.WriteHeader(http.StatusNoContent)
	}
}
