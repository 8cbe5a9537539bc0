package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/linemark/internal/domain"
	"github.com/MrSnakeDoc/linemark/internal/httpserver/deps"
	"github.com/MrSnakeDoc/linemark/internal/service"
)

func Groups(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, d.Service.Groups(strings.TrimSpace(r.URL.Query().Get("q"))))
	}
}

func Tree(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, d.Service.Tree(strings.TrimSpace(r.URL.Query().Get("q"))))
	}
}

func Graph(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, d.Service.Graph())
	}
}

// Navigate answers the bookmark next to ?path=&line= (zero-based), or
// 204 when nothing is navigable.
func Navigate(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dir, err := service.ParseDirection(chi.URLParam(r, "direction"))
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
		cursor := domain.Location{Path: r.URL.Query().Get("path")}
		if raw := r.URL.Query().Get("line"); raw != "" {
			line, err := strconv.Atoi(raw)
			if err != nil {
				writeJSON(w, http.StatusBadRequest, errorResponse{Error: "line must be an integer"})
				return
			}
			cursor.Line = line
		}

		b, ok := d.Service.Navigate(dir, cursor)
		if !ok {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		writeJSON(w, http.StatusOK, b)
	}
}

func Check(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, d.Service.Check(r.Context()))
	}
}
