package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/linemark/internal/httpserver/deps"
	"github.com/MrSnakeDoc/linemark/internal/logger"
)

type readyzResponse struct {
	Ready bool   `json:"ready"`
	Key   string `json:"key"`
	Error string `json:"error,omitempty"`
}

// Readyz reports whether the blob store answers.
func Readyz(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := d.Service.Ready(ctx); err != nil {
			d.Logger.Warn("blob store not ready", logger.Error(err))
			writeJSON(w, http.StatusServiceUnavailable, readyzResponse{
				Key:   d.Service.Key(),
				Error: err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, readyzResponse{Ready: true, Key: d.Service.Key()})
	}
}
