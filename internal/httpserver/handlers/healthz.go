package handlers

import (
	"net/http"
	"time"

	"github.com/MrSnakeDoc/linemark/internal/httpserver/deps"
	"github.com/MrSnakeDoc/linemark/internal/version"
)

type healthzResponse struct {
	Status        string  `json:"status"`
	UptimeSeconds float64 `json:"uptime_seconds"`
	Bookmarks     int     `json:"bookmarks"`
	version.Info
}

func Healthz(d deps.Deps) http.HandlerFunc {
	start := d.StartTime
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, healthzResponse{
			Status:        "ok",
			Bookmarks:     d.Service.Len(),
			Info:          d.Build,
			UptimeSeconds: time.Since(start).Seconds(),
		})
	}
}
