package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/MrSnakeDoc/linemark/internal/httpserver/deps"
	"github.com/MrSnakeDoc/linemark/internal/httpserver/handlers"
)

func init() { Register("data", registerData, noCache) }

// exports and secrets must never be served from a cache
func noCache(deps.Deps) func(http.Handler) http.Handler { return middleware.NoCache }

func registerData(r chi.Router, d deps.Deps) {
	r.Get("/export", handlers.Export(d))
	r.Post("/import", handlers.Import(d))
	r.Post("/flush", handlers.Flush(d))
	r.Post("/migrate", handlers.Migrate(d))

	r.Get("/encryption", handlers.Encryption(d))
	r.Post("/encryption/rotate", handlers.RotateKey(d))

	r.Get("/options", handlers.GetOptions(d))
	r.Patch("/options", handlers.PatchOptions(d))
	r.Post("/options/reload", handlers.ReloadOptions(d))
}
