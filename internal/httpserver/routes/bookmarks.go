package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/linemark/internal/httpserver/deps"
	"github.com/MrSnakeDoc/linemark/internal/httpserver/handlers"
)

func init() { Register("bookmarks", registerBookmarks) }

func registerBookmarks(r chi.Router, d deps.Deps) {
	r.Route("/bookmarks", func(r chi.Router) {
		r.Get("/", handlers.ListBookmarks(d))
		r.Post("/", handlers.AddBookmark(d))
		r.Delete("/", handlers.ClearBookmarks(d))

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", handlers.GetBookmark(d))
			r.Delete("/", handlers.RemoveBookmark(d))
			r.Patch("/", handlers.RenameBookmark(d))
			r.Post("/access", handlers.RecordAccess(d))
			r.Post("/fix", handlers.FixPosition(d))
			r.Post("/move", handlers.MoveBookmark(d))
		})
	})
}
