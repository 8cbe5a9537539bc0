package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/linemark/internal/httpserver/deps"
	"github.com/MrSnakeDoc/linemark/internal/httpserver/handlers"
)

func init() { Register("views", registerViews) }

func registerViews(r chi.Router, d deps.Deps) {
	r.Get("/groups", handlers.Groups(d))
	r.Get("/tree", handlers.Tree(d))
	r.Get("/graph", handlers.Graph(d))
	r.Get("/navigate/{direction}", handlers.Navigate(d))
	r.Post("/check", handlers.Check(d))
}
