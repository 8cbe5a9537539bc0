package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/linemark/internal/httpserver/deps"
	"github.com/MrSnakeDoc/linemark/internal/httpserver/handlers"
)

func init() { Register("events", registerEvents) }

func registerEvents(r chi.Router, d deps.Deps) {
	r.Post("/events/rename", handlers.HandleRename(d))
	r.Post("/events/change", handlers.HandleChange(d))
	r.Post("/documents", handlers.OpenDocument(d))
	r.Delete("/documents", handlers.CloseDocument(d))
}
