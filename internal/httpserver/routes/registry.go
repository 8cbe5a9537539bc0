package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/linemark/internal/httpserver/deps"
	"github.com/MrSnakeDoc/linemark/internal/logger"
)

type (
	// Registrar mounts one group of endpoints.
	Registrar func(r chi.Router, d deps.Deps)
	// Middleware is built per group once deps are known.
	Middleware func(d deps.Deps) func(http.Handler) http.Handler
)

type group struct {
	name string
	reg  Registrar
	mws  []Middleware
}

var registry []group

// Register adds a named group of endpoints. Called from init(); a
// duplicate name panics.
func Register(name string, reg Registrar, mws ...Middleware) {
	for _, g := range registry {
		if g.name == name {
			panic("routes: group registered twice: " + name)
		}
	}
	registry = append(registry, group{name: name, reg: reg, mws: mws})
}

// RegisterAll mounts every group on r.
func RegisterAll(r chi.Router, d deps.Deps) {
	names := make([]string, 0, len(registry))
	for _, g := range registry {
		sub := r
		if len(g.mws) > 0 {
			built := make([]func(http.Handler) http.Handler, 0, len(g.mws))
			for _, mw := range g.mws {
				built = append(built, mw(d))
			}
			sub = r.With(built...)
		}
		g.reg(sub, d)
		names = append(names, g.name)
	}
	if d.Logger != nil {
		d.Logger.Debug("api routes mounted", logger.Strings("groups", names))
	}
}
