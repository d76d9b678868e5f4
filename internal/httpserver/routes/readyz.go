package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/disposable/internal/httpserver/deps"
	"github.com/MrSnakeDoc/disposable/internal/httpserver/handlers"
)

func init() {
	Register(Group{Name: "probes", Mount: func(r chi.Router, d deps.Deps) {
		r.Get("/healthz", handlers.Healthz(d))
		r.Get("/readyz", handlers.Readyz(d))
	}})
}
