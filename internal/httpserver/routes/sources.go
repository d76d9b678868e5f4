package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/disposable/internal/httpserver/deps"
	"github.com/MrSnakeDoc/disposable/internal/httpserver/handlers"
)

func init() {
	Register(Group{Name: "sources", Mount: func(r chi.Router, d deps.Deps) {
		r.Get("/sources", handlers.Sources(d))
	}})
}
