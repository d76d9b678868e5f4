// Package routes holds the HTTP route table. Each file registers one group
// from init; server.New mounts them all.
package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/disposable/internal/httpserver/deps"
)

type Middleware = func(http.Handler) http.Handler

// Group is a set of routes sharing middlewares. Use may be nil.
type Group struct {
	Name  string
	Use   func(d deps.Deps) []Middleware
	Mount func(r chi.Router, d deps.Deps)
}

var groups []Group

func Register(g Group) {
	groups = append(groups, g)
}

// Names lists the registered groups in registration order.
func Names() []string {
	out := make([]string, len(groups))
	for i, g := range groups {
		out[i] = g.Name
	}
	return out
}

// RegisterAll mounts every group on its own inline router so middlewares do
// not leak between groups.
func RegisterAll(r chi.Router, d deps.Deps) {
	for _, g := range groups {
		r.Group(func(sub chi.Router) {
			if g.Use != nil {
				sub.Use(g.Use(d)...)
			}
			g.Mount(sub, d)
		})
	}
}
