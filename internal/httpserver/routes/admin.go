package routes

import (
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MrSnakeDoc/disposable/internal/httpserver/deps"
	"github.com/MrSnakeDoc/disposable/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/disposable/internal/httpserver/mw"
)

func init() {
	Register(Group{
		Name: "admin",
		Use: func(d deps.Deps) []Middleware {
			return []Middleware{
				mw.AllowOnlyCIDRS(d.AllowedCIDRS, d.TrustProxy, d.Logger),
				mw.EnforceHost(d.AllowedHosts, d.Logger),
			}
		},
		Mount: func(r chi.Router, d deps.Deps) {
			r.Post("/update", handlers.Update(d))
			if d.Gatherer != nil {
				r.Handle("/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
			}
		},
	})
}
