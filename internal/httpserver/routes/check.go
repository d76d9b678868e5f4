package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/disposable/internal/httpserver/deps"
	"github.com/MrSnakeDoc/disposable/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/disposable/internal/httpserver/mw"
)

// Both check routes share one limiter.
func init() {
	Register(Group{
		Name: "check",
		Use: func(d deps.Deps) []Middleware {
			return []Middleware{mw.RateLimit(mw.RateLimitConfig{
				Burst:      d.RateBurst,
				PerMinute:  d.RatePerMinute,
				MaxClients: 100_000,
				TrustProxy: d.TrustProxy,
				OnReject:   func(*http.Request) { d.Metrics.IncRateLimited("check") },
			})}
		},
		Mount: func(r chi.Router, d deps.Deps) {
			r.Get("/check", handlers.Check(d))
			r.Post("/check/batch", handlers.CheckBatch(d))
		},
	})
}
