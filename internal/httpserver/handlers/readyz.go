package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/disposable/internal/httpserver/deps"
	"github.com/MrSnakeDoc/disposable/internal/logger"
)

const probeTimeout = 2 * time.Second

type componentStatus struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

type readyzResponse struct {
	Ready      bool                       `json:"ready"`
	Components map[string]componentStatus `json:"components,omitempty"`
}

// Readyz pings every probe; any failure answers 503.
func Readyz(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := readyzResponse{Ready: true, Components: make(map[string]componentStatus, len(d.Probes))}

		for _, p := range d.Probes {
			ctx, cancel := context.WithTimeout(r.Context(), probeTimeout)
			err := p.Ping(ctx)
			cancel()
			if err != nil {
				resp.Ready = false
				resp.Components[p.Name] = componentStatus{OK: false, Error: err.Error()}
				d.Logger.Warn("readiness probe failed", logger.String("component", p.Name), logger.Error(err))
				continue
			}
			resp.Components[p.Name] = componentStatus{OK: true}
		}

		status := http.StatusOK
		if !resp.Ready {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, d.Logger, status, resp)
	}
}
