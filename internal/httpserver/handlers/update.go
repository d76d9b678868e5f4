package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/disposable/internal/httpserver/deps"
	"github.com/MrSnakeDoc/disposable/internal/logger"
)

type updateResponse struct {
	Status string `json:"status"`
}

// Update triggers an update of every source without waiting for it.
func Update(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if d.UpdateTrigger == nil {
			writeJSON(w, d.Logger, http.StatusServiceUnavailable, errorResponse{Error: "updates are not configured"})
			return
		}

		select {
		case d.UpdateTrigger <- struct{}{}:
			d.Logger.Info("manual update triggered via endpoint",
				logger.String("remote_ip", r.RemoteAddr))
			writeJSON(w, d.Logger, http.StatusAccepted, updateResponse{Status: "update triggered"})
		default:
			d.Logger.Warn("update already pending",
				logger.String("remote_ip", r.RemoteAddr))
			writeJSON(w, d.Logger, http.StatusTooManyRequests, updateResponse{Status: "update already pending"})
		}
	}
}
