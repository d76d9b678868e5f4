package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/MrSnakeDoc/disposable/internal/logger"
)

type errorResponse struct {
	Error string `json:"error"`
	Input string `json:"input,omitempty"`
}

func writeJSON(w http.ResponseWriter, log logger.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Debug("failed to write response", logger.Error(err))
	}
}
