package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/disposable/internal/httpserver/deps"
	"github.com/MrSnakeDoc/disposable/internal/ingest"
)

type sourcesResponse struct {
	Sources []ingest.SourceInfo `json:"sources"`
}

func Sources(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list := []ingest.SourceInfo{}
		if d.Sources != nil {
			list = d.Sources()
		}
		writeJSON(w, d.Logger, http.StatusOK, sourcesResponse{Sources: list})
	}
}
