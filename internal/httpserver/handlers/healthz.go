package handlers

import (
	"net/http"
	"time"

	"github.com/MrSnakeDoc/disposable/internal/httpserver/deps"
)

type healthzResponse struct {
	Status        string   `json:"status"`
	UptimeSeconds float64  `json:"uptime_seconds"`
	Version       string   `json:"version,omitempty"`
	Commit        string   `json:"commit,omitempty"`
	BuildDate     string   `json:"build_date,omitempty"`
	GoVersion     string   `json:"go_version,omitempty"`
	Checkers      []string `json:"checkers,omitempty"`
	Cache         bool     `json:"cache"`

	LastUpdate *lastUpdate `json:"last_update,omitempty"`
}

type lastUpdate struct {
	At        time.Time `json:"at"`
	Succeeded int       `json:"succeeded"`
	Failed    int       `json:"failed"`
	TotalRows int64     `json:"total_rows"`
}

func Healthz(d deps.Deps) http.HandlerFunc {
	start := d.StartTime
	return func(w http.ResponseWriter, r *http.Request) {
		resp := healthzResponse{
			Status:        "ok",
			Version:       d.Version,
			Commit:        d.Commit,
			BuildDate:     d.BuildDate,
			GoVersion:     d.GoVersion,
			UptimeSeconds: time.Since(start).Seconds(),
		}
		if d.Detector != nil {
			resp.Checkers = d.Detector.Checkers()
			resp.Cache = d.Detector.CacheEnabled()
		}
		if d.LastUpdate != nil {
			if rep, at := d.LastUpdate(); !at.IsZero() {
				resp.LastUpdate = &lastUpdate{
					At:        at,
					Succeeded: rep.Succeeded(),
					Failed:    rep.Failed(),
					TotalRows: rep.TotalRows,
				}
			}
		}
		writeJSON(w, d.Logger, http.StatusOK, resp)
	}
}
