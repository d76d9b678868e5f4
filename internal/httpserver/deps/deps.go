package deps

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/MrSnakeDoc/disposable/internal/engine"
	"github.com/MrSnakeDoc/disposable/internal/ingest"
	"github.com/MrSnakeDoc/disposable/internal/logger"
	"github.com/MrSnakeDoc/disposable/internal/metrics"
)

// Probe is one dependency checked by /readyz.
type Probe struct {
	Name string
	Ping func(ctx context.Context) error
}

type Deps struct {
	Logger        logger.Logger
	StartTime     time.Time
	Version       string
	Commit        string
	BuildDate     string
	GoVersion     string
	AllowedCIDRS  []string // IPs allowed on admin routes (/update, /metrics)
	AllowedHosts  []string // Host headers allowed on admin routes
	TrustProxy    bool     // true if running behind a trusted reverse proxy (e.g., cloudflared)
	RateBurst     int      // per-IP burst on check routes
	RatePerMinute int      // per-IP refill on check routes
	MaxBatch      int      // max inputs per batch request, 0 = unlimited

	Detector      *engine.Detector
	Sources       func() []ingest.SourceInfo // registered domain sources
	UpdateTrigger chan struct{}              // manual update trigger (nil if updates disabled)
	Probes        []Probe                    // readiness probes
	Gatherer      prometheus.Gatherer        // nil disables /metrics
	Metrics       *metrics.Metrics           // may be nil

	// LastUpdate reports the latest scheduled run, nil without a scheduler.
	LastUpdate func() (ingest.UpdateReport, time.Time)
}
