// Package metrics exposes prometheus collectors for detection and ingestion.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Check outcomes.
const (
	OutcomeDisposable  = "disposable"
	OutcomeClean       = "clean"
	OutcomeWhitelisted = "whitelisted"
	OutcomeInvalid     = "invalid"
	OutcomeError       = "error"
)

// Cache lookup results.
const (
	CacheHit   = "hit"
	CacheMiss  = "miss"
	CacheError = "error"
)

type Metrics struct {
	ChecksTotal         *prometheus.CounterVec
	CacheLookupsTotal   *prometheus.CounterVec
	IngestDomainsTotal  *prometheus.CounterVec
	IngestFailuresTotal *prometheus.CounterVec
	DomainRows          prometheus.Gauge
	RateLimitedTotal    *prometheus.CounterVec
}

// New registers the collectors on reg. Pass prometheus.DefaultRegisterer to
// expose them on the default /metrics handler.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		ChecksTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "disposable_checks_total",
			Help: "Total number of detection evaluations by outcome",
		}, []string{"outcome"}),
		CacheLookupsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "disposable_cache_lookups_total",
			Help: "Total number of verdict cache lookups by result",
		}, []string{"result"}),
		IngestDomainsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "disposable_ingest_domains_total",
			Help: "Total number of domains upserted by source",
		}, []string{"source"}),
		IngestFailuresTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "disposable_ingest_source_failures_total",
			Help: "Total number of failed source imports",
		}, []string{"source"}),
		DomainRows: f.NewGauge(prometheus.GaugeOpts{
			Name: "disposable_domains_rows",
			Help: "Rows in the persisted domain table after the last ingestion run",
		}),
		RateLimitedTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "disposable_http_rate_limited_total",
			Help: "Total number of requests rejected by the per-client rate limit",
		}, []string{"group"}),
	}
}

func (m *Metrics) ObserveCheck(outcome string) {
	if m == nil {
		return
	}
	m.ChecksTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveCacheLookup(result string) {
	if m == nil {
		return
	}
	m.CacheLookupsTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) AddIngested(source string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.IngestDomainsTotal.WithLabelValues(source).Add(float64(n))
}

func (m *Metrics) IncIngestFailure(source string) {
	if m == nil {
		return
	}
	m.IngestFailuresTotal.WithLabelValues(source).Inc()
}

func (m *Metrics) SetDomainRows(n int64) {
	if m == nil {
		return
	}
	m.DomainRows.Set(float64(n))
}

func (m *Metrics) IncRateLimited(group string) {
	if m == nil {
		return
	}
	m.RateLimitedTotal.WithLabelValues(group).Inc()
}
