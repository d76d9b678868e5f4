package engine

import (
	"time"

	"github.com/MrSnakeDoc/disposable/internal/cache"
	"github.com/MrSnakeDoc/disposable/internal/checker"
	"github.com/MrSnakeDoc/disposable/internal/domain"
	"github.com/MrSnakeDoc/disposable/internal/logger"
	"github.com/MrSnakeDoc/disposable/internal/metrics"
)

// Builder assembles a Detector. Explicit checkers run first in the order
// added, then the bundled list, then pattern detection.
type Builder struct {
	checkers   []checker.Checker
	bundled    bool
	pattern    bool
	whitelist  []string
	store      cache.Store
	ttl        time.Duration
	normalizer *domain.Normalizer
	log        logger.Logger
	metrics    *metrics.Metrics
}

func NewBuilder() *Builder {
	return &Builder{}
}

func (b *Builder) WithChecker(c checker.Checker) *Builder {
	if c != nil {
		b.checkers = append(b.checkers, c)
	}
	return b
}

func (b *Builder) WithBundledDomains() *Builder {
	b.bundled = true
	return b
}

// WithDomains adds a checker over a custom list.
func (b *Builder) WithDomains(domains []string) *Builder {
	return b.WithChecker(checker.NewList(checker.ListName, domains))
}

func (b *Builder) WithPatternDetection() *Builder {
	b.pattern = true
	return b
}

func (b *Builder) WithWhitelist(domains []string) *Builder {
	b.whitelist = append(b.whitelist, domains...)
	return b
}

// WithCache enables verdict caching. ttl of cache.Forever keeps entries.
func (b *Builder) WithCache(store cache.Store, ttl time.Duration) *Builder {
	b.store = store
	b.ttl = ttl
	return b
}

func (b *Builder) WithNormalizer(n *domain.Normalizer) *Builder {
	b.normalizer = n
	return b
}

func (b *Builder) WithLogger(l logger.Logger) *Builder {
	b.log = l
	return b
}

func (b *Builder) WithMetrics(m *metrics.Metrics) *Builder {
	b.metrics = m
	return b
}

// Build validates the configuration and returns the Detector.
func (b *Builder) Build() (*Detector, error) {
	checkers := append([]checker.Checker(nil), b.checkers...)
	if b.bundled {
		checkers = append(checkers, checker.NewBundled())
	}
	if b.pattern {
		checkers = append(checkers, checker.NewPattern())
	}
	chain := checker.NewChain(checkers...)
	if chain.Len() == 0 {
		return nil, &domain.ConfigError{Field: "checker", Reason: "no checker configured"}
	}
	if b.store != nil && b.ttl < 0 {
		return nil, &domain.ConfigError{Field: "cache.ttl", Reason: "must be >= 0"}
	}

	n := b.normalizer
	if n == nil {
		n = domain.NewNormalizer()
	}
	wl, err := NewWhitelist(n, b.whitelist)
	if err != nil {
		return nil, err
	}
	log := b.log
	if log == nil {
		log = logger.NewNop()
	}

	return &Detector{
		normalizer: n,
		whitelist:  wl,
		chain:      chain,
		cache:      b.store,
		ttl:        b.ttl,
		log:        log,
		metrics:    b.metrics,
	}, nil
}
