package engine

import (
	"fmt"

	"github.com/MrSnakeDoc/disposable/internal/cache"
	"github.com/MrSnakeDoc/disposable/internal/checker"
	"github.com/MrSnakeDoc/disposable/internal/config"
	"github.com/MrSnakeDoc/disposable/internal/domain"
	"github.com/MrSnakeDoc/disposable/internal/logger"
	"github.com/MrSnakeDoc/disposable/internal/metrics"
)

// Deps are the runtime collaborators FromConfig cannot build itself.
type Deps struct {
	Table   checker.DomainReader // required by the database checker
	Cache   cache.Store          // used when cache.enabled
	Logger  logger.Logger
	Metrics *metrics.Metrics
}

// FromConfig builds a Detector from configuration.
func FromConfig(cfg *config.Config, deps Deps) (*Detector, error) {
	b := NewBuilder().
		WithNormalizer(domain.NewNormalizer(cfg.ExtraMultiLabelTLDs...)).
		WithWhitelist(cfg.Whitelist).
		WithLogger(deps.Logger).
		WithMetrics(deps.Metrics)

	switch cfg.Checker {
	case config.CheckerFile:
		if !cfg.UseBundledList {
			return nil, &domain.ConfigError{Field: "checker", Reason: "checker 'file' requires use_bundled_list"}
		}
	case config.CheckerDatabase:
		if deps.Table == nil {
			return nil, &domain.ConfigError{Field: "database", Reason: "checker 'database' requires a domain table"}
		}
		b.WithChecker(checker.NewTable(deps.Table))
	case config.CheckerChain:
		switch {
		case cfg.Database.Table != "" && deps.Table != nil:
			b.WithChecker(checker.NewTable(deps.Table))
		case cfg.Database.Table != "":
			return nil, &domain.ConfigError{Field: "database", Reason: "checker 'chain' with database.table requires a domain table"}
		case !cfg.UseBundledList:
			return nil, &domain.ConfigError{Field: "checker", Reason: "checker 'chain' needs database.table or use_bundled_list"}
		}
	case config.CheckerPattern:
		b.WithPatternDetection()
	default:
		return nil, &domain.ConfigError{
			Field:  "checker",
			Reason: fmt.Sprintf("unknown checker %q (valid: file, database, pattern, chain)", cfg.Checker),
		}
	}

	if cfg.UseBundledList {
		b.WithBundledDomains()
	}
	if cfg.PatternDetection {
		b.WithPatternDetection()
	}
	if cfg.Cache.Enabled && deps.Cache != nil {
		b.WithCache(deps.Cache, cfg.Cache.TTLDuration())
	}
	return b.Build()
}
