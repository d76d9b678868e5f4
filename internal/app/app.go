package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	goredis "github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/disposable/internal/cache"
	"github.com/MrSnakeDoc/disposable/internal/checker"
	"github.com/MrSnakeDoc/disposable/internal/config"
	"github.com/MrSnakeDoc/disposable/internal/domain"
	"github.com/MrSnakeDoc/disposable/internal/engine"
	"github.com/MrSnakeDoc/disposable/internal/httpserver"
	"github.com/MrSnakeDoc/disposable/internal/httpserver/deps"
	"github.com/MrSnakeDoc/disposable/internal/index"
	"github.com/MrSnakeDoc/disposable/internal/ingest"
	"github.com/MrSnakeDoc/disposable/internal/logger"
	"github.com/MrSnakeDoc/disposable/internal/metrics"
	"github.com/MrSnakeDoc/disposable/internal/redis"
	"github.com/MrSnakeDoc/disposable/internal/scheduler"
	"github.com/MrSnakeDoc/disposable/internal/sources"
	redisstore "github.com/MrSnakeDoc/disposable/internal/store/redis"
	"github.com/MrSnakeDoc/disposable/internal/store/sqldb"
	"github.com/MrSnakeDoc/disposable/internal/utils"
	"github.com/MrSnakeDoc/disposable/internal/version"
)

// domainTable is what the app needs from a persisted domain table.
type domainTable interface {
	ingest.DomainTable
	checker.DomainReader
	Ping(ctx context.Context) error
}

type App struct {
	cfg         *config.Config
	logger      logger.Logger
	promReg     *prometheus.Registry
	metrics     *metrics.Metrics
	detector    *engine.Detector
	registry    *sources.Registry
	pipeline    *ingest.Pipeline // nil without a domain table
	table       domainTable      // nil without a domain table
	sqlStore    *sqldb.DomainStore
	redisClient *goredis.Client
	probes      []deps.Probe
}

// New wires stores, detector and ingestion from cfg. It fails fast on any
// unreachable required dependency.
func New(ctx context.Context, cfg *config.Config, loggerClient logger.Logger) (*App, error) {
	a := &App{
		cfg:     cfg,
		logger:  loggerClient,
		promReg: prometheus.NewRegistry(),
	}
	a.promReg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	a.metrics = metrics.New(a.promReg)

	if err := a.openTable(ctx); err != nil {
		a.Close()
		return nil, err
	}

	store, err := a.openCache(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	engineDeps := engine.Deps{Cache: store, Logger: loggerClient, Metrics: a.metrics}
	if a.table != nil {
		engineDeps.Table = a.table
	}
	a.detector, err = engine.FromConfig(cfg, engineDeps)
	if err != nil {
		a.Close()
		return nil, err
	}

	client := &http.Client{Timeout: cfg.Ingest.FetchTimeout}
	a.registry, err = sources.LoadRegistry(cfg.Ingest.SourcesFile, client)
	if err != nil {
		a.Close()
		return nil, &domain.ConfigError{Field: "ingest.sources_file", Reason: err.Error()}
	}
	if a.table != nil {
		a.pipeline = ingest.NewPipeline(a.table, a.registry,
			domain.NewNormalizer(cfg.ExtraMultiLabelTLDs...), loggerClient, a.metrics)
	}

	loggerClient.Info("detector ready",
		logger.Strings("checkers", a.detector.Checkers()),
		logger.Bool("cache", a.detector.CacheEnabled()),
		logger.Int("whitelist", len(a.detector.Whitelist())))
	return a, nil
}

func (a *App) openTable(ctx context.Context) error {
	db := a.cfg.Database
	switch {
	case db.Driver == config.DriverMemory:
		a.logger.Info("using in-memory domain table")
		t := index.NewMemoryTable()
		a.table = t
	case db.Connection != "":
		s, err := sqldb.Open(db.Driver, db.Connection, db.Table)
		if err != nil {
			return err
		}
		a.sqlStore, a.table = s, s
		if db.AutoMigrate {
			if err := s.Migrate(ctx); err != nil {
				return err
			}
		}
		a.logger.Info("domain table opened",
			logger.String("driver", db.Driver),
			logger.String("table", s.Table()))
	default:
		return nil
	}
	a.probes = append(a.probes, deps.Probe{Name: "table", Ping: a.table.Ping})
	return nil
}

func (a *App) openCache(ctx context.Context) (cache.Store, error) {
	c := a.cfg.Cache
	if !c.Enabled {
		return nil, nil
	}
	switch c.Store {
	case config.StoreRedis:
		r := a.cfg.Redis
		a.logger.Infof("Connecting to Redis at %s", r.Addr)
		client, err := redis.Connect(ctx, redis.Options{
			Addr:           r.Addr,
			User:           r.User,
			Password:       r.Password,
			DB:             r.DB,
			DialTimeout:    r.DialTimeout,
			ReadTimeout:    r.ReadTimeout,
			WriteTimeout:   r.WriteTimeout,
			PoolSize:       r.PoolSize,
			ConnectTimeout: r.ConnectTimeout,
			RetryInterval:  r.RetryInterval,
			MaxWait:        r.MaxWait,
			PingTimeout:    r.PingTimeout,
			WarnThreshold:  r.WarnThreshold,
		}, a.logger)
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		a.redisClient = client
		s := redisstore.NewCacheStore(client, c.Prefix)
		a.probes = append(a.probes, deps.Probe{Name: "redis", Ping: s.Ping})
		return s, nil
	default:
		s, err := cache.NewMemoryStore(c.Size)
		if err != nil {
			return nil, &domain.ConfigError{Field: "cache.size", Reason: err.Error()}
		}
		return cache.Prefixed(s, c.Prefix), nil
	}
}

func (a *App) Detector() *engine.Detector { return a.detector }

// Pipeline returns the ingestion pipeline, or a configuration error when no
// domain table is configured.
func (a *App) Pipeline() (*ingest.Pipeline, error) {
	if a.pipeline == nil {
		return nil, &domain.ConfigError{Field: "database.connection", Reason: "ingestion requires a domain table"}
	}
	return a.pipeline, nil
}

// Sources lists the registered domain sources.
func (a *App) Sources() []ingest.SourceInfo { return ingest.ListSources(a.registry) }

// Migrate creates the domain table.
func (a *App) Migrate(ctx context.Context) error {
	if a.sqlStore != nil {
		if err := a.sqlStore.Migrate(ctx); err != nil {
			return err
		}
		a.logger.Info("domain table migrated", logger.String("table", a.sqlStore.Table()))
		return nil
	}
	if a.table != nil {
		a.logger.Info("in-memory domain table needs no migration")
		return nil
	}
	return &domain.ConfigError{Field: "database.connection", Reason: "migrate requires a database connection"}
}

// Serve runs the HTTP API and the update scheduler until ctx is done or a
// termination signal arrives.
func (a *App) Serve(ctx context.Context) error {
	a.logger.Infof("🚀 Starting disposable %s on %s", version.Version, a.cfg.ListenAddr)
	a.logger.Infof("disposable %s (commit=%s, built=%s, go=%s)",
		version.Version, version.Commit, version.BuildDate, version.GoVersion)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	d := deps.Deps{
		Logger:        a.logger,
		StartTime:     time.Now(),
		Version:       version.Version,
		Commit:        version.Commit,
		BuildDate:     version.BuildDate,
		GoVersion:     version.GoVersion,
		AllowedCIDRS:  a.cfg.HTTP.AllowedCIDRS,
		AllowedHosts:  a.cfg.HTTP.AllowedHosts,
		TrustProxy:    a.cfg.HTTP.TrustProxy,
		RateBurst:     a.cfg.HTTP.RateBurst,
		RatePerMinute: a.cfg.HTTP.RatePerMinute,
		MaxBatch:      a.cfg.HTTP.MaxBatch,
		Detector:      a.detector,
		Sources:       a.Sources,
		Probes:        a.probes,
		Gatherer:      a.promReg,
		Metrics:       a.metrics,
	}

	var updater *scheduler.Updater
	if a.pipeline != nil {
		trigger := make(chan struct{}, 1)
		d.UpdateTrigger = trigger
		updater = scheduler.NewUpdater(a.pipeline, a.detector, ingest.UpdateOptions{
			ChunkSize:   a.cfg.Ingest.ChunkSize,
			Concurrency: a.cfg.Ingest.Concurrency,
		}, a.logger, a.cfg.Ingest.Interval, a.cfg.Ingest.OnStart, trigger)
		d.LastUpdate = updater.Last
		updater.Start(ctx)
		a.logger.Info("update scheduler started",
			logger.Duration("interval", a.cfg.Ingest.Interval),
			logger.Bool("on_start", a.cfg.Ingest.OnStart))
	}

	server := httpserver.New(a.cfg, a.logger, d)
	errCh := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case runErr = <-errCh:
	}

	if updater != nil {
		updater.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Stop(shutdownCtx); err != nil && runErr == nil {
		runErr = fmt.Errorf("failed to stop server: %w", err)
	}
	if runErr == nil {
		a.logger.Info("✅ disposable stopped cleanly")
	}
	return runErr
}

// Close releases the stores. Safe to call on a partially built App.
func (a *App) Close() {
	if a.sqlStore != nil {
		utils.CloseLogged(a.sqlStore, "domain table", a.logger)
	}
	if a.redisClient != nil {
		utils.CloseLogged(a.redisClient, "redis", a.logger)
	}
	_ = a.logger.Sync()
}
