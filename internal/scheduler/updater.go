package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/MrSnakeDoc/disposable/internal/cache"
	"github.com/MrSnakeDoc/disposable/internal/ingest"
	"github.com/MrSnakeDoc/disposable/internal/logger"
)

// UpdateRunner runs one update over the source registry.
type UpdateRunner interface {
	Update(ctx context.Context, opts ingest.UpdateOptions) (ingest.UpdateReport, error)
}

// CacheClearer drops cached verdicts after the domain table changed.
type CacheClearer interface {
	ClearCache(ctx context.Context) error
}

// Updater refreshes the domain table periodically and on manual trigger.
type Updater struct {
	runner        UpdateRunner
	clearer       CacheClearer
	opts          ingest.UpdateOptions
	logger        logger.Logger
	interval      time.Duration // 0 disables periodic runs
	onStart       bool
	stopCh        chan struct{}
	done          chan struct{}
	stopOnce      sync.Once
	manualTrigger chan struct{}

	mu   sync.Mutex
	last ingest.UpdateReport
	at   time.Time
}

// NewUpdater creates an updater. clearer may be nil. manualTrigger should be
// buffered so a trigger sent during a run is not lost.
func NewUpdater(
	runner UpdateRunner,
	clearer CacheClearer,
	opts ingest.UpdateOptions,
	log logger.Logger,
	interval time.Duration,
	onStart bool,
	manualTrigger chan struct{},
) *Updater {
	if manualTrigger == nil {
		manualTrigger = make(chan struct{}, 1)
	}
	return &Updater{
		runner:        runner,
		clearer:       clearer,
		opts:          opts,
		logger:        log,
		interval:      interval,
		onStart:       onStart,
		stopCh:        make(chan struct{}),
		done:          make(chan struct{}),
		manualTrigger: manualTrigger,
	}
}

// Start begins the update loop and returns immediately.
func (u *Updater) Start(ctx context.Context) {
	var tick <-chan time.Time
	var ticker *time.Ticker
	if u.interval > 0 {
		ticker = time.NewTicker(u.interval)
		tick = ticker.C
	}

	go func() {
		defer close(u.done)
		if ticker != nil {
			defer ticker.Stop()
		}
		if u.onStart {
			u.runLogged(ctx)
		}
		for {
			select {
			case <-tick:
				u.runLogged(ctx)
			case <-u.manualTrigger:
				u.logger.Info("manual update triggered")
				u.runLogged(ctx)
			case <-u.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop stops the loop and waits for a running update to return.
func (u *Updater) Stop() {
	u.stopOnce.Do(func() { close(u.stopCh) })
	<-u.done
}

// Trigger requests an update without blocking. It reports false when a
// request is already pending.
func (u *Updater) Trigger() bool {
	select {
	case u.manualTrigger <- struct{}{}:
		return true
	default:
		return false
	}
}

// Last returns the most recent report and when it finished.
func (u *Updater) Last() (ingest.UpdateReport, time.Time) {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.last, u.at
}

// Run performs one update and clears the verdict cache when at least one
// source imported successfully.
func (u *Updater) Run(ctx context.Context) (ingest.UpdateReport, error) {
	u.logger.Info("updating disposable domain sources")

	report, err := u.runner.Update(ctx, u.opts)

	u.mu.Lock()
	u.last, u.at = report, time.Now()
	u.mu.Unlock()

	if report.Succeeded() > 0 && u.clearer != nil {
		if cerr := u.clearer.ClearCache(ctx); cerr != nil {
			if errors.Is(cerr, cache.ErrClearUnsupported) {
				u.logger.Debug("cache store cannot be flushed, cached verdicts expire by ttl")
			} else {
				u.logger.Warn("failed to clear cache after update", logger.Error(cerr))
			}
		}
	}
	return report, err
}

func (u *Updater) runLogged(ctx context.Context) {
	report, err := u.Run(ctx)
	if err != nil {
		u.logger.Error("update failed", logger.Error(err))
		return
	}
	for _, s := range report.Sources {
		if !s.OK() {
			u.logger.Warn("source failed", logger.String("source", s.Source), logger.Error(s.Err))
		}
	}
}
