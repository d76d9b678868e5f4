// Package ingest loads disposable domain lists from sources into the
// persisted domain table with chunked, idempotent upserts.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/MrSnakeDoc/disposable/internal/domain"
	"github.com/MrSnakeDoc/disposable/internal/logger"
	"github.com/MrSnakeDoc/disposable/internal/metrics"
	"github.com/MrSnakeDoc/disposable/internal/sources"
	"github.com/MrSnakeDoc/disposable/internal/utils"
)

// DefaultChunkSize is the number of domains written per upsert.
const DefaultChunkSize = 1000

// DomainTable is the write side of the persisted domain table.
type DomainTable interface {
	// UpsertDomains atomically inserts or updates one chunk and returns the
	// number of distinct domains written.
	UpsertDomains(ctx context.Context, source string, domains []string, now time.Time) (int, error)
	DeleteBySource(ctx context.Context, source string) (int64, error)
	Count(ctx context.Context) (int64, error)
}

// ImportOptions tune a single source import.
type ImportOptions struct {
	ChunkSize int  // <= 0 means DefaultChunkSize
	Clear     bool // delete the source's rows before importing
}

// UpdateOptions tune an update run.
type UpdateOptions struct {
	Source      string // empty means every registered source
	ChunkSize   int
	Concurrency int // sources imported in parallel, <= 1 means sequential
}

// SourceInfo describes a registered source for listings.
type SourceInfo struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Pipeline drives sources into the domain table.
type Pipeline struct {
	table      DomainTable
	registry   *sources.Registry
	normalizer *domain.Normalizer
	log        logger.Logger
	metrics    *metrics.Metrics
	now        func() time.Time
}

// NewPipeline wires a pipeline. normalizer and m may be nil.
func NewPipeline(table DomainTable, registry *sources.Registry, normalizer *domain.Normalizer, log logger.Logger, m *metrics.Metrics) *Pipeline {
	if normalizer == nil {
		normalizer = domain.NewNormalizer()
	}
	return &Pipeline{
		table:      table,
		registry:   registry,
		normalizer: normalizer,
		log:        log,
		metrics:    m,
		now:        time.Now,
	}
}

// ListSources returns every registered source sorted by name.
func (p *Pipeline) ListSources() []SourceInfo { return ListSources(p.registry) }

// ListSources describes the sources of a registry sorted by name.
func ListSources(registry *sources.Registry) []SourceInfo {
	all := registry.All()
	names := registry.List()
	out := make([]SourceInfo, 0, len(names))
	for _, name := range names {
		out = append(out, SourceInfo{Name: name, URL: all[name].URL()})
	}
	return out
}

// TotalRows returns the current row count of the domain table.
func (p *Pipeline) TotalRows(ctx context.Context) (int64, error) {
	n, err := p.table.Count(ctx)
	if err != nil {
		return 0, asPersistence("count domains", err)
	}
	return n, nil
}

// Import loads one named source. An unknown name returns a
// *domain.UnknownSourceError listing the registry. The report is filled in
// as far as the import got, also on failure.
func (p *Pipeline) Import(ctx context.Context, name string, opts ImportOptions) (SourceReport, error) {
	src, err := p.registry.Get(name)
	if err != nil {
		return SourceReport{Source: name, Err: err}, err
	}
	rep := p.importSource(ctx, src, opts)
	return rep, rep.Err
}

// Update imports one source (opts.Source) or every registered source. A
// failing source is recorded in its report and does not stop the others;
// only an unknown source filter or a failure to read the final row count is
// returned as an error.
func (p *Pipeline) Update(ctx context.Context, opts UpdateOptions) (UpdateReport, error) {
	var targets []sources.Source
	if opts.Source != "" {
		src, err := p.registry.Get(opts.Source)
		if err != nil {
			p.metrics.IncIngestFailure(opts.Source)
			return UpdateReport{Sources: []SourceReport{{Source: opts.Source, Err: err}}}, err
		}
		targets = []sources.Source{src}
	} else {
		all := p.registry.All()
		for _, name := range p.registry.List() {
			targets = append(targets, all[name])
		}
	}

	limit := opts.Concurrency
	if limit < 1 {
		limit = 1
	}

	reports := make([]SourceReport, len(targets))
	var g errgroup.Group
	g.SetLimit(limit)
	for i, src := range targets {
		g.Go(func() error {
			reports[i] = p.importSource(ctx, src, ImportOptions{ChunkSize: opts.ChunkSize})
			return nil
		})
	}
	_ = g.Wait()

	report := UpdateReport{Sources: reports}
	total, err := p.TotalRows(ctx)
	if err != nil {
		return report, err
	}
	report.TotalRows = total
	p.metrics.SetDomainRows(total)

	p.log.Info("update finished",
		logger.Int("succeeded", report.Succeeded()),
		logger.Int("failed", report.Failed()),
		logger.Int64("total_rows", total))
	return report, nil
}

func (p *Pipeline) importSource(ctx context.Context, src sources.Source, opts ImportOptions) SourceReport {
	start := time.Now()
	rep := SourceReport{Source: src.Name()}
	log := p.log.With(logger.String("source", src.Name()))

	err := p.run(ctx, src, opts, &rep)
	rep.Duration = time.Since(start)
	if err != nil {
		rep.Err = err
		p.metrics.IncIngestFailure(src.Name())
		log.Error("import failed",
			logger.Int("found", rep.Found),
			logger.Int("upserted", rep.Upserted),
			logger.Error(err))
		return rep
	}

	log.Info("import finished",
		logger.Int("found", rep.Found),
		logger.Int("upserted", rep.Upserted),
		logger.Int("skipped", rep.Skipped),
		logger.Duration("duration", rep.Duration))
	return rep
}

func (p *Pipeline) run(ctx context.Context, src sources.Source, opts ImportOptions, rep *SourceReport) error {
	size := opts.ChunkSize
	if size <= 0 {
		size = DefaultChunkSize
	}

	if opts.Clear {
		n, err := p.table.DeleteBySource(ctx, src.Name())
		if err != nil {
			return asPersistence("clear source", err)
		}
		rep.Cleared = n
	}

	stream, err := src.Fetch(ctx)
	if err != nil {
		return asFetch(src.Name(), err)
	}
	defer utils.Close(stream)

	// each run owns its buffer and dedupe set
	chunk := make([]string, 0, size)
	seen := make(map[string]struct{})
	flush := func() error {
		if len(chunk) == 0 {
			return nil
		}
		n, err := p.table.UpsertDomains(ctx, src.Name(), chunk, p.now())
		if err != nil {
			return asPersistence("upsert domains", err)
		}
		rep.Upserted += n
		p.metrics.AddIngested(src.Name(), n)
		chunk = chunk[:0]
		return nil
	}

	for stream.Next() {
		if err := ctx.Err(); err != nil {
			return err
		}
		d, ok := p.clean(stream.Domain())
		if !ok {
			rep.Skipped++
			continue
		}
		if _, dup := seen[d]; dup {
			continue
		}
		seen[d] = struct{}{}
		rep.Found++

		chunk = append(chunk, d)
		if len(chunk) >= size {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	if err := stream.Err(); err != nil {
		return asFetch(src.Name(), err)
	}
	return flush()
}

// clean lower-cases and trims a raw entry and checks it is a host name the
// normalizer accepts. The full host is kept, not only its registrable part.
func (p *Pipeline) clean(raw string) (string, bool) {
	d := strings.TrimSuffix(strings.ToLower(strings.TrimSpace(raw)), ".")
	if d == "" || strings.ContainsAny(d, "@ ") {
		return "", false
	}
	info, err := p.normalizer.Parse(d)
	if err != nil {
		return "", false
	}
	return info.Host(), true
}

func asPersistence(op string, err error) error {
	var pe *domain.PersistenceError
	if errors.As(err, &pe) {
		return err
	}
	return &domain.PersistenceError{Op: op, Err: err}
}

func asFetch(source string, err error) error {
	var fe *domain.SourceFetchError
	if errors.As(err, &fe) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("fetch source %s: %w", source, err)
	}
	return &domain.SourceFetchError{Source: source, Err: err}
}
