// Package engine combines normalization, whitelist, cache and the checker
// chain into the disposable email decision.
package engine

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/MrSnakeDoc/disposable/internal/cache"
	"github.com/MrSnakeDoc/disposable/internal/checker"
	"github.com/MrSnakeDoc/disposable/internal/domain"
	"github.com/MrSnakeDoc/disposable/internal/logger"
	"github.com/MrSnakeDoc/disposable/internal/metrics"
)

// Detector answers whether an email address or domain belongs to a
// disposable provider. It is immutable after Build and safe for concurrent
// use; the only shared state lives in the injected cache store.
type Detector struct {
	normalizer *domain.Normalizer
	whitelist  *Whitelist
	chain      *checker.Chain
	cache      cache.Store // nil when caching is disabled
	ttl        time.Duration
	log        logger.Logger
	metrics    *metrics.Metrics
}

// Check evaluates an email address or bare domain. Unparseable input returns
// the safe result with an error wrapping domain.ErrInvalidFormat; a checker
// failure returns the safe result with its error.
func (d *Detector) Check(ctx context.Context, input string) (domain.CheckResult, error) {
	info, err := d.normalizer.Parse(input)
	if err != nil {
		d.metrics.ObserveCheck(metrics.OutcomeInvalid)
		return domain.SafeResult(input), err
	}
	return d.evaluate(ctx, input, info.Domain)
}

// CheckDomain is Check for a bare domain. Inputs containing '@' are rejected.
func (d *Detector) CheckDomain(ctx context.Context, name string) (domain.CheckResult, error) {
	if strings.Contains(name, "@") {
		d.metrics.ObserveCheck(metrics.OutcomeInvalid)
		return domain.SafeResult(name), &domain.FormatError{Input: name, Reason: "expected a domain, got an email address"}
	}
	return d.Check(ctx, name)
}

// CheckSafe never fails. Any error yields the non-disposable result.
func (d *Detector) CheckSafe(ctx context.Context, input string) domain.CheckResult {
	res, err := d.Check(ctx, input)
	if err != nil {
		d.logFailure(input, err)
		return domain.SafeResult(input)
	}
	return res
}

func (d *Detector) IsDisposable(ctx context.Context, email string) (bool, error) {
	res, err := d.Check(ctx, email)
	return res.Disposable, err
}

func (d *Detector) IsDisposableSafe(ctx context.Context, email string) bool {
	return d.CheckSafe(ctx, email).Disposable
}

func (d *Detector) IsDomainDisposable(ctx context.Context, name string) (bool, error) {
	res, err := d.CheckDomain(ctx, name)
	return res.Disposable, err
}

func (d *Detector) IsDomainDisposableSafe(ctx context.Context, name string) bool {
	res, err := d.CheckDomain(ctx, name)
	if err != nil {
		d.logFailure(name, err)
		return false
	}
	return res.Disposable
}

// CheckBatch evaluates every distinct input once and returns a result for
// each original key. Failures produce the safe result. Inputs sharing a
// registrable domain are decided once.
func (d *Detector) CheckBatch(ctx context.Context, inputs []string) map[string]domain.CheckResult {
	out := make(map[string]domain.CheckResult, len(inputs))
	byDomain := make(map[string]domain.CheckResult)

	for _, input := range inputs {
		if _, done := out[input]; done {
			continue
		}
		info, err := d.normalizer.Parse(input)
		if err != nil {
			d.metrics.ObserveCheck(metrics.OutcomeInvalid)
			out[input] = domain.SafeResult(input)
			continue
		}
		if prev, ok := byDomain[info.Domain]; ok {
			prev.Input = input
			out[input] = prev
			continue
		}
		res, err := d.evaluate(ctx, input, info.Domain)
		if err != nil {
			d.logFailure(input, err)
			out[input] = domain.SafeResult(input)
			continue
		}
		byDomain[info.Domain] = res
		out[input] = res
	}
	return out
}

func (d *Detector) IsDisposableBatch(ctx context.Context, inputs []string) map[string]bool {
	results := d.CheckBatch(ctx, inputs)
	out := make(map[string]bool, len(results))
	for k, r := range results {
		out[k] = r.Disposable
	}
	return out
}

// Normalize returns the registrable domain of input.
func (d *Detector) Normalize(input string) (string, error) {
	return d.normalizer.Normalize(input)
}

// Info returns the parsed form of input.
func (d *Detector) Info(input string) (domain.DomainInfo, error) {
	return d.normalizer.Parse(input)
}

// ClearCache drops every cached verdict. It may return
// cache.ErrClearUnsupported when the store cannot scope the flush.
func (d *Detector) ClearCache(ctx context.Context) error {
	if d.cache == nil {
		return nil
	}
	return d.cache.Clear(ctx)
}

// Forget removes the cached verdict of one domain or address.
func (d *Detector) Forget(ctx context.Context, input string) error {
	if d.cache == nil {
		return nil
	}
	name, err := d.normalizer.Normalize(input)
	if err != nil {
		return err
	}
	return d.cache.Delete(ctx, name)
}

// Checkers returns checker names in chain order.
func (d *Detector) Checkers() []string { return d.chain.Names() }

func (d *Detector) CacheEnabled() bool { return d.cache != nil }

// Whitelist returns the whitelisted registrable domains.
func (d *Detector) Whitelist() []string { return d.whitelist.Domains() }

// evaluate runs whitelist, cache and chain on an already normalized domain.
func (d *Detector) evaluate(ctx context.Context, input, name string) (domain.CheckResult, error) {
	res := domain.CheckResult{Input: input, Domain: name}

	if d.whitelist.Contains(name) {
		res.Whitelisted = true
		d.metrics.ObserveCheck(metrics.OutcomeWhitelisted)
		return res, nil
	}

	if d.cache != nil {
		v, found, err := d.cache.Get(ctx, name)
		switch {
		case err != nil:
			d.metrics.ObserveCacheLookup(metrics.CacheError)
			d.log.Warn("cache read failed", logger.String("domain", name), logger.Error(err))
		case found:
			d.metrics.ObserveCacheLookup(metrics.CacheHit)
			res.Disposable = v
			res.FromCache = true
			d.metrics.ObserveCheck(outcome(v))
			return res, nil
		default:
			d.metrics.ObserveCacheLookup(metrics.CacheMiss)
		}
	}

	matched, by, err := d.chain.Evaluate(ctx, name)
	if err != nil {
		d.metrics.ObserveCheck(metrics.OutcomeError)
		res.Disposable = false
		return res, err
	}
	res.Disposable = matched
	res.MatchedBy = by

	if d.cache != nil {
		if err := d.cache.Set(ctx, name, matched, d.ttl); err != nil {
			d.log.Warn("cache write failed", logger.String("domain", name), logger.Error(err))
		}
	}
	d.metrics.ObserveCheck(outcome(matched))
	return res, nil
}

func (d *Detector) logFailure(input string, err error) {
	if errors.Is(err, domain.ErrInvalidFormat) {
		d.log.Debug("invalid input", logger.String("input", input), logger.Error(err))
		return
	}
	d.log.Error("check failed", logger.String("input", input), logger.Error(err))
}

func outcome(disposable bool) string {
	if disposable {
		return metrics.OutcomeDisposable
	}
	return metrics.OutcomeClean
}
