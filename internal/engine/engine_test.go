package engine

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/disposable/internal/cache"
	"github.com/MrSnakeDoc/disposable/internal/config"
	"github.com/MrSnakeDoc/disposable/internal/domain"
	"github.com/MrSnakeDoc/disposable/internal/index"
)

// countingChecker flags a fixed set and counts lookups.
type countingChecker struct {
	name  string
	set   map[string]bool
	calls atomic.Int64
	err   error
}

func newCounting(name string, domains ...string) *countingChecker {
	c := &countingChecker{name: name, set: map[string]bool{}}
	for _, d := range domains {
		c.set[d] = true
	}
	return c
}

func (c *countingChecker) Name() string { return c.name }
func (c *countingChecker) IsDomainDisposable(_ context.Context, d string) (bool, error) {
	c.calls.Add(1)
	if c.err != nil {
		return false, c.err
	}
	return c.set[d], nil
}

// brokenStore fails every operation.
type brokenStore struct{}

var errStore = errors.New("connection refused")

func (brokenStore) Get(context.Context, string) (bool, bool, error)        { return false, false, errStore }
func (brokenStore) Set(context.Context, string, bool, time.Duration) error { return errStore }
func (brokenStore) Has(context.Context, string) (bool, error)              { return false, errStore }
func (brokenStore) Delete(context.Context, string) error                   { return errStore }
func (brokenStore) Clear(context.Context) error                            { return errStore }

func memStore(t *testing.T) *cache.MemoryStore {
	t.Helper()
	s, err := cache.NewMemoryStore(128)
	require.NoError(t, err)
	return s
}

func TestBundledScenario(t *testing.T) {
	ctx := context.Background()
	d, err := NewBuilder().WithBundledDomains().Build()
	require.NoError(t, err)

	res, err := d.Check(ctx, "user@mailinator.com")
	require.NoError(t, err)
	assert.True(t, res.Disposable)
	assert.Equal(t, "mailinator.com", res.Domain)
	assert.Equal(t, "bundled", res.MatchedBy)

	res, err = d.Check(ctx, "user@gmail.com")
	require.NoError(t, err)
	assert.False(t, res.Disposable)
	assert.Empty(t, res.MatchedBy)

	ok, err := d.IsDisposable(ctx, "someone@sub.mailinator.com")
	require.NoError(t, err)
	assert.True(t, ok, "subdomains resolve to the registrable domain")
}

func TestWhitelistOverridesChain(t *testing.T) {
	ctx := context.Background()
	c := newCounting("list", "company.co.uk", "mailinator.com")
	d, err := NewBuilder().WithChecker(c).WithWhitelist([]string{"Company.co.uk"}).Build()
	require.NoError(t, err)

	res, err := d.Check(ctx, "ops@mail.company.co.uk")
	require.NoError(t, err)
	assert.True(t, res.Whitelisted)
	assert.False(t, res.Disposable)
	assert.Zero(t, c.calls.Load(), "whitelisted domains never reach the chain")

	assert.Equal(t, []string{"company.co.uk"}, d.Whitelist())
}

func TestWhitelistRejectsSubdomains(t *testing.T) {
	_, err := NewWhitelist(domain.NewNormalizer(), []string{"mail.mailinator.com"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConfiguration)
	var cfgErr *domain.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "whitelist", cfgErr.Field)
	assert.Contains(t, cfgErr.Reason, `"mailinator.com"`)

	_, err = NewBuilder().WithBundledDomains().WithWhitelist([]string{"www.company.co.uk"}).Build()
	assert.ErrorIs(t, err, domain.ErrConfiguration)

	w, err := NewWhitelist(domain.NewNormalizer(), []string{"user@Company.CO.UK."})
	require.NoError(t, err)
	assert.True(t, w.Contains("company.co.uk"))
}

func TestWhitelistBeatsCachedVerdict(t *testing.T) {
	ctx := context.Background()
	store := memStore(t)
	require.NoError(t, store.Set(ctx, "trusted.com", true, cache.Forever))

	d, err := NewBuilder().
		WithChecker(newCounting("list")).
		WithWhitelist([]string{"trusted.com"}).
		WithCache(store, time.Hour).
		Build()
	require.NoError(t, err)

	res := d.CheckSafe(ctx, "a@trusted.com")
	assert.True(t, res.Whitelisted)
	assert.False(t, res.Disposable)
	assert.False(t, res.FromCache)
}

func TestCacheIsTransparent(t *testing.T) {
	ctx := context.Background()
	c := newCounting("list", "tempbox.io")
	store := memStore(t)
	d, err := NewBuilder().WithChecker(c).WithCache(store, time.Hour).Build()
	require.NoError(t, err)

	first, err := d.Check(ctx, "x@tempbox.io")
	require.NoError(t, err)
	second, err := d.Check(ctx, "y@TEMPBOX.io")
	require.NoError(t, err)

	assert.True(t, first.Disposable)
	assert.False(t, first.FromCache)
	assert.Equal(t, first.Disposable, second.Disposable)
	assert.True(t, second.FromCache)
	assert.EqualValues(t, 1, c.calls.Load())

	require.NoError(t, d.Forget(ctx, "tempbox.io"))
	third, err := d.Check(ctx, "z@tempbox.io")
	require.NoError(t, err)
	assert.False(t, third.FromCache)
	assert.EqualValues(t, 2, c.calls.Load())

	require.NoError(t, d.ClearCache(ctx))
	assert.Zero(t, store.Len())
}

func TestCacheFailureDoesNotChangeVerdict(t *testing.T) {
	d, err := NewBuilder().
		WithChecker(newCounting("list", "tempbox.io")).
		WithCache(brokenStore{}, time.Hour).
		Build()
	require.NoError(t, err)

	res, err := d.Check(context.Background(), "x@tempbox.io")
	require.NoError(t, err)
	assert.True(t, res.Disposable)
	assert.False(t, res.FromCache)
}

func TestChainOrderAndNaming(t *testing.T) {
	ctx := context.Background()
	first := newCounting("first", "a.com")
	second := newCounting("second", "a.com", "b.com")
	d, err := NewBuilder().
		WithPatternDetection().
		WithChecker(first).
		WithChecker(second).
		WithBundledDomains().
		Build()
	require.NoError(t, err)

	assert.Equal(t, []string{"first", "second", "bundled", "pattern"}, d.Checkers())

	res, _ := d.Check(ctx, "a.com")
	assert.Equal(t, "first", res.MatchedBy)
	assert.Zero(t, second.calls.Load(), "chain stops at the first match")

	res, _ = d.Check(ctx, "b.com")
	assert.Equal(t, "second", res.MatchedBy)

	res, _ = d.Check(ctx, "tempmail-service.net")
	assert.Equal(t, "pattern", res.MatchedBy)
}

func TestInvalidInput(t *testing.T) {
	ctx := context.Background()
	d, err := NewBuilder().WithBundledDomains().Build()
	require.NoError(t, err)

	for _, in := range []string{"", "not-an-email", "user@", "a@b..com", "user@[127.0.0.1]"} {
		res, err := d.Check(ctx, in)
		assert.ErrorIs(t, err, domain.ErrInvalidFormat, in)
		assert.Equal(t, domain.SafeResult(in), res)
		assert.False(t, d.IsDisposableSafe(ctx, in))
	}

	_, err = d.CheckDomain(ctx, "user@mailinator.com")
	assert.ErrorIs(t, err, domain.ErrInvalidFormat)
	assert.False(t, d.IsDomainDisposableSafe(ctx, "user@mailinator.com"))

	ok, err := d.IsDomainDisposable(ctx, "mailinator.com")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCheckerFailure(t *testing.T) {
	ctx := context.Background()
	broken := newCounting("database")
	broken.err = &domain.PersistenceError{Op: "exists", Err: errors.New("timeout")}
	d, err := NewBuilder().WithChecker(broken).Build()
	require.NoError(t, err)

	res, err := d.Check(ctx, "user@x.com")
	assert.ErrorIs(t, err, domain.ErrPersistence)
	assert.False(t, res.Disposable)

	safe := d.CheckSafe(ctx, "user@x.com")
	assert.Equal(t, domain.SafeResult("user@x.com"), safe)
}

func TestCheckBatch(t *testing.T) {
	ctx := context.Background()
	c := newCounting("list", "tempbox.io")
	d, err := NewBuilder().WithChecker(c).Build()
	require.NoError(t, err)

	inputs := []string{"a@tempbox.io", "b@tempbox.io", "a@tempbox.io", "c@gmail.com", "garbage", ""}
	out := d.CheckBatch(ctx, inputs)

	require.Len(t, out, 5)
	assert.True(t, out["a@tempbox.io"].Disposable)
	assert.True(t, out["b@tempbox.io"].Disposable)
	assert.Equal(t, "b@tempbox.io", out["b@tempbox.io"].Input)
	assert.False(t, out["c@gmail.com"].Disposable)
	assert.Equal(t, domain.SafeResult("garbage"), out["garbage"])
	assert.Equal(t, domain.SafeResult(""), out[""])
	assert.EqualValues(t, 2, c.calls.Load(), "one evaluation per distinct domain")

	flags := d.IsDisposableBatch(ctx, inputs)
	assert.Equal(t, map[string]bool{
		"a@tempbox.io": true, "b@tempbox.io": true, "c@gmail.com": false, "garbage": false, "": false,
	}, flags)
}

func TestNormalizeAndInfo(t *testing.T) {
	d, err := NewBuilder().
		WithBundledDomains().
		WithNormalizer(domain.NewNormalizer("co.xyz")).
		Build()
	require.NoError(t, err)

	name, err := d.Normalize("Someone@Mail.Shop.CO.XYZ")
	require.NoError(t, err)
	assert.Equal(t, "shop.co.xyz", name)

	info, err := d.Info("a@mail.example.com")
	require.NoError(t, err)
	assert.Equal(t, "mail", info.Subdomain)
	assert.True(t, info.HasSubdomain())
}

func TestBuildErrors(t *testing.T) {
	_, err := NewBuilder().Build()
	assert.ErrorIs(t, err, domain.ErrConfiguration)

	_, err = NewBuilder().WithBundledDomains().WithWhitelist([]string{"nodot"}).Build()
	assert.ErrorIs(t, err, domain.ErrConfiguration)

	_, err = NewBuilder().WithBundledDomains().WithCache(memStore(t), -time.Second).Build()
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestNoCacheOperations(t *testing.T) {
	d, err := NewBuilder().WithDomains([]string{"x.com"}).Build()
	require.NoError(t, err)
	assert.False(t, d.CacheEnabled())
	assert.NoError(t, d.ClearCache(context.Background()))
	assert.NoError(t, d.Forget(context.Background(), "x.com"))
	assert.Equal(t, []string{"list"}, d.Checkers())
}

func TestFromConfig(t *testing.T) {
	table := index.NewMemoryTable()
	_, err := table.UpsertDomains(context.Background(), "test", []string{"dbonly.com"}, time.Now())
	require.NoError(t, err)

	tests := []struct {
		name     string
		mutate   func(*config.Config)
		deps     Deps
		checkers []string
		wantErr  bool
	}{
		{name: "defaults", mutate: func(*config.Config) {}, checkers: []string{"bundled"}},
		{name: "file without list", mutate: func(c *config.Config) { c.UseBundledList = false }, wantErr: true},
		{name: "database", mutate: func(c *config.Config) {
			c.Checker = config.CheckerDatabase
			c.UseBundledList = false
		}, deps: Deps{Table: table}, checkers: []string{"database"}},
		{name: "database without table", mutate: func(c *config.Config) { c.Checker = config.CheckerDatabase }, wantErr: true},
		{name: "chain with table", mutate: func(c *config.Config) {
			c.Checker = config.CheckerChain
			c.PatternDetection = true
		}, deps: Deps{Table: table}, checkers: []string{"database", "bundled", "pattern"}},
		{name: "chain without table or list", mutate: func(c *config.Config) {
			c.Checker = config.CheckerChain
			c.Database.Table = ""
			c.UseBundledList = false
		}, wantErr: true},
		{name: "pattern", mutate: func(c *config.Config) {
			c.Checker = config.CheckerPattern
			c.UseBundledList = false
		}, checkers: []string{"pattern"}},
		{name: "unknown", mutate: func(c *config.Config) { c.Checker = "nope" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(cfg)
			d, err := FromConfig(cfg, tt.deps)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrConfiguration)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.checkers, d.Checkers())
		})
	}
}

func TestFromConfigDatabaseLookup(t *testing.T) {
	ctx := context.Background()
	table := index.NewMemoryTable()
	_, err := table.UpsertDomains(ctx, "test", []string{"dbonly.com"}, time.Now())
	require.NoError(t, err)

	cfg := config.Default()
	cfg.Checker = config.CheckerChain
	store := memStore(t)
	d, err := FromConfig(cfg, Deps{Table: table, Cache: store})
	require.NoError(t, err)
	require.True(t, d.CacheEnabled())

	res, err := d.Check(ctx, "x@dbonly.com")
	require.NoError(t, err)
	assert.True(t, res.Disposable)
	assert.Equal(t, "database", res.MatchedBy)

	found, err := store.Has(ctx, "dbonly.com")
	require.NoError(t, err)
	assert.True(t, found)
}
