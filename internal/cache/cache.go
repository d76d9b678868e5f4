// Package cache defines the verdict cache used by the detection engine and an
// in-process implementation.
package cache

import (
	"context"
	"errors"
	"time"
)

const (
	// Forever stores an entry without expiry.
	Forever time.Duration = 0
	// DefaultTTL applies when no ttl is configured.
	DefaultTTL = 3600 * time.Second
	// DefaultPrefix namespaces keys written by this service.
	DefaultPrefix = "disposable_email:"
)

// ErrClearUnsupported is returned by stores that cannot restrict a bulk
// clear to this service's keys.
var ErrClearUnsupported = errors.New("cache: bulk clear is not supported by this store")

// Store memoizes boolean verdicts keyed by normalized domain.
type Store interface {
	Get(ctx context.Context, key string) (value bool, found bool, err error)
	Set(ctx context.Context, key string, value bool, ttl time.Duration) error
	Has(ctx context.Context, key string) (bool, error)
	Delete(ctx context.Context, key string) error
	// Clear drops every entry owned by this store or returns ErrClearUnsupported.
	Clear(ctx context.Context) error
}

// Prefixed namespaces every key of the wrapped store. Clear is delegated as is.
func Prefixed(store Store, prefix string) Store {
	if prefix == "" {
		return store
	}
	return &prefixed{store: store, prefix: prefix}
}

type prefixed struct {
	store  Store
	prefix string
}

func (p *prefixed) Get(ctx context.Context, key string) (bool, bool, error) {
	return p.store.Get(ctx, p.prefix+key)
}

func (p *prefixed) Set(ctx context.Context, key string, value bool, ttl time.Duration) error {
	return p.store.Set(ctx, p.prefix+key, value, ttl)
}

func (p *prefixed) Has(ctx context.Context, key string) (bool, error) {
	return p.store.Has(ctx, p.prefix+key)
}

func (p *prefixed) Delete(ctx context.Context, key string) error {
	return p.store.Delete(ctx, p.prefix+key)
}

func (p *prefixed) Clear(ctx context.Context) error {
	return p.store.Clear(ctx)
}
