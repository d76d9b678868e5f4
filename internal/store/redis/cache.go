// Package redis stores detection verdicts in Redis.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/disposable/internal/cache"
)

// scanBatch is the SCAN COUNT hint and the DEL batch size used by Clear.
const scanBatch = 500

// CacheStore implements cache.Store on Redis. Keys are prefix+domain and
// values "1" (disposable) or "0".
type CacheStore struct {
	client redis.Cmdable
	prefix string
}

var _ cache.Store = (*CacheStore)(nil)

// NewCacheStore returns a store writing keys under prefix.
func NewCacheStore(client redis.Cmdable, prefix string) *CacheStore {
	return &CacheStore{client: client, prefix: prefix}
}

func (s *CacheStore) Get(ctx context.Context, domain string) (bool, bool, error) {
	v, err := s.client.Get(ctx, s.key(domain)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, false, nil
		}
		return false, false, fmt.Errorf("failed to get cached verdict: %w", err)
	}
	return v == valueDisposable, true, nil
}

// Set stores the verdict. A ttl of cache.Forever persists the key.
func (s *CacheStore) Set(ctx context.Context, domain string, value bool, ttl time.Duration) error {
	if ttl < 0 {
		ttl = cache.Forever
	}
	if err := s.client.Set(ctx, s.key(domain), encode(value), ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache verdict: %w", err)
	}
	return nil
}

func (s *CacheStore) Has(ctx context.Context, domain string) (bool, error) {
	n, err := s.client.Exists(ctx, s.key(domain)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check cached verdict: %w", err)
	}
	return n > 0, nil
}

func (s *CacheStore) Delete(ctx context.Context, domain string) error {
	if err := s.client.Del(ctx, s.key(domain)).Err(); err != nil {
		return fmt.Errorf("failed to delete cached verdict: %w", err)
	}
	return nil
}

// Clear collects every key under the prefix, then deletes them. Without a
// prefix the keys of this service cannot be told apart from others, so it
// refuses with cache.ErrClearUnsupported.
func (s *CacheStore) Clear(ctx context.Context) error {
	if s.prefix == "" {
		return cache.ErrClearUnsupported
	}

	var keys []string
	iter := s.client.Scan(ctx, 0, s.pattern(), scanBatch).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan cache keys: %w", err)
	}

	for start := 0; start < len(keys); start += scanBatch {
		end := min(start+scanBatch, len(keys))
		if err := s.client.Del(ctx, keys[start:end]...).Err(); err != nil {
			return fmt.Errorf("failed to delete cache keys: %w", err)
		}
	}
	return nil
}

// Ping reports whether Redis answers.
func (s *CacheStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
