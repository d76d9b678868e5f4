package cache

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultSize bounds the number of entries kept by a MemoryStore.
const DefaultSize = 100_000

type memEntry struct {
	value     bool
	expiresAt time.Time // zero means no expiry
}

// MemoryStore is a bounded LRU with per-entry expiry. It is private to the
// process, so Clear only ever drops this service's entries.
type MemoryStore struct {
	entries *lru.Cache[string, memEntry]
	now     func() time.Time
}

// NewMemoryStore returns a store holding at most size entries (DefaultSize
// when size <= 0).
func NewMemoryStore(size int) (*MemoryStore, error) {
	if size <= 0 {
		size = DefaultSize
	}
	entries, err := lru.New[string, memEntry](size)
	if err != nil {
		return nil, err
	}
	return &MemoryStore{entries: entries, now: time.Now}, nil
}

func (m *MemoryStore) Get(_ context.Context, key string) (bool, bool, error) {
	e, ok := m.lookup(key)
	return e.value, ok, nil
}

func (m *MemoryStore) Set(_ context.Context, key string, value bool, ttl time.Duration) error {
	e := memEntry{value: value}
	if ttl > 0 {
		e.expiresAt = m.now().Add(ttl)
	}
	m.entries.Add(key, e)
	return nil
}

func (m *MemoryStore) Has(_ context.Context, key string) (bool, error) {
	_, ok := m.lookup(key)
	return ok, nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.entries.Remove(key)
	return nil
}

func (m *MemoryStore) Clear(context.Context) error {
	m.entries.Purge()
	return nil
}

// Len returns the number of stored entries, expired ones included until
// they are touched.
func (m *MemoryStore) Len() int { return m.entries.Len() }

func (m *MemoryStore) lookup(key string) (memEntry, bool) {
	e, ok := m.entries.Get(key)
	if !ok {
		return memEntry{}, false
	}
	if !e.expiresAt.IsZero() && !m.now().Before(e.expiresAt) {
		m.entries.Remove(key)
		return memEntry{}, false
	}
	return e, true
}
