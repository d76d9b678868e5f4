package index

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/MrSnakeDoc/disposable/internal/domain"
)

// MemoryTable is an in-process domain table with the same contract as the
// SQL store. It backs the "memory" database driver and tests.
type MemoryTable struct {
	mu        sync.RWMutex
	records   map[string]*domain.DomainRecord // domain -> record
	nextID    int64
	lastWrite time.Time
}

// NewMemoryTable creates an empty table
func NewMemoryTable() *MemoryTable {
	return &MemoryTable{
		records: make(map[string]*domain.DomainRecord),
	}
}

// Exists reports whether the domain is stored
func (t *MemoryTable) Exists(_ context.Context, d string) (bool, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	_, ok := t.records[d]
	return ok, nil
}

// Count returns the number of stored domains
func (t *MemoryTable) Count(context.Context) (int64, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return int64(len(t.records)), nil
}

// ListDomains returns all domains sorted
func (t *MemoryTable) ListDomains(context.Context) ([]string, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]string, 0, len(t.records))
	for d := range t.records {
		out = append(out, d)
	}
	sort.Strings(out)
	return out, nil
}

// Get returns a copy of the record for d
func (t *MemoryTable) Get(_ context.Context, d string) (domain.DomainRecord, bool, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	rec, ok := t.records[d]
	if !ok {
		return domain.DomainRecord{}, false, nil
	}
	return *rec, true, nil
}

// UpsertDomains inserts new domains and updates source/updated_at of
// existing ones. The chunk is applied under a single lock.
func (t *MemoryTable) UpsertDomains(_ context.Context, source string, domains []string, now time.Time) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	written := 0
	seen := make(map[string]struct{}, len(domains))
	for _, d := range domains {
		if d == "" {
			continue
		}
		if _, dup := seen[d]; dup {
			continue
		}
		seen[d] = struct{}{}
		written++

		if rec, ok := t.records[d]; ok {
			rec.Source = source
			rec.UpdatedAt = now
			continue
		}
		t.nextID++
		t.records[d] = &domain.DomainRecord{
			ID:        t.nextID,
			Domain:    d,
			Source:    source,
			CreatedAt: now,
			UpdatedAt: now,
		}
	}
	t.lastWrite = now
	return written, nil
}

// DeleteBySource removes every record contributed by source
func (t *MemoryTable) DeleteBySource(_ context.Context, source string) (int64, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	var n int64
	for d, rec := range t.records {
		if rec.Source == source {
			delete(t.records, d)
			n++
		}
	}
	return n, nil
}

// Ping always succeeds
func (t *MemoryTable) Ping(context.Context) error { return nil }

// LastWrite returns the time of the last upsert
func (t *MemoryTable) LastWrite() time.Time {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return t.lastWrite
}
