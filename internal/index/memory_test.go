package index

import (
	"context"
	"testing"
	"time"
)

func TestMemoryTableUpsert(t *testing.T) {
	ctx := context.Background()
	tbl := NewMemoryTable()
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	t1 := t0.Add(time.Hour)

	n, err := tbl.UpsertDomains(ctx, "alpha", []string{"b.com", "a.com", "a.com", ""}, t0)
	if err != nil {
		t.Fatalf("UpsertDomains: %v", err)
	}
	if n != 2 {
		t.Errorf("written = %d, want 2", n)
	}

	if _, err := tbl.UpsertDomains(ctx, "beta", []string{"a.com"}, t1); err != nil {
		t.Fatalf("UpsertDomains: %v", err)
	}

	count, _ := tbl.Count(ctx)
	if count != 2 {
		t.Errorf("Count() = %d, want 2", count)
	}

	rec, ok, _ := tbl.Get(ctx, "a.com")
	if !ok {
		t.Fatal("a.com missing")
	}
	if rec.Source != "beta" {
		t.Errorf("Source = %q, want beta", rec.Source)
	}
	if !rec.CreatedAt.Equal(t0) {
		t.Errorf("CreatedAt = %v, want %v", rec.CreatedAt, t0)
	}
	if !rec.UpdatedAt.Equal(t1) {
		t.Errorf("UpdatedAt = %v, want %v", rec.UpdatedAt, t1)
	}
	if !tbl.LastWrite().Equal(t1) {
		t.Errorf("LastWrite() = %v, want %v", tbl.LastWrite(), t1)
	}

	list, _ := tbl.ListDomains(ctx)
	if len(list) != 2 || list[0] != "a.com" || list[1] != "b.com" {
		t.Errorf("ListDomains() = %v", list)
	}
}

func TestMemoryTableDeleteBySource(t *testing.T) {
	ctx := context.Background()
	tbl := NewMemoryTable()
	now := time.Now()

	_, _ = tbl.UpsertDomains(ctx, "alpha", []string{"a.com", "b.com"}, now)
	_, _ = tbl.UpsertDomains(ctx, "beta", []string{"c.com"}, now)

	n, _ := tbl.DeleteBySource(ctx, "alpha")
	if n != 2 {
		t.Errorf("deleted = %d, want 2", n)
	}

	tests := []struct {
		domain string
		want   bool
	}{
		{"a.com", false},
		{"b.com", false},
		{"c.com", true},
	}
	for _, tt := range tests {
		got, _ := tbl.Exists(ctx, tt.domain)
		if got != tt.want {
			t.Errorf("Exists(%q) = %v, want %v", tt.domain, got, tt.want)
		}
	}
}
