package checker

import (
	"context"
	"errors"

	"github.com/MrSnakeDoc/disposable/internal/domain"
)

// TableName is the name reported by TableChecker.
const TableName = "database"

// DomainReader is the read side of a persisted domain table.
type DomainReader interface {
	Exists(ctx context.Context, domain string) (bool, error)
	Count(ctx context.Context) (int64, error)
	ListDomains(ctx context.Context) ([]string, error)
}

// TableChecker looks each domain up in a persisted table. It keeps no local
// state, every call reads the backing store.
type TableChecker struct {
	table DomainReader
}

func NewTable(table DomainReader) *TableChecker {
	return &TableChecker{table: table}
}

func (t *TableChecker) Name() string { return TableName }

func (t *TableChecker) IsDomainDisposable(ctx context.Context, d string) (bool, error) {
	ok, err := t.table.Exists(ctx, d)
	if err != nil {
		return false, asPersistence("lookup domain", err)
	}
	return ok, nil
}

// CountAll returns the number of persisted domains.
func (t *TableChecker) CountAll(ctx context.Context) (int64, error) {
	n, err := t.table.Count(ctx)
	if err != nil {
		return 0, asPersistence("count domains", err)
	}
	return n, nil
}

// ListAll returns every persisted domain.
func (t *TableChecker) ListAll(ctx context.Context) ([]string, error) {
	list, err := t.table.ListDomains(ctx)
	if err != nil {
		return nil, asPersistence("list domains", err)
	}
	return list, nil
}

func asPersistence(op string, err error) error {
	var pe *domain.PersistenceError
	if errors.As(err, &pe) {
		return err
	}
	return &domain.PersistenceError{Op: op, Err: err}
}
