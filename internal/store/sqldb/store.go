// Package sqldb persists the disposable domain table in a relational
// database. Postgres goes through lib/pq, SQLite through modernc.org/sqlite.
package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/MrSnakeDoc/disposable/internal/domain"
)

// DefaultTable is the table name used when none is configured.
const DefaultTable = "disposable_domains"

// maxRowsPerStatement keeps every driver under its bind parameter limit.
// Larger chunks are split inside one transaction.
const maxRowsPerStatement = 500

// DomainStore is the SQL backed domain table.
type DomainStore struct {
	db      *sql.DB
	dialect Dialect
	table   string
	qtable  string
}

// Open connects to driver/dsn and checks the table name. The schema is not
// created, call Migrate for that.
func Open(driver, dsn, table string) (*DomainStore, error) {
	if dsn == "" {
		return nil, fmt.Errorf("%s connection string is empty", driver)
	}
	d, err := dialectFor(driver)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if driver == DriverSQLite {
		db.SetMaxOpenConns(1)
	}

	s, err := New(db, d, table)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an existing handle. Used by Open and by tests with sqlmock.
func New(db *sql.DB, d Dialect, table string) (*DomainStore, error) {
	if table == "" {
		table = DefaultTable
	}
	if !ValidTableName(table) {
		return nil, &domain.ConfigError{Field: "database.table", Reason: fmt.Sprintf("%q is not a valid table name", table)}
	}
	return &DomainStore{db: db, dialect: d, table: table, qtable: d.quote(table)}, nil
}

func (s *DomainStore) Close() error { return s.db.Close() }

// Table returns the configured table name.
func (s *DomainStore) Table() string { return s.table }

// Ping checks the database connection.
func (s *DomainStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return persistence("ping", err)
	}
	return nil
}

// Migrate creates the table and its source index when missing.
func (s *DomainStore) Migrate(ctx context.Context) error {
	for _, stmt := range s.dialect.migrations(s.table) {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return persistence("migrate", err)
		}
	}
	return nil
}

func (s *DomainStore) Exists(ctx context.Context, d string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM `+s.qtable+` WHERE domain = `+s.dialect.placeholder(1),
		d,
	).Scan(&one)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return false, nil
	case err != nil:
		return false, persistence("exists", err)
	}
	return true, nil
}

func (s *DomainStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+s.qtable).Scan(&n); err != nil {
		return 0, persistence("count", err)
	}
	return n, nil
}

// ListDomains returns every domain in lexical order.
func (s *DomainStore) ListDomains(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT domain FROM `+s.qtable+` ORDER BY domain`)
	if err != nil {
		return nil, persistence("list", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, persistence("list", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, persistence("list", err)
	}
	return out, nil
}

// Get returns the record for one domain.
func (s *DomainStore) Get(ctx context.Context, d string) (domain.DomainRecord, bool, error) {
	var (
		rec    domain.DomainRecord
		source sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, domain, source, created_at, updated_at FROM `+s.qtable+` WHERE domain = `+s.dialect.placeholder(1),
		d,
	).Scan(&rec.ID, &rec.Domain, &source, &rec.CreatedAt, &rec.UpdatedAt)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return domain.DomainRecord{}, false, nil
	case err != nil:
		return domain.DomainRecord{}, false, persistence("get", err)
	}
	rec.Source = source.String
	return rec, true, nil
}

// UpsertDomains inserts the domains or, for existing rows, updates source and
// updated_at. created_at of existing rows is left untouched. The whole call
// runs in one transaction. It returns the number of distinct domains written.
func (s *DomainStore) UpsertDomains(ctx context.Context, source string, domains []string, now time.Time) (int, error) {
	unique := dedupe(domains)
	if len(unique) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, persistence("upsert", err)
	}
	defer func() { _ = tx.Rollback() }()

	src := sql.NullString{String: source, Valid: source != ""}
	now = now.UTC()
	for start := 0; start < len(unique); start += maxRowsPerStatement {
		batch := unique[start:min(start+maxRowsPerStatement, len(unique))]
		query, args := s.upsertStatement(batch, src, now)
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return 0, persistence("upsert", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, persistence("upsert", err)
	}
	return len(unique), nil
}

func (s *DomainStore) upsertStatement(batch []string, src sql.NullString, now time.Time) (string, []any) {
	var b strings.Builder
	args := make([]any, 0, len(batch)*4)

	b.WriteString(`INSERT INTO `)
	b.WriteString(s.qtable)
	b.WriteString(` (domain, source, created_at, updated_at) VALUES `)
	for i, d := range batch {
		if i > 0 {
			b.WriteString(", ")
		}
		n := len(args)
		fmt.Fprintf(&b, "(%s, %s, %s, %s)",
			s.dialect.placeholder(n+1), s.dialect.placeholder(n+2),
			s.dialect.placeholder(n+3), s.dialect.placeholder(n+4))
		args = append(args, d, src, now, now)
	}
	b.WriteString(` ON CONFLICT (domain) DO UPDATE SET source = excluded.source, updated_at = excluded.updated_at`)
	return b.String(), args
}

// DeleteBySource removes the rows contributed by source and returns how many
// were deleted.
func (s *DomainStore) DeleteBySource(ctx context.Context, source string) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM `+s.qtable+` WHERE source = `+s.dialect.placeholder(1),
		source,
	)
	if err != nil {
		return 0, persistence("delete by source", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, persistence("delete by source", err)
	}
	return n, nil
}

func dedupe(domains []string) []string {
	seen := make(map[string]struct{}, len(domains))
	out := make([]string, 0, len(domains))
	for _, d := range domains {
		if d == "" {
			continue
		}
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		out = append(out, d)
	}
	return out
}

func persistence(op string, err error) error {
	return &domain.PersistenceError{Op: op, Err: err}
}
