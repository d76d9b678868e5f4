package sqldb

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/lib/pq"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// ValidTableName reports whether name is a plain SQL identifier, optionally
// schema-qualified.
func ValidTableName(name string) bool {
	return identRe.MatchString(name)
}

// Dialect holds the per-driver differences: placeholders, quoting and DDL.
type Dialect struct {
	Driver string
}

func dialectFor(driver string) (Dialect, error) {
	switch driver {
	case DriverPostgres, DriverSQLite:
		return Dialect{Driver: driver}, nil
	default:
		return Dialect{}, fmt.Errorf("unsupported sql driver %q", driver)
	}
}

// placeholder returns the n-th (1-based) bind parameter.
func (d Dialect) placeholder(n int) string {
	if d.Driver == DriverPostgres {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}

// quote quotes a validated, possibly schema-qualified identifier.
func (d Dialect) quote(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		if d.Driver == DriverPostgres {
			parts[i] = pq.QuoteIdentifier(p)
		} else {
			parts[i] = `"` + p + `"`
		}
	}
	return strings.Join(parts, ".")
}

func (d Dialect) migrations(table string) []string {
	qt := d.quote(table)
	// index names are never schema-qualified on postgres; sqlite wants the
	// schema on the index name and a bare table name.
	bare := table
	schema := ""
	if i := strings.IndexByte(table, '.'); i >= 0 {
		schema, bare = table[:i], table[i+1:]
	}
	index := "idx_" + bare + "_source"

	if d.Driver == DriverPostgres {
		return []string{
			`CREATE TABLE IF NOT EXISTS ` + qt + ` (
				id BIGSERIAL PRIMARY KEY,
				domain VARCHAR(255) NOT NULL UNIQUE,
				source VARCHAR(255),
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			)`,
			`CREATE INDEX IF NOT EXISTS ` + pq.QuoteIdentifier(index) + ` ON ` + qt + ` (source)`,
		}
	}

	indexName := d.quote(index)
	onTable := d.quote(table)
	if schema != "" {
		indexName = d.quote(schema + "." + index)
		onTable = d.quote(bare)
	}
	return []string{
		`CREATE TABLE IF NOT EXISTS ` + qt + ` (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			domain TEXT NOT NULL UNIQUE,
			source TEXT,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS ` + indexName + ` ON ` + onTable + ` (source)`,
	}
}
