// Package store provides read-only access to the local SQLite database.
// Connections are opened per request batch and closed via defer, so a failed
// query mid-batch never leaks a file handle.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"

	_ "github.com/mattn/go-sqlite3"
)

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// DB wraps a read-only SQLite connection.
type DB struct {
	db   *sql.DB
	path string
}

// Open opens the database in read-only mode. The URI form mirrors the
// mode=ro open used by the seeded deployments.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?mode=ro", path))
	if err != nil {
		return nil, fmt.Errorf("open sqlite %q: %w", path, err)
	}
	return &DB{db: db, path: path}, nil
}

// Ping verifies the database file is actually reachable; sql.Open alone is lazy.
func (d *DB) Ping(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

func (d *DB) Close() error {
	return d.db.Close()
}

// Query runs a parameterized SELECT and returns rows as ordered column maps.
func (d *DB) Query(ctx context.Context, query string, params ...interface{}) ([]map[string]interface{}, []string, error) {
	rows, err := d.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, nil, fmt.Errorf("columns: %w", err)
	}

	var out []map[string]interface{}
	for rows.Next() {
		values := make([]interface{}, len(cols))
		ptrs := make([]interface{}, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, nil, fmt.Errorf("scan: %w", err)
		}
		m := make(map[string]interface{}, len(cols))
		for i, c := range cols {
			if b, ok := values[i].([]byte); ok {
				m[c] = string(b)
			} else {
				m[c] = values[i]
			}
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("rows: %w", err)
	}
	return out, cols, nil
}

// TableColumns returns the column names of a table via PRAGMA table_info.
func (d *DB) TableColumns(ctx context.Context, table string) ([]string, error) {
	if !identRe.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	rows, err := d.db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return nil, fmt.Errorf("table_info %q: %w", table, err)
	}
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var (
			cid       int
			name, typ string
			notNull   int
			dflt      sql.NullString
			pk        int
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &dflt, &pk); err != nil {
			return nil, fmt.Errorf("scan table_info: %w", err)
		}
		cols = append(cols, name)
	}
	return cols, rows.Err()
}

// SampleRows returns up to n rows from a table.
func (d *DB) SampleRows(ctx context.Context, table string, n int) ([]map[string]interface{}, error) {
	if !identRe.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	rows, _, err := d.Query(ctx, fmt.Sprintf("SELECT * FROM %s LIMIT %d", table, n))
	return rows, err
}

// YearRange returns the min and max value of a year column. Either bound is
// nil when the table is empty.
func (d *DB) YearRange(ctx context.Context, table, yearCol string) (*int, *int, error) {
	if !identRe.MatchString(table) || !identRe.MatchString(yearCol) {
		return nil, nil, fmt.Errorf("invalid identifier %q.%q", table, yearCol)
	}
	row := d.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT MIN(%s), MAX(%s) FROM %s", yearCol, yearCol, table))
	var minYear, maxYear sql.NullInt64
	if err := row.Scan(&minYear, &maxYear); err != nil {
		return nil, nil, fmt.Errorf("year range: %w", err)
	}
	var lo, hi *int
	if minYear.Valid {
		v := int(minYear.Int64)
		lo = &v
	}
	if maxYear.Valid {
		v := int(maxYear.Int64)
		hi = &v
	}
	return lo, hi, nil
}
