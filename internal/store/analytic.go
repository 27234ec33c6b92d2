package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/marcboeker/go-duckdb"
	"github.com/pkg/errors"
)

// Analytic is the embedded columnar store holding the trip table.
type Analytic struct {
	db   *sql.DB
	path string
}

// OpenAnalytic opens (or creates) the DuckDB file at path. An empty path
// opens an in-memory database.
func OpenAnalytic(path string) (*Analytic, error) {
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, errors.Wrapf(err, "create directory for %s", path)
		}
	}
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, errors.Wrapf(err, "open analytic store %s", path)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errors.Wrapf(err, "connect to analytic store %s", path)
	}
	return &Analytic{db: db, path: path}, nil
}

// Close releases the underlying database.
func (a *Analytic) Close() error {
	return a.db.Close()
}

// LoadCSV creates table from the CSV at csvPath. The table is kept as is
// when it already exists unless replace is set.
func (a *Analytic) LoadCSV(ctx context.Context, table, csvPath string, replace bool) error {
	create := "CREATE TABLE IF NOT EXISTS"
	if replace {
		create = "CREATE OR REPLACE TABLE"
	}
	q := fmt.Sprintf("%s %s AS SELECT * FROM read_csv_auto(%s)", create, quoteIdent(table), quoteLiteral(csvPath))
	if _, err := a.db.ExecContext(ctx, q); err != nil {
		return errors.Wrapf(err, "load %s into %s", csvPath, table)
	}
	return nil
}

// TableExists reports whether table exists in the analytic store.
func (a *Analytic) TableExists(ctx context.Context, table string) (bool, error) {
	var n int
	err := a.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM information_schema.tables WHERE table_name = ?", table).Scan(&n)
	if err != nil {
		return false, errors.Wrapf(err, "look up table %s", table)
	}
	return n > 0, nil
}

// Columns returns the column names of table in declaration order.
func (a *Analytic) Columns(ctx context.Context, table string) ([]string, error) {
	rows, err := a.db.QueryContext(ctx,
		"SELECT column_name FROM information_schema.columns WHERE table_name = ? ORDER BY ordinal_position", table)
	if err != nil {
		return nil, errors.Wrapf(err, "list columns of %s", table)
	}
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, errors.Wrapf(err, "list columns of %s", table)
		}
		cols = append(cols, c)
	}
	return cols, rows.Err()
}

// CreateOrReplace materializes query as table.
func (a *Analytic) CreateOrReplace(ctx context.Context, table, query string) error {
	q := fmt.Sprintf("CREATE OR REPLACE TABLE %s AS %s", quoteIdent(table), query)
	if _, err := a.db.ExecContext(ctx, q); err != nil {
		return errors.Wrapf(err, "materialize %s", table)
	}
	return nil
}

// Count returns the number of rows in table.
func (a *Analytic) Count(ctx context.Context, table string) (int, error) {
	var n int
	if err := a.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+quoteIdent(table)).Scan(&n); err != nil {
		return 0, errors.Wrapf(err, "count rows of %s", table)
	}
	return n, nil
}

// Sample replaces table with a uniform reservoir sample of n rows.
func (a *Analytic) Sample(ctx context.Context, table string, n int) error {
	q := fmt.Sprintf("CREATE OR REPLACE TABLE %[1]s AS SELECT * FROM %[1]s USING SAMPLE %[2]d ROWS", quoteIdent(table), n)
	if _, err := a.db.ExecContext(ctx, q); err != nil {
		return errors.Wrapf(err, "sample %s down to %d rows", table, n)
	}
	return nil
}

// ExportTable reads table into a data frame.
func (a *Analytic) ExportTable(ctx context.Context, table string) (*Table, error) {
	rows, err := a.db.QueryContext(ctx, "SELECT * FROM "+quoteIdent(table))
	if err != nil {
		return nil, errors.Wrapf(err, "export %s", table)
	}
	defer rows.Close()

	t, err := scanTable(table, rows)
	if err != nil {
		return nil, errors.Wrapf(err, "export %s", table)
	}
	return t, nil
}

// scanTable drains rows into a Table, mapping column types to SQLite affinities.
func scanTable(name string, rows *sql.Rows) (*Table, error) {
	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, err
	}
	t := &Table{Name: name, Columns: make([]Column, len(types)), Rows: [][]any{}}
	for i, ct := range types {
		t.Columns[i] = Column{Name: ct.Name(), Type: affinity(ct.DatabaseTypeName())}
	}

	for rows.Next() {
		vals := make([]any, len(types))
		ptrs := make([]any, len(types))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		for i := range vals {
			vals[i] = normalize(vals[i])
		}
		t.Rows = append(t.Rows, vals)
	}
	return t, rows.Err()
}
