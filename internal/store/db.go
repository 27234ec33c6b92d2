package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cyclecraft/bikeshare/internal/model"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

// ErrTableNotFound is returned when a requested table has not been written yet.
var ErrTableNotFound = errors.New("table not found")

// Relational is the SQLite store holding result tables for the dashboard.
type Relational struct {
	db *sql.DB
}

// OpenRelational opens the SQLite file at path and creates the run
// bookkeeping tables if they do not exist.
func OpenRelational(path string) (*Relational, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrapf(err, "create directory for %s", path)
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrapf(err, "open relational store %s", path)
	}

	runTable := `
	CREATE TABLE IF NOT EXISTS analysis_runs (
		id TEXT PRIMARY KEY,
		status TEXT,
		started_at DATETIME,
		finished_at DATETIME,
		succeeded INTEGER DEFAULT 0,
		failed INTEGER DEFAULT 0
	);
	`
	errorTable := `
	CREATE TABLE IF NOT EXISTS analysis_run_errors (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT,
		query TEXT,
		error_message TEXT,
		created_at DATETIME
	);
	`
	for _, ddl := range []string{runTable, errorTable} {
		if _, err := db.Exec(ddl); err != nil {
			db.Close()
			return nil, errors.Wrap(err, "create run tables")
		}
	}
	return &Relational{db: db}, nil
}

// Close releases the underlying database.
func (r *Relational) Close() error {
	return r.db.Close()
}

// QueryContext runs a read query against the store.
func (r *Relational) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return r.db.QueryContext(ctx, query, args...)
}

// ReplaceTable swaps in t as a whole: the old table is dropped and the new
// one created and filled inside a single transaction.
func (r *Relational) ReplaceTable(ctx context.Context, t *Table) (err error) {
	if len(t.Columns) == 0 {
		return errors.Errorf("table %s has no columns", t.Name)
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrapf(err, "begin replace of %s", t.Name)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+quoteIdent(t.Name)); err != nil {
		return errors.Wrapf(err, "drop %s", t.Name)
	}

	defs := make([]string, len(t.Columns))
	marks := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		typ := c.Type
		if typ == "" {
			typ = TypeText
		}
		defs[i] = quoteIdent(c.Name) + " " + typ
		marks[i] = "?"
	}
	if _, err = tx.ExecContext(ctx, fmt.Sprintf("CREATE TABLE %s (%s)", quoteIdent(t.Name), strings.Join(defs, ", "))); err != nil {
		return errors.Wrapf(err, "create %s", t.Name)
	}

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf("INSERT INTO %s VALUES (%s)", quoteIdent(t.Name), strings.Join(marks, ", ")))
	if err != nil {
		return errors.Wrapf(err, "prepare insert into %s", t.Name)
	}
	defer stmt.Close()

	for i, row := range t.Rows {
		if _, err = stmt.ExecContext(ctx, row...); err != nil {
			return errors.Wrapf(err, "insert row %d into %s", i, t.Name)
		}
	}

	if err = tx.Commit(); err != nil {
		return errors.Wrapf(err, "commit %s", t.Name)
	}
	return nil
}

// TableExists reports whether a table of that name exists.
func (r *Relational) TableExists(ctx context.Context, name string) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ? COLLATE NOCASE", name).Scan(&n)
	if err != nil {
		return false, errors.Wrapf(err, "look up table %s", name)
	}
	return n > 0, nil
}

// ReadTable loads a whole table. It returns ErrTableNotFound when the
// table has not been written.
func (r *Relational) ReadTable(ctx context.Context, name string) (*Table, error) {
	ok, err := r.TableExists(ctx, name)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.Wrapf(ErrTableNotFound, "read %s", name)
	}

	rows, err := r.db.QueryContext(ctx, "SELECT * FROM "+quoteIdent(name))
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", name)
	}
	defer rows.Close()

	t, err := scanTable(name, rows)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", name)
	}
	return t, nil
}

// SaveRun stores a new analysis run.
func (r *Relational) SaveRun(run model.AnalysisRun) error {
	_, err := r.db.Exec(`INSERT INTO analysis_runs (id, status, started_at) VALUES (?, ?, ?)`,
		run.ID, run.Status, run.StartedAt.UTC())
	return errors.Wrapf(err, "save run %s", run.ID)
}

// FinishRun records the final status and counters of a run.
func (r *Relational) FinishRun(runID, status string, succeeded, failed int) error {
	now := time.Now().UTC()
	_, err := r.db.Exec(`UPDATE analysis_runs SET status = ?, finished_at = ?, succeeded = ?, failed = ? WHERE id = ?`,
		status, now, succeeded, failed, runID)
	return errors.Wrapf(err, "finish run %s", runID)
}

// SaveRunError records a skipped query for a run.
func (r *Relational) SaveRunError(runID, query string, err error) error {
	if err == nil {
		return nil
	}
	now := time.Now().UTC()
	_, e := r.db.Exec(`INSERT INTO analysis_run_errors (run_id, query, error_message, created_at) VALUES (?, ?, ?, ?)`,
		runID, query, err.Error(), now)
	return errors.Wrapf(e, "save error for run %s", runID)
}

// ListRuns returns the most recent runs first.
func (r *Relational) ListRuns(ctx context.Context, limit int) ([]model.AnalysisRun, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, status, started_at, finished_at, succeeded, failed FROM analysis_runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, errors.Wrap(err, "list runs")
	}
	defer rows.Close()

	runs := []model.AnalysisRun{}
	for rows.Next() {
		var run model.AnalysisRun
		var finished sql.NullTime
		if err := rows.Scan(&run.ID, &run.Status, &run.StartedAt, &finished, &run.Succeeded, &run.Failed); err != nil {
			return nil, errors.Wrap(err, "scan run")
		}
		if finished.Valid {
			t := finished.Time
			run.FinishedAt = &t
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// RunErrors returns the skipped queries of a run.
func (r *Relational) RunErrors(ctx context.Context, runID string) ([]model.RunError, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT run_id, query, error_message, created_at FROM analysis_run_errors WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, errors.Wrapf(err, "list errors of run %s", runID)
	}
	defer rows.Close()

	var out []model.RunError
	for rows.Next() {
		var e model.RunError
		if err := rows.Scan(&e.RunID, &e.Query, &e.Message, &e.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "scan run error")
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// LatestRunID returns the id of the most recent run, or "" if none ran.
func (r *Relational) LatestRunID(ctx context.Context) (string, error) {
	var id string
	err := r.db.QueryRowContext(ctx, `SELECT id FROM analysis_runs ORDER BY started_at DESC LIMIT 1`).Scan(&id)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", errors.Wrap(err, "latest run")
	}
	return id, nil
}
