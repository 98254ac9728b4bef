// Package ledger keeps a history of check runs in SQLite so that proceedings
// editors can see which warnings recur across submissions.
package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	_ "modernc.org/sqlite"
)

// Run is one recorded check.
type Run struct {
	ID          int64
	Input       string
	InputSHA256 string
	Template    string
	References  int
	Citations   int
	// Warnings lists warning names, one entry per recorded warning.
	Warnings []string
	At       time.Time
}

// KindCount is how often a warning kind has been recorded.
type KindCount struct {
	Name  string
	Count int
}

// DB wraps a SQLite database connection.
type DB struct {
	db *sql.DB
}

// Open opens or creates a ledger at path.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening ledger: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return &DB{db: db}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

func createSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			input TEXT NOT NULL,
			input_sha256 TEXT NOT NULL,
			template TEXT NOT NULL,
			refs INTEGER NOT NULL,
			cites INTEGER NOT NULL,
			at INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS run_warnings (
			run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			name TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_run_warnings_name ON run_warnings(name);
	`
	_, err := db.Exec(schema)
	return err
}

// Record stores r and returns its id. A zero At is replaced by the current time.
func (d *DB) Record(ctx context.Context, r Run) (int64, error) {
	if r.At.IsZero() {
		r.At = time.Now()
	}
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO runs (input, input_sha256, template, refs, cites, at) VALUES (?, ?, ?, ?, ?, ?)`,
		r.Input, r.InputSHA256, r.Template, r.References, r.Citations, r.At.UTC().UnixNano())
	if err != nil {
		return 0, fmt.Errorf("inserting run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO run_warnings (run_id, name) VALUES (?, ?)`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()
	for _, w := range r.Warnings {
		if _, err := stmt.ExecContext(ctx, id, w); err != nil {
			return 0, fmt.Errorf("inserting warning %s: %w", w, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return id, nil
}

// Recent returns up to limit runs, newest first.
func (d *DB) Recent(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := d.db.QueryContext(ctx,
		`SELECT id, input, input_sha256, template, refs, cites, at FROM runs ORDER BY at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	var runs []Run
	for rows.Next() {
		var r Run
		var at int64
		if err := rows.Scan(&r.ID, &r.Input, &r.InputSHA256, &r.Template, &r.References, &r.Citations, &at); err != nil {
			rows.Close()
			return nil, err
		}
		r.At = time.Unix(0, at).UTC()
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	for i := range runs {
		names, err := d.warnings(ctx, runs[i].ID)
		if err != nil {
			return nil, err
		}
		runs[i].Warnings = names
	}
	return runs, nil
}

func (d *DB) warnings(ctx context.Context, runID int64) ([]string, error) {
	rows, err := d.db.QueryContext(ctx, `SELECT name FROM run_warnings WHERE run_id = ? ORDER BY rowid`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// Kinds counts recorded warnings by name, most frequent first.
func (d *DB) Kinds(ctx context.Context) ([]KindCount, error) {
	rows, err := d.db.QueryContext(ctx, `SELECT name, COUNT(*) FROM run_warnings GROUP BY name`)
	if err != nil {
		return nil, fmt.Errorf("counting warnings: %w", err)
	}
	defer rows.Close()
	var out []KindCount
	for rows.Next() {
		var k KindCount
		if err := rows.Scan(&k.Name, &k.Count); err != nil {
			return nil, err
		}
		out = append(out, k)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}
