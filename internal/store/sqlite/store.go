// Package sqlite provides a SQLite-backed record store using the pure Go
// modernc.org/sqlite driver. It owns the schema and the transactional
// dataset import used by the load command.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"github.com/welltegra/welltegra-api/internal/dataset"
	"github.com/welltegra/welltegra-api/internal/toolstring"
)

// Compile-time contract assertion.
var _ toolstring.Store = (*Store)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS toolstring_runs (
	run_id    TEXT PRIMARY KEY,
	run_name  TEXT NOT NULL,
	well_name TEXT NOT NULL DEFAULT '',
	run_date  TEXT NOT NULL DEFAULT '',
	outcome   TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS toolstring_tools (
	run_id    TEXT NOT NULL REFERENCES toolstring_runs(run_id) ON DELETE CASCADE,
	position  INTEGER NOT NULL,
	tool_name TEXT NOT NULL,
	od        REAL NOT NULL,
	neck_od   REAL NOT NULL DEFAULT 0,
	length    REAL NOT NULL,
	category  TEXT NOT NULL,
	PRIMARY KEY (run_id, position)
);`

// Store is a SQLite-backed record store.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (creating if necessary) the SQLite database at path and
// ensures the schema exists.
func Open(path string) (*Store, error) {
	if path == "" {
		path = "welltegra.db"
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("sqlite: create dirs: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %q: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: create schema: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }

// Import replaces the store contents with the given dataset in one
// transaction.
func (s *Store) Import(ctx context.Context, ds dataset.Dataset) (retErr error) {
	runs, placements := ds.Split()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin import: %w", err)
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()

	for _, stmt := range []string{`DELETE FROM toolstring_tools`, `DELETE FROM toolstring_runs`} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("sqlite: clear tables: %w", err)
		}
	}
	for _, r := range runs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO toolstring_runs (run_id, run_name, well_name, run_date, outcome) VALUES (?, ?, ?, ?, ?)`,
			r.ID, r.Name, r.WellName, r.RunDate, r.Outcome); err != nil {
			return fmt.Errorf("sqlite: insert run %q: %w", r.ID, err)
		}
	}
	for _, p := range placements {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO toolstring_tools (run_id, position, tool_name, od, neck_od, length, category) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			p.RunID, p.Position, p.ToolName, p.OD, p.NeckOD, p.Length, string(p.Category)); err != nil {
			return fmt.Errorf("sqlite: insert tool %q in run %q: %w", p.ToolName, p.RunID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit import: %w", err)
	}
	return nil
}

// FetchRuns returns all run rows.
func (s *Store) FetchRuns(ctx context.Context) ([]toolstring.Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, run_name, well_name, run_date, outcome FROM toolstring_runs ORDER BY run_id`)
	if err != nil {
		return nil, unavailable("query runs", err)
	}
	defer rows.Close()

	var out []toolstring.Run
	for rows.Next() {
		var r toolstring.Run
		if err := rows.Scan(&r.ID, &r.Name, &r.WellName, &r.RunDate, &r.Outcome); err != nil {
			return nil, unavailable("scan run", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("iterate runs", err)
	}
	return out, nil
}

// FetchRun returns the run row with the given id, if present.
func (s *Store) FetchRun(ctx context.Context, id string) (toolstring.Run, bool, error) {
	var r toolstring.Run
	err := s.db.QueryRowContext(ctx,
		`SELECT run_id, run_name, well_name, run_date, outcome FROM toolstring_runs WHERE run_id = ?`, id).
		Scan(&r.ID, &r.Name, &r.WellName, &r.RunDate, &r.Outcome)
	if errors.Is(err, sql.ErrNoRows) {
		return toolstring.Run{}, false, nil
	}
	if err != nil {
		return toolstring.Run{}, false, unavailable("query run", err)
	}
	return r, true, nil
}

// FetchPlacements returns placement rows for the given run, or for all runs
// when runID is empty.
func (s *Store) FetchPlacements(ctx context.Context, runID string) ([]toolstring.Placement, error) {
	const base = `SELECT run_id, position, tool_name, od, neck_od, length, category FROM toolstring_tools`
	var (
		rows *sql.Rows
		err  error
	)
	if runID == "" {
		rows, err = s.db.QueryContext(ctx, base+` ORDER BY run_id, position`)
	} else {
		rows, err = s.db.QueryContext(ctx, base+` WHERE run_id = ? ORDER BY position`, runID)
	}
	if err != nil {
		return nil, unavailable("query tools", err)
	}
	defer rows.Close()

	var out []toolstring.Placement
	for rows.Next() {
		var (
			p   toolstring.Placement
			cat string
		)
		if err := rows.Scan(&p.RunID, &p.Position, &p.ToolName, &p.OD, &p.NeckOD, &p.Length, &cat); err != nil {
			return nil, unavailable("scan tool", err)
		}
		p.Category = toolstring.NormalizeCategory(cat)
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("iterate tools", err)
	}
	return out, nil
}

// CountRuns returns the number of run rows.
func (s *Store) CountRuns(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM toolstring_runs`).Scan(&n); err != nil {
		return 0, unavailable("count runs", err)
	}
	return n, nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return unavailable("ping", err)
	}
	return nil
}

// unavailable classifies a driver failure as a store-unavailable error
// while keeping the underlying cause in the chain.
func unavailable(op string, err error) error {
	return fmt.Errorf("sqlite: %s: %w", op, errors.Join(toolstring.ErrUnavailable, err))
}
