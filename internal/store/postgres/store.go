// Package postgres provides a Postgres-backed record store that mirrors the
// SQLite store's contract, for deployments where the historical tables live
// in a shared warehouse database.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver

	"github.com/welltegra/welltegra-api/internal/dataset"
	"github.com/welltegra/welltegra-api/internal/toolstring"
)

// Compile-time contract assertion.
var _ toolstring.Store = (*Store)(nil)

const (
	driverName = "pgx"

	// defaultDSN keeps local development working without configuration;
	// production deployments override via store.postgres_dsn_env.
	defaultDSN = "postgres://localhost/welltegra?sslmode=disable"
)

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
	od        DOUBLE PRECISION NOT NULL,
	neck_od   DOUBLE PRECISION NOT NULL DEFAULT 0,
	length    DOUBLE PRECISION NOT NULL,
	category  TEXT NOT NULL,
	PRIMARY KEY (run_id, position)
);`

// Store is a Postgres-backed record store.
type Store struct {
	db *sql.DB
}

// Open connects to Postgres using the provided DSN (falling back to a local
// default), verifies connectivity, and ensures the schema exists.
func Open(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		dsn = defaultDSN
	}
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres: ping: %w", errors.Join(toolstring.ErrUnavailable, err))
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres: create schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the connection pool.
func (s *Store) Close() error { return s.db.Close() }

// Import replaces the store contents with the given dataset in one
// transaction.
func (s *Store) Import(ctx context.Context, ds dataset.Dataset) (retErr error) {
	runs, placements := ds.Split()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("postgres: begin import: %w", err)
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()

	for _, stmt := range []string{`DELETE FROM toolstring_tools`, `DELETE FROM toolstring_runs`} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("postgres: clear tables: %w", err)
		}
	}
	for _, r := range runs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO toolstring_runs (run_id, run_name, well_name, run_date, outcome) VALUES ($1, $2, $3, $4, $5)`,
			r.ID, r.Name, r.WellName, r.RunDate, r.Outcome); err != nil {
			return fmt.Errorf("postgres: insert run %q: %w", r.ID, err)
		}
	}
	for _, p := range placements {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO toolstring_tools (run_id, position, tool_name, od, neck_od, length, category) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			p.RunID, p.Position, p.ToolName, p.OD, p.NeckOD, p.Length, string(p.Category)); err != nil {
			return fmt.Errorf("postgres: insert tool %q in run %q: %w", p.ToolName, p.RunID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("postgres: commit import: %w", err)
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
		`SELECT run_id, run_name, well_name, run_date, outcome FROM toolstring_runs WHERE run_id = $1`, id).
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
		rows, err = s.db.QueryContext(ctx, base+` WHERE run_id = $1 ORDER BY position`, runID)
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

func unavailable(op string, err error) error {
	return fmt.Errorf("postgres: %s: %w", op, errors.Join(toolstring.ErrUnavailable, err))
}
