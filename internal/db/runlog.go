//-------------------------------------------------------------------------
//
// pgEdge BikeStore Loader
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pgEdge/bikestore-loader/internal/logging"
	"github.com/pgEdge/bikestore-loader/pkg/version"
)

const runLogTable = "load_runs"

// createRunLogTableSQL creates the run log table if it doesn't exist.
const createRunLogTableSQL = `
CREATE TABLE IF NOT EXISTS load_runs (
    run_id        UUID PRIMARY KEY,
    version       TEXT NOT NULL,
    source        TEXT NOT NULL,
    started_at    TIMESTAMPTZ NOT NULL,
    finished_at   TIMESTAMPTZ,
    status        TEXT NOT NULL,
    tables_loaded INT NOT NULL DEFAULT 0,
    rows_loaded   BIGINT NOT NULL DEFAULT 0,
    error         TEXT
)`

// Run status values stored in load_runs.status.
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// LoadRun is one row of the load run log.
type LoadRun struct {
	RunID        uuid.UUID
	Version      string
	Source       string
	StartedAt    time.Time
	FinishedAt   *time.Time
	Status       string
	TablesLoaded int
	RowsLoaded   int64
	Error        string
}

// StartRun records the beginning of a load run and returns its id.
func StartRun(ctx context.Context, db DB, source string) (uuid.UUID, error) {
	if _, err := db.Exec(ctx, createRunLogTableSQL); err != nil {
		return uuid.Nil, fmt.Errorf("failed to create run log table: %w", err)
	}

	id := uuid.New()
	_, err := db.Exec(ctx, `
        INSERT INTO load_runs (run_id, version, source, started_at, status)
        VALUES ($1, $2, $3, $4, $5)
    `, id, version.Short(), source, time.Now().UTC(), RunStatusRunning)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to record run start: %w", err)
	}

	logging.Debug().
		Str("run_id", id.String()).
		Str("source", source).
		Msg("Recorded run start")

	return id, nil
}

// FinishRun completes a load run record with its outcome.
func FinishRun(ctx context.Context, db DB, id uuid.UUID, status string, tablesLoaded int, rowsLoaded int64, runErr error) error {
	errText := ""
	if runErr != nil {
		errText = runErr.Error()
	}

	_, err := db.Exec(ctx, `
        UPDATE load_runs
        SET finished_at = $2, status = $3, tables_loaded = $4,
            rows_loaded = $5, error = NULLIF($6, '')
        WHERE run_id = $1
    `, id, time.Now().UTC(), status, tablesLoaded, rowsLoaded, errText)
	if err != nil {
		return fmt.Errorf("failed to record run finish: %w", err)
	}

	logging.Debug().
		Str("run_id", id.String()).
		Str("status", status).
		Int64("rows_loaded", rowsLoaded).
		Msg("Recorded run finish")

	return nil
}

// LatestRun returns the most recent load run, or nil if none exist.
func LatestRun(ctx context.Context, db DB) (*LoadRun, error) {
	exists, err := RunLogExists(ctx, db)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, nil
	}

	rows, err := RunHistory(ctx, db, 1)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

// RunHistory returns up to limit load runs, most recent first.
func RunHistory(ctx context.Context, db DB, limit int) ([]LoadRun, error) {
	rows, err := db.Query(ctx, `
        SELECT run_id, version, source, started_at, finished_at, status,
               tables_loaded, rows_loaded, COALESCE(error, '')
        FROM load_runs
        ORDER BY started_at DESC
        LIMIT $1
    `, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []LoadRun
	for rows.Next() {
		var r LoadRun
		err := rows.Scan(&r.RunID, &r.Version, &r.Source, &r.StartedAt,
			&r.FinishedAt, &r.Status, &r.TablesLoaded, &r.RowsLoaded, &r.Error)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}

	return runs, rows.Err()
}

// DropRunLog drops the run log table.
func DropRunLog(ctx context.Context, db DB) error {
	_, err := db.Exec(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", runLogTable))
	return err
}

// RunLogExists checks if the run log table exists.
func RunLogExists(ctx context.Context, db DB) (bool, error) {
	var exists bool
	err := db.QueryRow(ctx, `
        SELECT EXISTS (
            SELECT FROM information_schema.tables
            WHERE table_name = $1
        )
    `, runLogTable).Scan(&exists)
	return exists, err
}
