//-------------------------------------------------------------------------
//
// pgEdge BikeStore Loader
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package loader

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/jackc/pgx/v5"

	"github.com/pgEdge/bikestore-loader/internal/logging"
)

// rowArgs carries one row's statement arguments together with the
// source line it came from, so a database rejection can be reported
// against the right CSV row.
type rowArgs struct {
	line int
	args []any
}

// insertTable loads one table's rows and updates the run counters.
// Row errors come back to the caller; only infrastructure failures
// are returned as errors.
func (l *Loader) insertTable(ctx context.Context, table, sql string, rows []rowArgs) ([]RowError, error) {
	inserted, rowErrs, err := l.insertRows(ctx, table, sql, rows)
	if err != nil {
		return nil, err
	}

	l.rowsLoaded += inserted
	if len(rowErrs) > 0 {
		return rowErrs, nil
	}

	l.tablesLoaded++
	logging.Debug().
		Str("table", table).
		Int64("rows", inserted).
		Msg("Table loaded")
	return nil, nil
}

// insertRows runs one statement per row through a pool of workers,
// each sending batches of BatchSize statements. Feeding stops once
// collected row errors pass MaxRowErrors or a worker hits an
// infrastructure failure.
func (l *Loader) insertRows(ctx context.Context, table, sql string, rows []rowArgs) (int64, []RowError, error) {
	if len(rows) == 0 {
		return 0, nil, nil
	}

	batchSize := l.cfg.BatchSize
	if batchSize < 1 {
		batchSize = 1
	}
	workers := l.cfg.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > (len(rows)+batchSize-1)/batchSize {
		workers = (len(rows) + batchSize - 1) / batchSize
	}

	batchCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	report := newProgress(table, int64(len(rows)), l.cfg.ProgressInterval)
	batches := make(chan []rowArgs)

	var (
		wg       sync.WaitGroup
		inserted atomic.Int64
		mu       sync.Mutex
		rowErrs  []RowError
		fatal    error
	)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for batch := range batches {
				n, batchErrs, err := l.sendBatch(batchCtx, table, sql, batch)
				inserted.Add(n)
				report.add(n)

				mu.Lock()
				rowErrs = append(rowErrs, batchErrs...)
				// Cancellation reaching a worker mid-batch is not a
				// failure of its own; the cause is already recorded.
				if err != nil && fatal == nil && !errors.Is(err, context.Canceled) {
					fatal = err
				}
				stop := fatal != nil ||
					(l.cfg.MaxRowErrors > 0 && len(rowErrs) > l.cfg.MaxRowErrors)
				mu.Unlock()

				if stop {
					cancel()
				}
			}
		}()
	}

feed:
	for start := 0; start < len(rows); start += batchSize {
		end := start + batchSize
		if end > len(rows) {
			end = len(rows)
		}
		select {
		case <-batchCtx.Done():
			break feed
		case batches <- rows[start:end]:
		}
	}
	close(batches)
	wg.Wait()

	if fatal == nil && ctx.Err() != nil {
		fatal = ctx.Err()
	}
	return inserted.Load(), rowErrs, fatal
}

// sendBatch queues one statement per row and sends them as a single
// batch. The batch runs in one implicit transaction, so the first
// rejected row takes the rest of its batch down with it and none of
// the batch's rows count as loaded.
func (l *Loader) sendBatch(ctx context.Context, table, sql string, rows []rowArgs) (int64, []RowError, error) {
	batch := &pgx.Batch{}
	for _, r := range rows {
		batch.Queue(sql, r.args...)
	}

	results := l.pool.SendBatch(ctx, batch)

	for i := range rows {
		if _, err := results.Exec(); err != nil {
			results.Close()
			reason, ok := classifyRowError(err)
			if !ok {
				return 0, nil, fmt.Errorf("failed to load %s: %w", table, err)
			}
			return 0, []RowError{{Table: table, Line: rows[i].line, Err: reason}}, nil
		}
	}

	if err := results.Close(); err != nil {
		return 0, nil, fmt.Errorf("failed to load %s: %w", table, err)
	}
	return int64(len(rows)), nil, nil
}

// insertReturningIDs inserts rows whose keys the database generates
// and returns the new ids in row order. It sends a single batch so
// ids come back aligned with the input; a rejected row fails the
// whole batch.
func (l *Loader) insertReturningIDs(ctx context.Context, table, sql string, rows []rowArgs) ([]int, []RowError, error) {
	if len(rows) == 0 {
		return nil, nil, nil
	}

	batch := &pgx.Batch{}
	for _, r := range rows {
		batch.Queue(sql, r.args...)
	}

	results := l.pool.SendBatch(ctx, batch)

	ids := make([]int, len(rows))
	for i := range rows {
		if err := results.QueryRow().Scan(&ids[i]); err != nil {
			results.Close()
			reason, ok := classifyRowError(err)
			if !ok {
				return nil, nil, fmt.Errorf("failed to load %s: %w", table, err)
			}
			return nil, []RowError{{Table: table, Line: rows[i].line, Err: reason}}, nil
		}
	}

	if err := results.Close(); err != nil {
		return nil, nil, fmt.Errorf("failed to load %s: %w", table, err)
	}

	l.rowsLoaded += int64(len(rows))
	l.tablesLoaded++
	logging.Debug().
		Str("table", table).
		Int("rows", len(rows)).
		Msg("Table loaded")
	return ids, nil, nil
}
