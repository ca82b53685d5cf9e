package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/pgEdge/bikestore-loader/internal/datagen"
	"github.com/pgEdge/bikestore-loader/internal/db"
	"github.com/pgEdge/bikestore-loader/internal/schema"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show row counts, table sizes and the last load run",
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx := context.Background()
	conn, err := db.ConnectSingle(ctx, cfg.Connection, "status")
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer conn.Close(ctx)

	var found *string
	err = conn.QueryRow(ctx, "SELECT to_regclass('brands')::text").Scan(&found)
	if err != nil {
		return fmt.Errorf("failed to inspect schema: %w", err)
	}
	if found == nil {
		return fmt.Errorf("schema not found; run 'bikestore-loader init' first")
	}

	cmd.Printf("%-14s %12s %12s\n", "TABLE", "ROWS", "SIZE")
	var totalRows, totalBytes int64
	for _, table := range schema.Tables() {
		var rows, bytes int64
		if err := conn.QueryRow(ctx,
			fmt.Sprintf("SELECT COUNT(*) FROM %s", table)).Scan(&rows); err != nil {
			return fmt.Errorf("failed to count %s: %w", table, err)
		}
		if err := conn.QueryRow(ctx,
			"SELECT pg_total_relation_size($1::regclass)", table).Scan(&bytes); err != nil {
			return fmt.Errorf("failed to size %s: %w", table, err)
		}
		totalRows += rows
		totalBytes += bytes
		cmd.Printf("%-14s %12d %12s\n", table, rows, datagen.FormatSize(bytes))
	}
	cmd.Printf("%-14s %12d %12s\n", "total", totalRows, datagen.FormatSize(totalBytes))

	run, err := db.LatestRun(ctx, conn)
	if err != nil {
		return err
	}
	if run == nil {
		cmd.Println("\nNo load runs recorded.")
		return nil
	}

	cmd.Printf("\nLast run %s (version %s)\n", run.RunID, run.Version)
	cmd.Printf("  source:  %s\n", run.Source)
	cmd.Printf("  started: %s\n", run.StartedAt.Format("2006-01-02 15:04:05 MST"))
	if run.FinishedAt != nil {
		cmd.Printf("  elapsed: %s\n", run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond))
	}
	cmd.Printf("  status:  %s (%d tables, %d rows)\n",
		run.Status, run.TablesLoaded, run.RowsLoaded)
	if run.Error != "" {
		cmd.Printf("  error:   %s\n", run.Error)
	}
	return nil
}
