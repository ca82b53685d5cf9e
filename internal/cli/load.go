package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/pgEdge/bikestore-loader/internal/db"
	"github.com/pgEdge/bikestore-loader/internal/loader"
	"github.com/pgEdge/bikestore-loader/internal/logging"
	"github.com/pgEdge/bikestore-loader/internal/schema"
	"github.com/pgEdge/bikestore-loader/internal/source"
)

var (
	loadBatchSize    int
	loadWorkers      int
	loadMaxRowErrors int
	loadTruncate     bool
)

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Load the CSV dataset into an initialized database",
	Long: `Load the CSV dataset from the data directory into a database that was
previously initialized with the 'init' command. Tables load in dependency
order; name references between files are resolved as they stream in, and
the load finishes with a referential integrity check.

A load expects empty tables. Re-running on top of loaded data would fail
on duplicate keys, so pass --truncate to clear the data tables first.

Example:
  bikestore-loader load --data ./data --connection "postgres://..."
  bikestore-loader load --data ./data --truncate --workers 8`,
	RunE: runLoad,
}

func init() {
	loadCmd.Flags().IntVar(&loadBatchSize, "batch-size", 0,
		"rows per insert batch")
	loadCmd.Flags().IntVar(&loadWorkers, "workers", 0,
		"concurrent insert workers per table")
	loadCmd.Flags().IntVar(&loadMaxRowErrors, "max-row-errors", 0,
		"row errors reported per stage before truncating the report")
	loadCmd.Flags().BoolVar(&loadTruncate, "truncate", false,
		"truncate data tables before loading")
}

func runLoad(cmd *cobra.Command, args []string) error {
	// Override config with CLI flags
	if loadBatchSize > 0 {
		cfg.Load.BatchSize = loadBatchSize
	}
	if loadWorkers > 0 {
		cfg.Load.Workers = loadWorkers
	}
	if loadMaxRowErrors > 0 {
		cfg.Load.MaxRowErrors = loadMaxRowErrors
	}
	if loadTruncate {
		cfg.Load.Truncate = true
	}

	// Validate configuration
	if err := cfg.ValidateLoad(); err != nil {
		return err
	}

	ds, err := source.ReadDir(cfg.DataDir)
	if err != nil {
		return err
	}
	logging.Info().
		Str("dir", cfg.DataDir).
		Int("rows", ds.Rows()).
		Msg("Dataset read")

	// Set up context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		logging.Info().
			Str("signal", sig.String()).
			Msg("Received shutdown signal")
		cancel()
	}()

	// Size the pool for the insert workers plus a control connection.
	pool, err := db.ConnectWithMaxConns(ctx, cfg.Connection, int32(cfg.Load.Workers)+1)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	if cfg.Load.Truncate {
		logging.Info().Msg("Truncating data tables")
		if err := schema.TruncateData(ctx, pool); err != nil {
			return fmt.Errorf("failed to truncate tables: %w", err)
		}
	}

	ldr := loader.New(pool, loader.Config{
		BatchSize:        cfg.Load.BatchSize,
		Workers:          cfg.Load.Workers,
		MaxRowErrors:     cfg.Load.MaxRowErrors,
		ProgressInterval: loader.DefaultConfig().ProgressInterval,
	})

	res, err := ldr.Run(ctx, ds)
	if err != nil {
		reportLoadError(cmd, err)
		return err
	}

	cmd.Printf("Loaded %d rows into %d tables in %s (run %s)\n",
		res.RowsLoaded, res.TablesLoaded, res.Elapsed.Round(time.Millisecond), res.RunID)
	return nil
}

// reportLoadError prints per-row detail for data errors. Infrastructure
// errors carry no row detail and are left to the normal error path.
func reportLoadError(cmd *cobra.Command, err error) {
	var stageErr *loader.StageError
	if errors.As(err, &stageErr) {
		for _, row := range stageErr.Rows {
			cmd.PrintErrf("  %s\n", row.Error())
		}
		if stageErr.Truncated > 0 {
			cmd.PrintErrf("  ... and %d more\n", stageErr.Truncated)
		}
		return
	}

	var valErr *loader.ValidationError
	if errors.As(err, &valErr) {
		for _, v := range valErr.Violations {
			cmd.PrintErrf("  %s\n", v.String())
		}
	}
}
