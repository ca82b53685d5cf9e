package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pgEdge/bikestore-loader/internal/db"
	"github.com/pgEdge/bikestore-loader/internal/logging"
	"github.com/pgEdge/bikestore-loader/internal/schema"
)

var initDropExisting bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the bike store schema in the target database",
	Long: `Create the bike store tables, constraints and the order details view
in the target database. The schema must exist before 'load' can run.

Example:
  bikestore-loader init --connection "postgres://..."
  bikestore-loader init --drop-existing --connection "postgres://..."`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initDropExisting, "drop-existing", false,
		"drop existing tables before creating the schema")
}

func runInit(cmd *cobra.Command, args []string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.Connection)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	if initDropExisting {
		logging.Info().Msg("Dropping existing schema")
		if err := schema.DropSchema(ctx, pool); err != nil {
			return fmt.Errorf("failed to drop schema: %w", err)
		}
		if err := db.DropRunLog(ctx, pool); err != nil {
			logging.Debug().Err(err).Msg("No run log table to drop")
		}
	}

	logging.Info().Msg("Creating schema")
	if err := schema.CreateSchema(ctx, pool); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	logging.Info().
		Int("tables", len(schema.Tables())).
		Msg("Schema created")

	return nil
}
