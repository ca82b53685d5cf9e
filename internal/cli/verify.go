package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pgEdge/bikestore-loader/internal/db"
	"github.com/pgEdge/bikestore-loader/internal/loader"
	"github.com/pgEdge/bikestore-loader/internal/logging"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check referential integrity of loaded data",
	Long: `Re-run the referential integrity checks against loaded data, and
cross-check the order details view against the raw order item rows.
The same checks run automatically at the end of every load.

Example:
  bikestore-loader verify --connection "postgres://..."`,
	RunE: runVerify,
}

func runVerify(cmd *cobra.Command, args []string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx := context.Background()
	conn, err := db.ConnectSingle(ctx, cfg.Connection, "verify")
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer conn.Close(ctx)

	violations, err := loader.ValidateReferences(ctx, conn)
	if err != nil {
		return err
	}
	for _, v := range violations {
		cmd.PrintErrf("  %s\n", v.String())
	}

	mismatches, err := loader.VerifyTotals(ctx, conn)
	if err != nil {
		return err
	}
	for _, m := range mismatches {
		cmd.PrintErrf("  %s: view total %.2f does not match raw total %.2f\n",
			m.Store, m.ViewTotal, m.RawTotal)
	}

	if len(violations) > 0 || len(mismatches) > 0 {
		return fmt.Errorf("verification failed: %d integrity violations, %d total mismatches",
			len(violations), len(mismatches))
	}

	logging.Info().Msg("Referential integrity and view totals verified")
	return nil
}
