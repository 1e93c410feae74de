package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"ledgerdoc/internal/config"
	"ledgerdoc/internal/logger"
	"ledgerdoc/internal/money"
	"ledgerdoc/internal/rollup"
	"ledgerdoc/internal/store"
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile [record-id...]",
	Short: "Bring stored net profits up to date",
	Long: `Recompute the net profit of each record from its line items, additional costs
and client, and write it back when the stored value differs after rounding to
two decimals. Records that are already correct are not written.

With --all every record of the fixture store is reconciled.`,
	Example: `  # Reconcile two records
  ledgerdoc reconcile po-1001 inv-2002

  # Show what would change without writing
  ledgerdoc reconcile po-1001 --dry-run

  # Reconcile every fixture record
  ledgerdoc reconcile --all`,
	RunE: runReconcile,
}

func init() {
	rootCmd.AddCommand(reconcileCmd)

	reconcileCmd.Flags().Bool("dry-run", false, "Report drifted net profits but don't write them")
	reconcileCmd.Flags().Bool("all", false, "Reconcile every record (fixture store only)")
	reconcileCmd.Flags().Int("timeout", 60, "Timeout in seconds")
}

func runReconcile(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("reconcile")

	dryRun, _ := cmd.Flags().GetBool("dry-run")
	all, _ := cmd.Flags().GetBool("all")
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")

	if timeoutSecs <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if !all && len(args) == 0 {
		return fmt.Errorf("at least one record id is required (or --all)")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, cancel := createContextWithTimeout(timeoutSecs, log)
	defer cancel()

	b, err := openBackend(ctx, cfg, log)
	if err != nil {
		return handleStoreError(err, log)
	}
	defer func() {
		if err := b.close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close record store")
		}
	}()

	ids := args
	if all {
		lister, ok := b.records.(interface{ RecordIDs() []string })
		if !ok {
			return fmt.Errorf("--all is only supported with STORE_BACKEND=%s", config.BackendFixture)
		}
		ids = lister.RecordIDs()
	}

	reconciler := rollup.NewReconciler(b.records, b.clients)
	reconciler.DryRun = dryRun

	log.Info().
		Int("records", len(ids)).
		Bool("dry_run", dryRun).
		Msg("Starting net profit reconciliation")

	var updated, unchanged, failed int
	for _, id := range ids {
		changed, err := reconcileOne(ctx, reconciler, id, dryRun)
		switch {
		case err != nil:
			failed++
			log.Error().Err(err).Str("record_id", id).Msg("Reconciliation failed")
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return fmt.Errorf("reconciliation was interrupted: %w", err)
			}
		case changed:
			updated++
		default:
			unchanged++
		}
	}

	log.Info().
		Int("updated", updated).
		Int("unchanged", unchanged).
		Int("failed", failed).
		Msg("Net profit reconciliation completed")

	if failed > 0 {
		return fmt.Errorf("%d of %d records could not be reconciled", failed, len(ids))
	}
	return nil
}

func reconcileOne(ctx context.Context, reconciler *rollup.Reconciler, id string, dryRun bool) (bool, error) {
	record, changed, err := reconciler.Reconcile(ctx, id)
	if err != nil && record == nil {
		if errors.Is(err, store.ErrNotFound) {
			fmt.Printf("%s: not found\n", id)
		}
		return false, err
	}

	after := money.FormatAmount(record.NetProfit, record.Currency)
	switch {
	case err != nil:
		fmt.Printf("%s: net profit %s (not saved: %v)\n", id, after, err)
	case changed && dryRun:
		fmt.Printf("%s: net profit would change to %s\n", id, after)
	case changed:
		fmt.Printf("%s: net profit updated to %s\n", id, after)
	default:
		fmt.Printf("%s: net profit %s is up to date\n", id, after)
	}
	return changed, err
}
