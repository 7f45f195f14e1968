package main

import (
	"context"
	"fmt"
	"time"

	"github.com/niklvrr/dotbounty/internal/app"
	"github.com/spf13/cobra"
)

var (
	sweepBatchSize  int
	sweepStaleAfter time.Duration
)

// newSweepCmd запускает один прогон sweep'а и завершается. Подходит для
// внешнего планировщика (cron, k8s CronJob) вместо HTTP маршрутов /cron.
func newSweepCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Run a reconciliation sweep once",
	}

	payouts := &cobra.Command{
		Use:   "payouts",
		Short: "Settle the oldest pending payouts",
		RunE: runSweep(func(ctx context.Context, a *app.App, batch int, _ time.Duration) (string, error) {
			s, err := a.Sweeps.ProcessPendingPayouts(ctx, batch)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("found=%d completed=%d failed=%d skipped=%d", s.Found, s.Completed, s.Failed, s.Skipped), nil
		}),
	}
	payouts.Flags().IntVar(&sweepBatchSize, "batch", 0, "payouts per run (default CRON_PAYOUT_BATCH_SIZE)")

	stale := &cobra.Command{
		Use:   "stale-tasks",
		Short: "Report open tasks older than the threshold",
		RunE: runSweep(func(ctx context.Context, a *app.App, _ int, olderThan time.Duration) (string, error) {
			r, err := a.Sweeps.CheckStaleTasks(ctx, olderThan)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("stale=%d threshold=%s", len(r.Tasks), r.Threshold), nil
		}),
	}
	stale.Flags().DurationVar(&sweepStaleAfter, "older-than", 0, "age threshold (default CRON_STALE_AFTER)")

	gh := &cobra.Command{
		Use:   "github",
		Short: "Refresh repository stats of active projects",
		RunE: runSweep(func(ctx context.Context, a *app.App, _ int, _ time.Duration) (string, error) {
			s, err := a.Sweeps.SyncGitHubData(ctx)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("projects=%d synced=%d failed=%d", s.Projects, s.Synced, s.Failed), nil
		}),
	}

	cmd.AddCommand(payouts, stale, gh)
	return cmd
}

type sweepFunc func(ctx context.Context, a *app.App, batch int, olderThan time.Duration) (string, error)

func runSweep(run sweepFunc) func(cmd *cobra.Command, _ []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		cfg, log, err := bootstrap()
		if err != nil {
			return err
		}
		defer log.Sync()

		a, err := app.New(cmd.Context(), cfg, log)
		if err != nil {
			return err
		}
		defer a.Close()

		batch := sweepBatchSize
		if batch <= 0 {
			batch = cfg.Cron.PayoutBatchSize
		}
		olderThan := sweepStaleAfter
		if olderThan <= 0 {
			olderThan = cfg.Cron.StaleAfter
		}

		summary, err := run(cmd.Context(), a, batch, olderThan)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), summary)
		return nil
	}
}
