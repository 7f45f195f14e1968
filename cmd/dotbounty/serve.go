package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/niklvrr/dotbounty/internal/app"
	"github.com/niklvrr/dotbounty/internal/transport"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const shutdownTimeout = 15 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API (and the in-process scheduler when enabled)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := bootstrap()
			if err != nil {
				return err
			}
			defer log.Sync()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := app.New(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer a.Close()

			sched, err := a.Scheduler()
			if err != nil {
				return err
			}
			if sched != nil {
				sched.Start()
				defer func() {
					if err := sched.Stop(); err != nil {
						log.Error("scheduler stop failed", zap.Error(err))
					}
				}()
			}

			server := transport.NewServer(cfg.App.Port, a.Router(), log)
			errCh := make(chan error, 1)
			go func() {
				errCh <- server.Start()
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			log.Info("server stopped")
			return nil
		},
	}
}
