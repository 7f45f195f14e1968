package main

import (
	"github.com/niklvrr/dotbounty/internal/infrastructure/db"
	"github.com/spf13/cobra"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := bootstrap()
			if err != nil {
				return err
			}
			defer log.Sync()

			if err := db.RunMigrations(cfg.Database.URL, cfg.MigrationsPath, log); err != nil {
				return err
			}
			log.Info("migrations applied")
			return nil
		},
	}
}
