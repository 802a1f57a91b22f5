package main

import (
	"context"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"contractpay/internal/platform/postgres"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.InMemory() {
			return eris.New("migrate needs database.url (CONTRACTPAY_DATABASE_URL)")
		}
		pool, err := postgres.Open(cmd.Context(), cfg.Database)
		if err != nil {
			return err
		}
		defer pool.Close()
		return runMigrations(cmd.Context(), pool)
	},
}

func runMigrations(ctx context.Context, pool postgres.Pool) error {
	if err := postgres.Migrate(ctx, pool, logger); err != nil {
		return err
	}
	logger.InfoContext(ctx, "migrations applied")
	return nil
}
