package main

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"contractpay/internal/platform/config"
	platformlogger "contractpay/internal/platform/logger"
)

var (
	cfg    *config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:          "contractpay",
	Short:        "Contractor compliance and payment workflow service",
	Long:         "Time-log approval, escrow funding, payroll batches and the compliance event log behind one HTTP API.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Real environment variables win over .env entries.
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return eris.Wrap(err, "load .env")
		}
		c, err := config.Load()
		if err != nil {
			return err
		}
		cfg = c
		logger = platformlogger.New(cfg.Log)
		slog.SetDefault(logger)
		return nil
	},
}

func main() {
	rootCmd.AddCommand(serveCmd, migrateCmd, relayCmd, tokenCmd)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
