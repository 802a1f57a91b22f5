package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"contractpay/internal/idempotency"
	"contractpay/internal/platform/httpserver"
	"contractpay/internal/platform/redis"
	"contractpay/internal/ratelimit"
)

var serveMigrate bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and, when Kafka is configured, the compliance relay",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return serve(ctx)
	},
}

func init() {
	serveCmd.Flags().BoolVar(&serveMigrate, "migrate", false, "apply pending migrations before serving")
}

func serve(ctx context.Context) error {
	b, err := openBackend(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer b.Close()

	checks := map[string]healthCheck{}
	if b.pool != nil {
		if serveMigrate {
			if err := runMigrations(ctx, b.pool); err != nil {
				return err
			}
		}
		checks["postgres"] = b.pool.Ping
	}

	var (
		idem   idempotency.Store = idempotency.NewMemoryStore()
		limits ratelimit.Store   = ratelimit.NewMemoryStore()
	)
	rdb, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	if rdb != nil {
		defer rdb.Close()
		idem = idempotency.NewRedisStore(rdb.Client)
		limits = ratelimit.NewRedisStore(rdb.Client)
		checks["redis"] = rdb.Health
	}

	router := newRouter(cfg, b, idem, limits, checks, logger)
	srv := httpserver.New(cfg.Server.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return httpserver.Run(gctx, srv, cfg.Server.ShutdownTimeout, logger)
	})
	if cfg.Relay.Enabled && len(cfg.Kafka.Brokers) > 0 {
		g.Go(func() error {
			return runRelay(gctx, b, false)
		})
	} else {
		logger.Info("compliance relay disabled", "kafka_brokers", len(cfg.Kafka.Brokers))
	}
	return g.Wait()
}
