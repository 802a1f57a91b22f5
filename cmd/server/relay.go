package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"contractpay/internal/compliance/relay"
	"contractpay/internal/platform/kafka"
)

var relayOnce bool

var relayCmd = &cobra.Command{
	Use:   "relay",
	Short: "Deliver unpublished compliance events to Kafka",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.InMemory() {
			return eris.New("relay needs a database url; in-memory events live inside the serve process")
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		b, err := openBackend(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer b.Close()
		return runRelay(ctx, b, relayOnce)
	},
}

func init() {
	relayCmd.Flags().BoolVar(&relayOnce, "once", false, "drain the outbox once and exit")
}

// runRelay drains b's outbox into the compliance topic. Unless once is set it
// keeps running, woken by Postgres notifications and the sweep schedule.
func runRelay(ctx context.Context, b *backend, once bool) error {
	client, err := kafka.NewClient(cfg.Kafka)
	if err != nil {
		return err
	}
	if client == nil {
		return eris.New("relay needs kafka.brokers")
	}
	defer client.Close()
	if err := kafka.EnsureTopic(ctx, client, cfg.Kafka); err != nil {
		return err
	}

	r := relay.New(b.events, b.runner, relay.NewKafkaSink(client, cfg.Kafka.Topic),
		relay.WithBatchSize(cfg.Relay.BatchSize),
		relay.WithLogger(logger),
		relay.WithMetrics(relay.NewMetrics()),
	)
	if once {
		n, err := r.Drain(ctx)
		logger.Info("compliance outbox drained", "published", n)
		return err
	}

	waker := relay.NewWaker()
	stopSweep, err := relay.Schedule(cfg.Relay.Sweep, waker)
	if err != nil {
		return err
	}
	defer stopSweep()
	if !cfg.InMemory() {
		if err := relay.Listen(ctx, cfg.Database.URL, cfg.Relay.Channel, waker, logger); err != nil {
			return err
		}
	}
	logger.Info("compliance relay started", "topic", cfg.Kafka.Topic, "sweep", cfg.Relay.Sweep)
	return r.Run(ctx, waker.C())
}
