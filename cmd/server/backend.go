package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	escrowservice "contractpay/internal/escrow/service"
	escrowmemory "contractpay/internal/escrow/store/memory"
	escrowpostgres "contractpay/internal/escrow/store/postgres"
	"contractpay/internal/identity"
	idmemory "contractpay/internal/identity/store/memory"
	idpostgres "contractpay/internal/identity/store/postgres"
	payrollservice "contractpay/internal/payroll/service"
	payrollmemory "contractpay/internal/payroll/store/memory"
	payrollpostgres "contractpay/internal/payroll/store/postgres"
	"contractpay/internal/platform/config"
	"contractpay/internal/platform/postgres"
	timelogservice "contractpay/internal/timelog/service"
	timelogmemory "contractpay/internal/timelog/store/memory"
	timelogpostgres "contractpay/internal/timelog/store/postgres"
	"contractpay/pkg/platform/audit"
	auditmemory "contractpay/pkg/platform/audit/store/memory"
	auditpostgres "contractpay/pkg/platform/audit/store/postgres"
	"contractpay/pkg/platform/tx"
)

// eventStore is the compliance log plus its relay outbox.
type eventStore interface {
	audit.Store
	audit.Outbox
}

// backend is one consistent set of stores sharing a unit-of-work runner.
type backend struct {
	runner    tx.Runner
	directory identity.Directory
	timelogs  timelogservice.Store
	escrow    escrowservice.Store
	payouts   payrollservice.Store
	events    eventStore
	pool      *pgxpool.Pool
}

func (b *backend) Close() {
	if b.pool != nil {
		b.pool.Close()
	}
}

// openBackend connects Postgres when a database URL is configured and falls
// back to seeded in-memory stores otherwise.
func openBackend(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*backend, error) {
	if cfg.InMemory() {
		logger.Warn("no database url configured, running on in-memory stores with demo data")
		return memoryBackend()
	}
	pool, err := postgres.Open(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	return &backend{
		runner:    postgres.NewTxRunner(pool, cfg.Database.TxTimeout),
		directory: idpostgres.NewDirectory(pool),
		timelogs:  timelogpostgres.New(pool),
		escrow:    escrowpostgres.New(pool),
		payouts:   payrollpostgres.New(pool),
		events:    auditpostgres.New(pool),
		pool:      pool,
	}, nil
}

func memoryBackend() (*backend, error) {
	directory := idmemory.NewDirectory()
	directory.SeedDemo()

	timelogs := timelogmemory.New()
	escrow := escrowmemory.New()
	payouts := payrollmemory.New()
	events := auditmemory.NewInMemoryStore()
	today := time.Now().UTC().Truncate(24 * time.Hour)
	if err := payouts.SeedDemo(idmemory.DemoTalentID, idmemory.DemoContractID, today); err != nil {
		return nil, err
	}

	return &backend{
		runner:    tx.NewMemoryRunner(timelogs, escrow, payouts, events),
		directory: directory,
		timelogs:  timelogs,
		escrow:    escrow,
		payouts:   payouts,
		events:    events,
	}, nil
}
