// Package postgres owns the pgx pool, the transaction runner and schema
// migrations shared by every Postgres-backed store.
package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"contractpay/internal/platform/config"
	dErrors "contractpay/pkg/domain-errors"
	"contractpay/pkg/platform/tx"
)

// Pool is the pgx surface the service needs. *pgxpool.Pool and pgxmock pools
// satisfy it.
type Pool interface {
	tx.Querier
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Open connects a pool and verifies it with a ping.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	pcfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse database url")
	}
	if cfg.MaxConns > 0 {
		pcfg.MaxConns = cfg.MaxConns
	}
	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return pool, nil
}

// TxRunner implements tx.Runner with a pgx transaction carried in the context.
type TxRunner struct {
	pool    Pool
	timeout time.Duration
}

// NewTxRunner builds a runner. A zero timeout uses tx.DefaultTimeout.
func NewTxRunner(pool Pool, timeout time.Duration) *TxRunner {
	return &TxRunner{pool: pool, timeout: timeout}
}

func (r *TxRunner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if tx.Active(ctx) {
		return fn(ctx)
	}
	ctx, cancel := tx.WithDeadline(ctx, r.timeout)
	defer cancel()

	pgxTx, err := r.pool.Begin(ctx)
	if err != nil {
		return translateTxErr(ctx, eris.Wrap(err, "postgres: begin transaction"), "failed to begin transaction")
	}
	if err := fn(tx.WithTx(ctx, pgxTx)); err != nil {
		// The original error matters more than a rollback failure on a
		// connection that is likely already broken.
		_ = pgxTx.Rollback(context.WithoutCancel(ctx))
		return err
	}
	if err := pgxTx.Commit(ctx); err != nil {
		return translateTxErr(ctx, eris.Wrap(err, "postgres: commit transaction"), "failed to commit transaction")
	}
	return nil
}

func translateTxErr(ctx context.Context, err error, msg string) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction timed out")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, msg)
}
