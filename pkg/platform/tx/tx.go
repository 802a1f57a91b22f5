// Package tx defines the unit-of-work boundary shared by services and stores.
//
// Services call Runner.RunInTx around every mutation. Postgres stores pick the
// active pgx transaction out of the context; in-memory stores are serialized by
// MemoryRunner and rolled back from snapshots when the unit of work fails.
package tx

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	dErrors "contractpay/pkg/domain-errors"
)

// DefaultTimeout bounds a unit of work when the caller set no deadline.
const DefaultTimeout = 5 * time.Second

// Runner executes fn as one atomic unit of work.
type Runner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type (
	pgxTxKey  struct{}
	activeKey struct{}
)

// WithTx stores a pgx transaction in context for downstream store usage.
func WithTx(ctx context.Context, t pgx.Tx) context.Context {
	if t == nil {
		return ctx
	}
	return context.WithValue(MarkActive(ctx), pgxTxKey{}, t)
}

// From extracts a pgx transaction from context if present.
func From(ctx context.Context) (pgx.Tx, bool) {
	t, ok := ctx.Value(pgxTxKey{}).(pgx.Tx)
	return t, ok
}

// MarkActive flags ctx as already running inside a unit of work so nested
// RunInTx calls join it instead of opening another.
func MarkActive(ctx context.Context) context.Context {
	return context.WithValue(ctx, activeKey{}, true)
}

// Active reports whether ctx is inside a unit of work.
func Active(ctx context.Context) bool {
	v, _ := ctx.Value(activeKey{}).(bool)
	return v
}

// WithDeadline applies the default timeout when ctx carries no deadline.
func WithDeadline(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

// Snapshotter is implemented by in-memory stores taking part in a
// MemoryRunner unit of work. Snapshot captures current state and returns a
// function that restores it.
type Snapshotter interface {
	Snapshot() (restore func())
}

// MemoryRunner serializes units of work behind one lock and restores every
// registered store when fn fails.
type MemoryRunner struct {
	mu      sync.Mutex
	stores  []Snapshotter
	timeout time.Duration
}

// NewMemoryRunner builds a runner over the given stores.
func NewMemoryRunner(stores ...Snapshotter) *MemoryRunner {
	return &MemoryRunner{stores: stores, timeout: DefaultTimeout}
}

// Register adds stores after construction.
func (r *MemoryRunner) Register(stores ...Snapshotter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stores = append(r.stores, stores...)
}

func (r *MemoryRunner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if Active(ctx) {
		return fn(ctx)
	}
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	ctx, cancel := WithDeadline(ctx, r.timeout)
	defer cancel()

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	restores := make([]func(), 0, len(r.stores))
	for _, s := range r.stores {
		restores = append(restores, s.Snapshot())
	}
	if err := fn(MarkActive(ctx)); err != nil {
		for i := len(restores) - 1; i >= 0; i-- {
			restores[i]()
		}
		return err
	}
	return nil
}

// Querier is the pgx surface stores run statements against. pgxpool.Pool,
// pgx.Tx and pgxmock pools all satisfy it.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Execer returns the transaction carried by ctx, or pool when there is none.
func Execer(ctx context.Context, pool Querier) Querier {
	if t, ok := From(ctx); ok {
		return t
	}
	return pool
}
