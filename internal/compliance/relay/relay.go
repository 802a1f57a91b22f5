// Package relay delivers compliance events from the outbox to downstream
// consumers. Events are marked published only after the sink accepts them,
// so delivery is at least once.
package relay

import (
	"context"
	"log/slog"
	"time"

	id "contractpay/pkg/domain"
	"contractpay/pkg/platform/audit"
	"contractpay/pkg/platform/tx"
)

// Sink receives a batch of events in occurrence order.
type Sink interface {
	Publish(ctx context.Context, events []audit.ComplianceEvent) error
}

const defaultBatchSize = 100

// Relay drains the outbox into a Sink.
type Relay struct {
	outbox    audit.Outbox
	tx        tx.Runner
	sink      Sink
	batchSize int
	logger    *slog.Logger
	metrics   *Metrics
	now       func() time.Time
}

type Option func(*Relay)

func WithBatchSize(n int) Option {
	return func(r *Relay) {
		if n > 0 {
			r.batchSize = n
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(r *Relay) {
		r.logger = logger
	}
}

func WithMetrics(m *Metrics) Option {
	return func(r *Relay) {
		r.metrics = m
	}
}

func New(outbox audit.Outbox, runner tx.Runner, sink Sink, opts ...Option) *Relay {
	r := &Relay{
		outbox:    outbox,
		tx:        runner,
		sink:      sink,
		batchSize: defaultBatchSize,
		logger:    slog.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Drain publishes batches until the outbox is empty and returns how many
// events were delivered. A sink failure stops the drain and leaves the
// failed batch unpublished.
func (r *Relay) Drain(ctx context.Context) (int, error) {
	total := 0
	for {
		n, err := r.publishBatch(ctx)
		total += n
		if err != nil {
			r.metrics.incFailure()
			return total, err
		}
		if n < r.batchSize {
			return total, nil
		}
	}
}

func (r *Relay) publishBatch(ctx context.Context) (int, error) {
	var published int
	err := r.tx.RunInTx(ctx, func(ctx context.Context) error {
		events, err := r.outbox.Unpublished(ctx, r.batchSize)
		if err != nil {
			return err
		}
		if len(events) == 0 {
			return nil
		}
		if err := r.sink.Publish(ctx, events); err != nil {
			return err
		}
		ids := make([]id.EventID, len(events))
		for i, e := range events {
			ids[i] = e.ID
		}
		if err := r.outbox.MarkPublished(ctx, ids, r.now()); err != nil {
			return err
		}
		published = len(events)
		return nil
	})
	if err != nil {
		return 0, err
	}
	r.metrics.addPublished(published)
	return published, nil
}

// Run drains once, then again on every wake-up until ctx is cancelled.
// Drain failures are logged; the next wake-up retries.
func (r *Relay) Run(ctx context.Context, wake <-chan struct{}) error {
	r.drainAndLog(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-wake:
			r.drainAndLog(ctx)
		}
	}
}

func (r *Relay) drainAndLog(ctx context.Context) {
	n, err := r.Drain(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		r.logger.ErrorContext(ctx, "compliance relay drain failed", "published", n, "error", err)
		return
	}
	if n > 0 {
		r.logger.InfoContext(ctx, "compliance events relayed", "published", n)
	}
}
