// Package compliance provides the audit publisher for compliance events.
//
// Emit is fail-closed: the event is written through the store inside the
// caller's unit of work and any failure is returned so the caller's
// transaction rolls back. EmitWithPolicy(LogAndContinue) is for record edits
// that have already committed; failures are logged and counted instead.
package compliance

import (
	"context"
	"log/slog"
	"time"

	"github.com/rotisserie/eris"

	id "contractpay/pkg/domain"
	audit "contractpay/pkg/platform/audit"
	"contractpay/pkg/requestcontext"
)

// Publisher emits compliance events.
type Publisher struct {
	store       audit.Store
	logger      *slog.Logger
	metrics     *Metrics
	realm       string
	legalEntity string
}

// Option configures the Publisher.
type Option func(*Publisher)

// WithLogger sets a logger for error reporting.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *Metrics) Option {
	return func(p *Publisher) {
		p.metrics = m
	}
}

// WithContext sets the realm (business unit) and legal entity stamped on
// events that do not carry their own.
func WithContext(realm, legalEntity string) Option {
	return func(p *Publisher) {
		p.realm = realm
		p.legalEntity = legalEntity
	}
}

// New creates a compliance publisher.
func New(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{
		store:  store,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Emit writes event with fail-closed semantics.
func (p *Publisher) Emit(ctx context.Context, event audit.ComplianceEvent) error {
	return p.EmitWithPolicy(ctx, audit.FailClosed, event)
}

// EmitWithPolicy writes event and applies policy on failure.
func (p *Publisher) EmitWithPolicy(ctx context.Context, policy audit.Policy, event audit.ComplianceEvent) error {
	start := time.Now()

	if event.EventType == "" {
		return eris.New("compliance event requires an event type")
	}
	if event.EntityID == "" {
		return eris.New("compliance event requires an entity id")
	}
	p.enrich(ctx, &event)

	if err := p.store.Append(ctx, event); err != nil {
		p.metrics.IncPersistFailures(policy)
		if policy == audit.LogAndContinue {
			p.logger.ErrorContext(ctx, "compliance audit failed, continuing",
				"event_type", event.EventType,
				"entity_id", event.EntityID,
				"request_id", event.RequestID,
				"error", err,
			)
			return nil
		}
		p.logger.ErrorContext(ctx, "CRITICAL: compliance audit failed",
			"event_type", event.EventType,
			"entity_id", event.EntityID,
			"request_id", event.RequestID,
			"error", err,
		)
		return eris.Wrap(err, "compliance audit persistence failed")
	}

	p.metrics.ObservePersistDuration(time.Since(start))
	p.metrics.IncEventsEmitted(event.EventType)
	return nil
}

// List reads back events for the compliance log endpoint.
func (p *Publisher) List(ctx context.Context, filter audit.Filter) ([]audit.ComplianceEvent, error) {
	return p.store.List(ctx, filter)
}

func (p *Publisher) enrich(ctx context.Context, event *audit.ComplianceEvent) {
	if event.ID.IsNil() {
		event.ID = id.NewEventID()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = requestcontext.Now(ctx)
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}
	if event.Category == "" {
		event.Category = event.EventType.Category()
	}
	if event.Realm == "" {
		event.Realm = p.realm
	}
	if event.LegalEntity == "" {
		event.LegalEntity = p.legalEntity
	}
	if event.Payload == nil {
		event.Payload = map[string]any{}
	}
}
