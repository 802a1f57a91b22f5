// Package audit is the compliance event log: an append-only record of every
// state-changing action in the payment workflow.
package audit

import (
	"context"
	"time"

	id "contractpay/pkg/domain"
)

// EntityType names the kind of record an event is about.
type EntityType string

const (
	EntityTimeLog EntityType = "time_log"
	EntityEscrow  EntityType = "escrow"
	EntityPayout  EntityType = "payout"
)

// EventType names the action recorded.
type EventType string

const (
	EventTimeLogCreated        EventType = "time_log_created"
	EventTimeLogUpdated        EventType = "time_log_updated"
	EventTimeLogDeleted        EventType = "time_log_deleted"
	EventTimeLogsSubmitted     EventType = "time_logs_submitted"
	EventTimeLogDecided        EventType = "time_log_decided"
	EventEscrowFunded          EventType = "escrow_funded"
	EventEscrowDebited         EventType = "escrow_debited"
	EventPayoutBatchProcessing EventType = "payout_batch_processing"
	EventPayoutCompleted       EventType = "payout_completed"
	EventPayoutFailed          EventType = "payout_failed"
)

// Category groups events by the reporting obligation they serve.
type Category string

const (
	// CategoryWorkRecord covers time-log lifecycle events.
	CategoryWorkRecord Category = "work_record"
	// CategoryFinancial covers every event that moves or commits money.
	CategoryFinancial Category = "financial"
	// CategoryRecordEdit covers edits to records that are not yet under review.
	CategoryRecordEdit Category = "record_edit"
)

var eventCategories = map[EventType]Category{
	EventTimeLogCreated:        CategoryRecordEdit,
	EventTimeLogUpdated:        CategoryRecordEdit,
	EventTimeLogDeleted:        CategoryRecordEdit,
	EventTimeLogsSubmitted:     CategoryWorkRecord,
	EventTimeLogDecided:        CategoryWorkRecord,
	EventEscrowFunded:          CategoryFinancial,
	EventEscrowDebited:         CategoryFinancial,
	EventPayoutBatchProcessing: CategoryFinancial,
	EventPayoutCompleted:       CategoryFinancial,
	EventPayoutFailed:          CategoryFinancial,
}

// Category returns the category for e. Unknown events are record edits.
func (e EventType) Category() Category {
	if c, ok := eventCategories[e]; ok {
		return c
	}
	return CategoryRecordEdit
}

// Policy decides what happens when an event cannot be persisted.
type Policy int

const (
	// FailClosed fails the calling operation, rolling back its unit of work.
	// Used for state transitions and money movements.
	FailClosed Policy = iota
	// LogAndContinue logs at ERROR, counts the failure and lets the already
	// committed operation succeed. Used for record edits.
	LogAndContinue
)

func (p Policy) String() string {
	if p == LogAndContinue {
		return "log_and_continue"
	}
	return "fail_closed"
}

// ComplianceEvent is one immutable ledger entry.
type ComplianceEvent struct {
	ID          id.EventID     `json:"id"`
	EntityType  EntityType     `json:"entity_type"`
	EntityID    string         `json:"entity_id"`
	EventType   EventType      `json:"event_type"`
	Category    Category       `json:"category"`
	ActorID     id.UserID      `json:"actor_id"`
	ActorRole   string         `json:"actor_role"`
	Realm       string         `json:"realm"`
	Description string         `json:"description"`
	Payload     map[string]any `json:"payload"`
	Amount      *id.Cents      `json:"amount,omitempty"`
	LegalEntity string         `json:"legal_entity"`
	RequestID   string         `json:"request_id,omitempty"`
	OccurredAt  time.Time      `json:"occurred_at"`
	// PublishedAt is outbox bookkeeping set once the relay has delivered the
	// event downstream. It is the only column ever written after insert.
	PublishedAt *time.Time `json:"published_at,omitempty"`
}

// Filter narrows List results. Zero values match everything.
type Filter struct {
	EntityType EntityType
	EntityID   string
	Limit      int
}

// DefaultListLimit applies when Filter.Limit is unset.
const DefaultListLimit = 100

// Store persists events. Append must join the unit of work carried by ctx.
type Store interface {
	Append(ctx context.Context, event ComplianceEvent) error
	List(ctx context.Context, filter Filter) ([]ComplianceEvent, error)
}

// Outbox is the relay's view of a store: events not yet delivered downstream.
type Outbox interface {
	Unpublished(ctx context.Context, limit int) ([]ComplianceEvent, error)
	MarkPublished(ctx context.Context, ids []id.EventID, at time.Time) error
}
