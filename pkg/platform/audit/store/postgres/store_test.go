package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "contractpay/pkg/domain"
	audit "contractpay/pkg/platform/audit"
)

var eventColumnNames = []string{
	"id", "entity_type", "entity_id", "event_type", "category", "actor_id", "actor_role",
	"realm", "description", "payload", "amount_cents", "legal_entity", "request_id",
	"occurred_at", "published_at",
}

func newMockStore(t *testing.T) (*Store, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return New(mock), mock
}

func TestAppendInsertsEvent(t *testing.T) {
	store, mock := newMockStore(t)

	eventID := id.NewEventID()
	actor := id.UserID(uuid.New())
	amount := id.Cents(70000)
	at := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

	mock.ExpectExec("INSERT INTO compliance_events").
		WithArgs(
			uuid.UUID(eventID), "escrow", "c-1", "escrow_funded", "financial",
			uuid.UUID(actor), "client", "marketplace", "escrow funded",
			[]byte(`{"funds_deposited":"700.00"}`), pgxmock.AnyArg(), "Contractpay Payments LLC", "req-1", at,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := store.Append(context.Background(), audit.ComplianceEvent{
		ID:          eventID,
		EntityType:  audit.EntityEscrow,
		EntityID:    "c-1",
		EventType:   audit.EventEscrowFunded,
		Category:    audit.CategoryFinancial,
		ActorID:     actor,
		ActorRole:   "client",
		Realm:       "marketplace",
		Description: "escrow funded",
		Payload:     map[string]any{"funds_deposited": "700.00"},
		Amount:      &amount,
		LegalEntity: "Contractpay Payments LLC",
		RequestID:   "req-1",
		OccurredAt:  at,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppendWrapsDriverError(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectExec("INSERT INTO compliance_events").WillReturnError(assert.AnError)

	err := store.Append(context.Background(), audit.ComplianceEvent{
		ID:        id.NewEventID(),
		EntityID:  "c-1",
		EventType: audit.EventEscrowFunded,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres: insert compliance event escrow_funded")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListScansRows(t *testing.T) {
	store, mock := newMockStore(t)

	eventID := uuid.New()
	actor := uuid.New()
	at := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

	rows := pgxmock.NewRows(eventColumnNames).AddRow(
		eventID.String(), "payout", "batch", "payout_batch_processing", "financial",
		actor.String(), "admin", "marketplace", "2 payouts moved to processing",
		[]byte(`{"count":2}`), nil, "Contractpay Payments LLC", "req-9", at, nil,
	)
	mock.ExpectQuery("SELECT (.+) FROM compliance_events").
		WithArgs("payout", "", 100).
		WillReturnRows(rows)

	events, err := store.List(context.Background(), audit.Filter{EntityType: audit.EntityPayout})
	require.NoError(t, err)
	require.Len(t, events, 1)

	e := events[0]
	assert.Equal(t, id.EventID(eventID), e.ID)
	assert.Equal(t, id.UserID(actor), e.ActorID)
	assert.Equal(t, audit.EventPayoutBatchProcessing, e.EventType)
	assert.Nil(t, e.Amount)
	assert.Nil(t, e.PublishedAt)
	assert.Equal(t, float64(2), e.Payload["count"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkPublished(t *testing.T) {
	store, mock := newMockStore(t)
	ids := []id.EventID{id.NewEventID(), id.NewEventID()}
	at := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

	mock.ExpectExec("UPDATE compliance_events").
		WithArgs([]uuid.UUID{uuid.UUID(ids[0]), uuid.UUID(ids[1])}, at).
		WillReturnResult(pgxmock.NewResult("UPDATE", 2))

	require.NoError(t, store.MarkPublished(context.Background(), ids, at))
	require.NoError(t, store.MarkPublished(context.Background(), nil, at))
	assert.NoError(t, mock.ExpectationsWereMet())
}
