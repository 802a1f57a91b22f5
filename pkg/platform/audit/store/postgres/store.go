package postgres

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rotisserie/eris"

	id "contractpay/pkg/domain"
	audit "contractpay/pkg/platform/audit"
	"contractpay/pkg/platform/tx"
)

// Store implements audit.Store over the compliance_events table. The table
// doubles as the relay outbox: rows start with published_at NULL and an
// insert trigger raises pg_notify on the compliance_events channel.
type Store struct {
	db tx.Querier
}

// New creates a PostgreSQL compliance event store.
func New(db tx.Querier) *Store {
	return &Store{db: db}
}

const eventColumns = `id, entity_type, entity_id, event_type, category, actor_id, actor_role,
	realm, description, payload, amount_cents, legal_entity, request_id, occurred_at, published_at`

// Append inserts the event inside the caller's transaction when there is one.
func (s *Store) Append(ctx context.Context, event audit.ComplianceEvent) error {
	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal compliance payload")
	}
	var amount *int64
	if event.Amount != nil {
		v := int64(*event.Amount)
		amount = &v
	}
	_, err = tx.Execer(ctx, s.db).Exec(ctx, `
		INSERT INTO compliance_events (
			id, entity_type, entity_id, event_type, category, actor_id, actor_role,
			realm, description, payload, amount_cents, legal_entity, request_id, occurred_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		uuid.UUID(event.ID),
		string(event.EntityType),
		event.EntityID,
		string(event.EventType),
		string(event.Category),
		uuid.UUID(event.ActorID),
		event.ActorRole,
		event.Realm,
		event.Description,
		payload,
		amount,
		event.LegalEntity,
		event.RequestID,
		event.OccurredAt,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: insert compliance event %s", event.EventType)
	}
	return nil
}

// List returns matching events newest first.
func (s *Store) List(ctx context.Context, filter audit.Filter) ([]audit.ComplianceEvent, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = audit.DefaultListLimit
	}
	rows, err := tx.Execer(ctx, s.db).Query(ctx, `
		SELECT `+eventColumns+`
		FROM compliance_events
		WHERE ($1 = '' OR entity_type = $1)
		  AND ($2 = '' OR entity_id = $2)
		ORDER BY occurred_at DESC, id
		LIMIT $3`,
		string(filter.EntityType), filter.EntityID, limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list compliance events")
	}
	return scanEvents(rows)
}

// Unpublished locks up to limit undelivered events. Call inside a transaction
// so concurrent relays skip each other's rows.
func (s *Store) Unpublished(ctx context.Context, limit int) ([]audit.ComplianceEvent, error) {
	rows, err := tx.Execer(ctx, s.db).Query(ctx, `
		SELECT `+eventColumns+`
		FROM compliance_events
		WHERE published_at IS NULL
		ORDER BY occurred_at, id
		LIMIT $1
		FOR UPDATE SKIP LOCKED`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: fetch unpublished compliance events")
	}
	return scanEvents(rows)
}

func (s *Store) MarkPublished(ctx context.Context, ids []id.EventID, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	raw := make([]uuid.UUID, len(ids))
	for i, eid := range ids {
		raw[i] = uuid.UUID(eid)
	}
	_, err := tx.Execer(ctx, s.db).Exec(ctx, `
		UPDATE compliance_events
		SET published_at = $2
		WHERE id = ANY($1) AND published_at IS NULL`,
		raw, at,
	)
	if err != nil {
		return eris.Wrap(err, "postgres: mark compliance events published")
	}
	return nil
}

func scanEvents(rows pgx.Rows) ([]audit.ComplianceEvent, error) {
	defer rows.Close()
	events := make([]audit.ComplianceEvent, 0)
	for rows.Next() {
		var (
			e                     audit.ComplianceEvent
			eventID, actorID      uuid.UUID
			entityType, eventType string
			category              string
			payload               []byte
			amount                pgtype.Int8
			publishedAt           pgtype.Timestamptz
		)
		if err := rows.Scan(
			&eventID, &entityType, &e.EntityID, &eventType, &category, &actorID, &e.ActorRole,
			&e.Realm, &e.Description, &payload, &amount, &e.LegalEntity, &e.RequestID,
			&e.OccurredAt, &publishedAt,
		); err != nil {
			return nil, eris.Wrap(err, "postgres: scan compliance event")
		}
		e.ID = id.EventID(eventID)
		e.ActorID = id.UserID(actorID)
		e.EntityType = audit.EntityType(entityType)
		e.EventType = audit.EventType(eventType)
		e.Category = audit.Category(category)
		if amount.Valid {
			c := id.Cents(amount.Int64)
			e.Amount = &c
		}
		if publishedAt.Valid {
			ts := publishedAt.Time
			e.PublishedAt = &ts
		}
		if len(payload) > 0 {
			if err := json.Unmarshal(payload, &e.Payload); err != nil {
				return nil, eris.Wrap(err, "postgres: decode compliance payload")
			}
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: iterate compliance events")
	}
	return events, nil
}
