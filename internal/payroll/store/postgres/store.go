package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rotisserie/eris"

	"contractpay/internal/payroll/models"
	id "contractpay/pkg/domain"
	"contractpay/pkg/platform/sentinel"
	"contractpay/pkg/platform/tx"
)

// Store persists payouts. Status changes are conditional updates on the
// current status so concurrent callers cannot move a row twice.
type Store struct {
	db tx.Querier
}

func New(db tx.Querier) *Store {
	return &Store{db: db}
}

const payoutColumns = `id, talent_id, contract_id, net_amount, scheduled_date, tax_year, status,
	processing_started_at, completed_at, failed_at, failure_reason, created_at, updated_at`

func (s *Store) Create(ctx context.Context, p *models.Payout) error {
	_, err := tx.Execer(ctx, s.db).Exec(ctx, `
		INSERT INTO payouts (`+payoutColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		uuid.UUID(p.ID),
		uuid.UUID(p.TalentID),
		uuid.UUID(p.ContractID),
		int64(p.NetAmount),
		p.ScheduledDate,
		p.TaxYear,
		string(p.Status),
		p.ProcessingStartedAt,
		p.CompletedAt,
		p.FailedAt,
		p.FailureReason,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		return eris.Wrap(err, "postgres: insert payout")
	}
	return nil
}

func (s *Store) FindByID(ctx context.Context, payoutID id.PayoutID) (*models.Payout, error) {
	return s.findOne(ctx, `SELECT `+payoutColumns+` FROM payouts WHERE id = $1`, payoutID)
}

func (s *Store) FindByIDForUpdate(ctx context.Context, payoutID id.PayoutID) (*models.Payout, error) {
	return s.findOne(ctx, `SELECT `+payoutColumns+` FROM payouts WHERE id = $1 FOR UPDATE`, payoutID)
}

func (s *Store) findOne(ctx context.Context, query string, payoutID id.PayoutID) (*models.Payout, error) {
	rows, err := tx.Execer(ctx, s.db).Query(ctx, query, uuid.UUID(payoutID))
	if err != nil {
		return nil, eris.Wrap(err, "postgres: find payout")
	}
	payouts, err := scanPayouts(rows)
	if err != nil {
		return nil, err
	}
	if len(payouts) == 0 {
		return nil, sentinel.ErrNotFound
	}
	return payouts[0], nil
}

func (s *Store) List(ctx context.Context, filter models.Filter) ([]*models.Payout, error) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if filter.Status != "" {
		add("status = $%d", string(filter.Status))
	}
	if filter.TaxYear != 0 {
		add("tax_year = $%d", filter.TaxYear)
	}
	if filter.From != nil {
		add("scheduled_date >= $%d", *filter.From)
	}
	if filter.To != nil {
		add("scheduled_date <= $%d", *filter.To)
	}
	if !filter.TalentID.IsNil() {
		add("talent_id = $%d", uuid.UUID(filter.TalentID))
	}
	where := ""
	if len(conds) > 0 {
		where = "WHERE " + strings.Join(conds, " AND ")
	}
	rows, err := tx.Execer(ctx, s.db).Query(ctx,
		`SELECT `+payoutColumns+` FROM payouts `+where+` ORDER BY scheduled_date, created_at`,
		args...,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list payouts")
	}
	return scanPayouts(rows)
}

// MarkProcessing flips the pending subset of ids in one statement and
// returns the rows it changed.
func (s *Store) MarkProcessing(ctx context.Context, ids []id.PayoutID, at time.Time) ([]*models.Payout, error) {
	raw := make([]uuid.UUID, len(ids))
	for i, p := range ids {
		raw[i] = uuid.UUID(p)
	}
	rows, err := tx.Execer(ctx, s.db).Query(ctx, `
		UPDATE payouts
		SET status = 'processing', processing_started_at = $2, updated_at = $2
		WHERE id = ANY($1) AND status = 'pending'
		RETURNING `+payoutColumns,
		raw, at,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: mark payouts processing")
	}
	return scanPayouts(rows)
}

func (s *Store) MarkCompleted(ctx context.Context, payoutID id.PayoutID, at time.Time) (*models.Payout, error) {
	return s.finish(ctx, `
		UPDATE payouts
		SET status = 'completed', completed_at = $2, updated_at = $2
		WHERE id = $1 AND status = 'processing'
		RETURNING `+payoutColumns,
		uuid.UUID(payoutID), at,
	)
}

func (s *Store) MarkFailed(ctx context.Context, payoutID id.PayoutID, reason string, at time.Time) (*models.Payout, error) {
	return s.finish(ctx, `
		UPDATE payouts
		SET status = 'failed', failed_at = $2, failure_reason = $3, updated_at = $2
		WHERE id = $1 AND status = 'processing'
		RETURNING `+payoutColumns,
		uuid.UUID(payoutID), at, reason,
	)
}

func (s *Store) finish(ctx context.Context, query string, args ...any) (*models.Payout, error) {
	rows, err := tx.Execer(ctx, s.db).Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: finish payout")
	}
	payouts, err := scanPayouts(rows)
	if err != nil {
		return nil, err
	}
	if len(payouts) == 0 {
		return nil, sentinel.ErrInvalidState
	}
	return payouts[0], nil
}

// YearTotals sums payouts per status in SQL; amounts never leave integer
// cents.
func (s *Store) YearTotals(ctx context.Context, taxYear int) (models.YearTotals, error) {
	rows, err := tx.Execer(ctx, s.db).Query(ctx, `
		SELECT status, COALESCE(SUM(net_amount), 0)::BIGINT, COUNT(*)
		FROM payouts
		WHERE tax_year = $1
		GROUP BY status`,
		taxYear,
	)
	if err != nil {
		return models.YearTotals{}, eris.Wrap(err, "postgres: payout year totals")
	}
	defer rows.Close()

	var totals models.YearTotals
	for rows.Next() {
		var (
			status string
			sum    int64
			count  int64
		)
		if err := rows.Scan(&status, &sum, &count); err != nil {
			return models.YearTotals{}, eris.Wrap(err, "postgres: scan payout year totals")
		}
		switch models.Status(status) {
		case models.StatusCompleted:
			totals.CompletedAmount, totals.CompletedCount = id.Cents(sum), int(count)
		case models.StatusPending:
			totals.PendingAmount, totals.PendingCount = id.Cents(sum), int(count)
		case models.StatusProcessing:
			totals.ProcessingAmount, totals.ProcessingCount = id.Cents(sum), int(count)
		}
	}
	if err := rows.Err(); err != nil {
		return models.YearTotals{}, eris.Wrap(err, "postgres: payout year totals")
	}
	return totals, nil
}

func scanPayouts(rows pgx.Rows) ([]*models.Payout, error) {
	defer rows.Close()
	out := make([]*models.Payout, 0)
	for rows.Next() {
		var (
			payoutID    uuid.UUID
			talentID    uuid.UUID
			contractID  uuid.UUID
			netAmount   int64
			startedAt   pgtype.Timestamptz
			completedAt pgtype.Timestamptz
			failedAt    pgtype.Timestamptz
			status      string
			p           models.Payout
		)
		if err := rows.Scan(
			&payoutID, &talentID, &contractID, &netAmount, &p.ScheduledDate, &p.TaxYear, &status,
			&startedAt, &completedAt, &failedAt, &p.FailureReason, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, eris.Wrap(err, "postgres: scan payout")
		}
		p.ID = id.PayoutID(payoutID)
		p.TalentID = id.TalentID(talentID)
		p.ContractID = id.ContractID(contractID)
		p.NetAmount = id.Cents(netAmount)
		p.Status = models.Status(status)
		p.ProcessingStartedAt = timestampPtr(startedAt)
		p.CompletedAt = timestampPtr(completedAt)
		p.FailedAt = timestampPtr(failedAt)
		out = append(out, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: read payouts")
	}
	return out, nil
}

func timestampPtr(ts pgtype.Timestamptz) *time.Time {
	if !ts.Valid {
		return nil
	}
	t := ts.Time
	return &t
}
