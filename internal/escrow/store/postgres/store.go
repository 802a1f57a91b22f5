package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rotisserie/eris"

	"contractpay/internal/escrow/models"
	id "contractpay/pkg/domain"
	"contractpay/pkg/platform/sentinel"
	"contractpay/pkg/platform/tx"
)

// Store persists escrow_records. Every mutation is a single statement so the
// counters never go through a read-modify-write in application code.
type Store struct {
	db tx.Querier
}

func New(db tx.Querier) *Store {
	return &Store{db: db}
}

// numericOutOfRange is the SQLSTATE for bigint overflow.
const numericOutOfRange = "22003"

const recordColumns = `contract_id, escrow_balance, funds_deposited, funding_status, funded_at, created_at, updated_at`

// Fund upserts the record, incrementing both counters on conflict.
func (s *Store) Fund(ctx context.Context, contractID id.ContractID, amount id.Cents, at time.Time) (*models.Record, error) {
	row := tx.Execer(ctx, s.db).QueryRow(ctx, `
		INSERT INTO escrow_records (contract_id, escrow_balance, funds_deposited, funding_status, funded_at, created_at, updated_at)
		VALUES ($1, $2, $2, 'funded', $3, $3, $3)
		ON CONFLICT (contract_id) DO UPDATE
		SET escrow_balance = escrow_records.escrow_balance + EXCLUDED.escrow_balance,
			funds_deposited = escrow_records.funds_deposited + EXCLUDED.funds_deposited,
			funding_status = 'funded',
			funded_at = EXCLUDED.funded_at,
			updated_at = EXCLUDED.updated_at
		RETURNING `+recordColumns,
		uuid.UUID(contractID), int64(amount), at,
	)
	rec, err := scanRecord(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == numericOutOfRange {
			return nil, sentinel.ErrOutOfRange
		}
		return nil, eris.Wrap(err, "postgres: fund escrow")
	}
	return rec, nil
}

// Debit decrements the balance only when it covers amount. A miss is
// disambiguated into not-found or insufficient funds.
func (s *Store) Debit(ctx context.Context, contractID id.ContractID, amount id.Cents, at time.Time) (*models.Record, error) {
	q := tx.Execer(ctx, s.db)
	row := q.QueryRow(ctx, `
		UPDATE escrow_records
		SET escrow_balance = escrow_balance - $2, updated_at = $3
		WHERE contract_id = $1 AND escrow_balance >= $2
		RETURNING `+recordColumns,
		uuid.UUID(contractID), int64(amount), at,
	)
	rec, err := scanRecord(row)
	if err == nil {
		return rec, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrap(err, "postgres: debit escrow")
	}
	var exists bool
	if err := q.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM escrow_records WHERE contract_id = $1)`,
		uuid.UUID(contractID),
	).Scan(&exists); err != nil {
		return nil, eris.Wrap(err, "postgres: check escrow record")
	}
	if !exists {
		return nil, sentinel.ErrNotFound
	}
	return nil, sentinel.ErrInsufficientFunds
}

func (s *Store) FindByContract(ctx context.Context, contractID id.ContractID) (*models.Record, error) {
	row := tx.Execer(ctx, s.db).QueryRow(ctx,
		`SELECT `+recordColumns+` FROM escrow_records WHERE contract_id = $1`,
		uuid.UUID(contractID),
	)
	rec, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, eris.Wrap(err, "postgres: find escrow record")
	}
	return rec, nil
}

func (s *Store) ListByContracts(ctx context.Context, contractIDs []id.ContractID) ([]*models.Record, error) {
	raw := make([]uuid.UUID, len(contractIDs))
	for i, c := range contractIDs {
		raw[i] = uuid.UUID(c)
	}
	rows, err := tx.Execer(ctx, s.db).Query(ctx,
		`SELECT `+recordColumns+` FROM escrow_records WHERE contract_id = ANY($1) ORDER BY contract_id`,
		raw,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list escrow records")
	}
	defer rows.Close()

	out := make([]*models.Record, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan escrow record")
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: list escrow records")
	}
	return out, nil
}

func scanRecord(row pgx.Row) (*models.Record, error) {
	var (
		contractID uuid.UUID
		balance    int64
		deposited  int64
		status     string
		fundedAt   pgtype.Timestamptz
		rec        models.Record
	)
	if err := row.Scan(&contractID, &balance, &deposited, &status, &fundedAt, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		return nil, err
	}
	rec.ContractID = id.ContractID(contractID)
	rec.Balance = id.Cents(balance)
	rec.Deposited = id.Cents(deposited)
	rec.FundingStatus = models.FundingStatus(status)
	if fundedAt.Valid {
		t := fundedAt.Time
		rec.FundedAt = &t
	}
	return &rec, nil
}
