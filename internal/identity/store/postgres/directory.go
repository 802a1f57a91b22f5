package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"

	"contractpay/internal/identity"
	id "contractpay/pkg/domain"
	"contractpay/pkg/platform/sentinel"
	"contractpay/pkg/platform/tx"
)

// Directory reads profiles and contracts from Postgres.
type Directory struct {
	db tx.Querier
}

func NewDirectory(db tx.Querier) *Directory {
	return &Directory{db: db}
}

const profileSelect = `
	SELECT p.user_id, p.role, tp.id, COALESCE(tp.az_eligible, false)
	FROM profiles p
	LEFT JOIN talent_profiles tp ON tp.user_id = p.user_id`

func (d *Directory) ProfileByUserID(ctx context.Context, userID id.UserID) (*identity.Profile, error) {
	row := tx.Execer(ctx, d.db).QueryRow(ctx, profileSelect+` WHERE p.user_id = $1`, uuid.UUID(userID))
	return scanProfile(row)
}

func (d *Directory) ProfileByTalentID(ctx context.Context, talentID id.TalentID) (*identity.Profile, error) {
	row := tx.Execer(ctx, d.db).QueryRow(ctx, profileSelect+` WHERE tp.id = $1`, uuid.UUID(talentID))
	return scanProfile(row)
}

func scanProfile(row pgx.Row) (*identity.Profile, error) {
	var (
		userID   uuid.UUID
		role     string
		talentID uuid.NullUUID
		p        identity.Profile
	)
	if err := row.Scan(&userID, &role, &talentID, &p.AZEligible); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, eris.Wrap(err, "postgres: load profile")
	}
	p.UserID = id.UserID(userID)
	p.Role = identity.ProfileRole(role)
	if talentID.Valid {
		p.TalentID = id.TalentID(talentID.UUID)
	}
	return &p, nil
}

func (d *Directory) Contract(ctx context.Context, contractID id.ContractID) (*identity.Contract, error) {
	row := tx.Execer(ctx, d.db).QueryRow(ctx, `
		SELECT id, client_id, talent_id, title
		FROM contracts
		WHERE id = $1`, uuid.UUID(contractID))
	c, err := scanContract(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, eris.Wrap(err, "postgres: load contract")
	}
	return c, nil
}

func (d *Directory) ContractsForParty(ctx context.Context, userID id.UserID, talentID id.TalentID) ([]identity.Contract, error) {
	rows, err := tx.Execer(ctx, d.db).Query(ctx, `
		SELECT id, client_id, talent_id, title
		FROM contracts
		WHERE client_id = $1 OR talent_id = $2
		ORDER BY created_at, id`, uuid.UUID(userID), uuid.UUID(talentID))
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list party contracts")
	}
	defer rows.Close()

	out := make([]identity.Contract, 0)
	for rows.Next() {
		c, err := scanContract(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan contract")
		}
		out = append(out, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: iterate contracts")
	}
	return out, nil
}

func scanContract(row pgx.Row) (*identity.Contract, error) {
	var (
		contractID, clientID, talentID uuid.UUID
		c                              identity.Contract
	)
	if err := row.Scan(&contractID, &clientID, &talentID, &c.Title); err != nil {
		return nil, err
	}
	c.ID = id.ContractID(contractID)
	c.ClientID = id.UserID(clientID)
	c.TalentID = id.TalentID(talentID)
	return &c, nil
}
