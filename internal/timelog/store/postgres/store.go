package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rotisserie/eris"

	"contractpay/internal/timelog/models"
	id "contractpay/pkg/domain"
	"contractpay/pkg/platform/sentinel"
	"contractpay/pkg/platform/tx"
)

// Store persists time logs in time_logs and their trail in time_log_audits.
type Store struct {
	db tx.Querier
}

func New(db tx.Querier) *Store {
	return &Store{db: db}
}

const logColumns = `id, talent_id, contract_id, milestone_id, log_date, start_time, end_time,
	hours_worked, task_category, description, location_type, location_state, location_city,
	latitude, longitude, az_eligible_hours, billable, status, submitted_at, approved_at,
	approved_by, created_at, updated_at`

func (s *Store) Create(ctx context.Context, log *models.TimeLog) error {
	_, err := tx.Execer(ctx, s.db).Exec(ctx, `
		INSERT INTO time_logs (`+logColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18,
			$19, $20, $21, $22, $23)`,
		uuid.UUID(log.ID),
		uuid.UUID(log.TalentID),
		uuid.UUID(log.ContractID),
		milestoneArg(log.MilestoneID),
		log.LogDate,
		textArg(log.StartTime),
		textArg(log.EndTime),
		int64(log.HoursWorked),
		log.TaskCategory,
		log.Description,
		string(log.LocationType),
		log.LocationState,
		log.LocationCity,
		log.Latitude,
		log.Longitude,
		int64(log.AZEligibleHours),
		log.Billable,
		string(log.Status),
		log.SubmittedAt,
		log.ApprovedAt,
		userArg(log.ApprovedBy),
		log.CreatedAt,
		log.UpdatedAt,
	)
	if err != nil {
		return eris.Wrap(err, "postgres: insert time log")
	}
	return nil
}

func (s *Store) FindByID(ctx context.Context, logID id.TimeLogID) (*models.TimeLog, error) {
	return s.findOne(ctx, `SELECT `+logColumns+` FROM time_logs WHERE id = $1`, logID)
}

// FindByIDForUpdate locks the row for the rest of the caller's transaction.
func (s *Store) FindByIDForUpdate(ctx context.Context, logID id.TimeLogID) (*models.TimeLog, error) {
	return s.findOne(ctx, `SELECT `+logColumns+` FROM time_logs WHERE id = $1 FOR UPDATE`, logID)
}

func (s *Store) findOne(ctx context.Context, query string, logID id.TimeLogID) (*models.TimeLog, error) {
	rows, err := tx.Execer(ctx, s.db).Query(ctx, query, uuid.UUID(logID))
	if err != nil {
		return nil, eris.Wrap(err, "postgres: find time log")
	}
	logs, err := scanLogs(rows)
	if err != nil {
		return nil, err
	}
	if len(logs) == 0 {
		return nil, sentinel.ErrNotFound
	}
	return logs[0], nil
}

func (s *Store) List(ctx context.Context, filter models.Filter) ([]*models.TimeLog, error) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if !filter.TalentID.IsNil() {
		add("talent_id = $%d", uuid.UUID(filter.TalentID))
	}
	if !filter.ContractID.IsNil() {
		add("contract_id = $%d", uuid.UUID(filter.ContractID))
	}
	if filter.Status != "" {
		add("status = $%d", string(filter.Status))
	}
	if len(filter.IDs) > 0 {
		add("id = ANY($%d)", rawIDs(filter.IDs))
	}
	where := ""
	if len(conds) > 0 {
		where = "WHERE " + strings.Join(conds, " AND ")
	}
	rows, err := tx.Execer(ctx, s.db).Query(ctx,
		`SELECT `+logColumns+` FROM time_logs `+where+` ORDER BY log_date DESC, created_at DESC`,
		args...,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list time logs")
	}
	return scanLogs(rows)
}

// Update rewrites the editable columns, guarded on the stored status.
func (s *Store) Update(ctx context.Context, log *models.TimeLog, expected models.Status) error {
	tag, err := tx.Execer(ctx, s.db).Exec(ctx, `
		UPDATE time_logs
		SET milestone_id = $2, log_date = $3, start_time = $4, end_time = $5, hours_worked = $6,
			task_category = $7, description = $8, location_type = $9, location_state = $10,
			location_city = $11, latitude = $12, longitude = $13, az_eligible_hours = $14,
			billable = $15, status = $16, updated_at = $17
		WHERE id = $1 AND status = $18`,
		uuid.UUID(log.ID),
		milestoneArg(log.MilestoneID),
		log.LogDate,
		textArg(log.StartTime),
		textArg(log.EndTime),
		int64(log.HoursWorked),
		log.TaskCategory,
		log.Description,
		string(log.LocationType),
		log.LocationState,
		log.LocationCity,
		log.Latitude,
		log.Longitude,
		int64(log.AZEligibleHours),
		log.Billable,
		string(log.Status),
		log.UpdatedAt,
		string(expected),
	)
	if err != nil {
		return eris.Wrap(err, "postgres: update time log")
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrInvalidState
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, logID id.TimeLogID, expected models.Status) error {
	tag, err := tx.Execer(ctx, s.db).Exec(ctx,
		`DELETE FROM time_logs WHERE id = $1 AND status = $2`,
		uuid.UUID(logID), string(expected),
	)
	if err != nil {
		return eris.Wrap(err, "postgres: delete time log")
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrInvalidState
	}
	return nil
}

// MarkSubmitted is a single conditional update; rows that are not owned by
// talentID or no longer draft/rejected are left alone and not returned.
func (s *Store) MarkSubmitted(ctx context.Context, talentID id.TalentID, ids []id.TimeLogID, at time.Time) ([]*models.TimeLog, error) {
	rows, err := tx.Execer(ctx, s.db).Query(ctx, `
		UPDATE time_logs
		SET status = 'submitted', submitted_at = $3, updated_at = $3
		WHERE id = ANY($1) AND talent_id = $2 AND status IN ('draft', 'rejected')
		RETURNING `+logColumns,
		rawIDs(ids), uuid.UUID(talentID), at,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: submit time logs")
	}
	return scanLogs(rows)
}

func (s *Store) ApplyDecision(ctx context.Context, logID id.TimeLogID, status models.Status, approvedAt *time.Time, approvedBy *id.UserID, at time.Time) (*models.TimeLog, error) {
	rows, err := tx.Execer(ctx, s.db).Query(ctx, `
		UPDATE time_logs
		SET status = $2, approved_at = $3, approved_by = $4, updated_at = $5
		WHERE id = $1 AND status = 'submitted'
		RETURNING `+logColumns,
		uuid.UUID(logID), string(status), approvedAt, userArg(approvedBy), at,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: apply time log decision")
	}
	logs, err := scanLogs(rows)
	if err != nil {
		return nil, err
	}
	if len(logs) == 0 {
		return nil, sentinel.ErrInvalidState
	}
	return logs[0], nil
}

func (s *Store) AppendAudit(ctx context.Context, a models.Audit) error {
	_, err := tx.Execer(ctx, s.db).Exec(ctx, `
		INSERT INTO time_log_audits (
			id, time_log_id, reviewer_id, decision, notes, ip_address, user_agent,
			client_device, request_id, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		a.ID,
		uuid.UUID(a.TimeLogID),
		userArg(a.ReviewerID),
		string(a.Decision),
		a.Notes,
		a.IPAddress,
		a.UserAgent,
		a.ClientDevice,
		a.RequestID,
		a.CreatedAt,
	)
	if err != nil {
		return eris.Wrap(err, "postgres: insert time log audit")
	}
	return nil
}

func (s *Store) ListAudits(ctx context.Context, logID id.TimeLogID) ([]models.Audit, error) {
	rows, err := tx.Execer(ctx, s.db).Query(ctx, `
		SELECT id, time_log_id, reviewer_id, decision, notes, ip_address, user_agent,
			client_device, request_id, created_at
		FROM time_log_audits
		WHERE time_log_id = $1
		ORDER BY created_at, id`,
		uuid.UUID(logID),
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list time log audits")
	}
	defer rows.Close()

	audits := make([]models.Audit, 0)
	for rows.Next() {
		var (
			a        models.Audit
			logUUID  uuid.UUID
			reviewer uuid.NullUUID
			decision string
		)
		if err := rows.Scan(&a.ID, &logUUID, &reviewer, &decision, &a.Notes, &a.IPAddress,
			&a.UserAgent, &a.ClientDevice, &a.RequestID, &a.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan time log audit")
		}
		a.TimeLogID = id.TimeLogID(logUUID)
		a.Decision = models.Decision(decision)
		if reviewer.Valid {
			r := id.UserID(reviewer.UUID)
			a.ReviewerID = &r
		}
		audits = append(audits, a)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: iterate time log audits")
	}
	return audits, nil
}

func (s *Store) SumApprovedAZHours(ctx context.Context, from, to time.Time) (id.Hours, error) {
	var total int64
	err := tx.Execer(ctx, s.db).QueryRow(ctx, `
		SELECT COALESCE(SUM(az_eligible_hours), 0)::BIGINT
		FROM time_logs
		WHERE status = 'approved' AND log_date >= $1 AND log_date < $2`,
		from, to,
	).Scan(&total)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, eris.Wrap(err, "postgres: sum approved az hours")
	}
	return id.Hours(total), nil
}

func scanLogs(rows pgx.Rows) ([]*models.TimeLog, error) {
	defer rows.Close()
	logs := make([]*models.TimeLog, 0)
	for rows.Next() {
		var (
			l                           models.TimeLog
			logID, talentID, contractID uuid.UUID
			milestoneID, approvedBy     uuid.NullUUID
			startTime, endTime          pgtype.Text
			latitude, longitude         pgtype.Float8
			submittedAt, approvedAt     pgtype.Timestamptz
			hoursWorked, azHours        int64
			locationType, status        string
		)
		if err := rows.Scan(
			&logID, &talentID, &contractID, &milestoneID, &l.LogDate, &startTime, &endTime,
			&hoursWorked, &l.TaskCategory, &l.Description, &locationType, &l.LocationState, &l.LocationCity,
			&latitude, &longitude, &azHours, &l.Billable, &status, &submittedAt, &approvedAt,
			&approvedBy, &l.CreatedAt, &l.UpdatedAt,
		); err != nil {
			return nil, eris.Wrap(err, "postgres: scan time log")
		}
		l.ID = id.TimeLogID(logID)
		l.TalentID = id.TalentID(talentID)
		l.ContractID = id.ContractID(contractID)
		if milestoneID.Valid {
			m := id.MilestoneID(milestoneID.UUID)
			l.MilestoneID = &m
		}
		l.StartTime = startTime.String
		l.EndTime = endTime.String
		l.HoursWorked = id.Hours(hoursWorked)
		l.AZEligibleHours = id.Hours(azHours)
		l.LocationType = models.LocationType(locationType)
		l.Status = models.Status(status)
		if latitude.Valid {
			v := latitude.Float64
			l.Latitude = &v
		}
		if longitude.Valid {
			v := longitude.Float64
			l.Longitude = &v
		}
		if submittedAt.Valid {
			ts := submittedAt.Time
			l.SubmittedAt = &ts
		}
		if approvedAt.Valid {
			ts := approvedAt.Time
			l.ApprovedAt = &ts
		}
		if approvedBy.Valid {
			u := id.UserID(approvedBy.UUID)
			l.ApprovedBy = &u
		}
		logs = append(logs, &l)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: iterate time logs")
	}
	return logs, nil
}

func rawIDs(ids []id.TimeLogID) []uuid.UUID {
	out := make([]uuid.UUID, len(ids))
	for i, v := range ids {
		out[i] = uuid.UUID(v)
	}
	return out
}

func milestoneArg(m *id.MilestoneID) *uuid.UUID {
	if m == nil {
		return nil
	}
	u := uuid.UUID(*m)
	return &u
}

func userArg(u *id.UserID) *uuid.UUID {
	if u == nil {
		return nil
	}
	v := uuid.UUID(*u)
	return &v
}

func textArg(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
