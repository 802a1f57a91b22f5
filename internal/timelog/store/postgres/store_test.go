package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contractpay/internal/timelog/models"
	id "contractpay/pkg/domain"
	"contractpay/pkg/platform/sentinel"
)

var logColumnNames = []string{
	"id", "talent_id", "contract_id", "milestone_id", "log_date", "start_time", "end_time",
	"hours_worked", "task_category", "description", "location_type", "location_state", "location_city",
	"latitude", "longitude", "az_eligible_hours", "billable", "status", "submitted_at", "approved_at",
	"approved_by", "created_at", "updated_at",
}

func newMockStore(t *testing.T) (*Store, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return New(mock), mock
}

func logRow(logID, talentID uuid.UUID, status string, submittedAt any) []any {
	created := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	return []any{
		logID.String(), talentID.String(), uuid.NewString(), nil,
		time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), "09:00", "17:00",
		int64(800), "development", "api work", "on_site", "AZ", "Phoenix",
		nil, nil, int64(800), true, status, submittedAt, nil,
		nil, created, created,
	}
}

func TestMarkSubmittedReturnsChangedRows(t *testing.T) {
	store, mock := newMockStore(t)
	talent := uuid.New()
	first, second := uuid.New(), uuid.New()
	at := time.Date(2024, 5, 2, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`UPDATE time_logs\s+SET status = 'submitted'.*status IN \('draft', 'rejected'\)`).
		WithArgs([]uuid.UUID{first, second}, talent, at).
		WillReturnRows(pgxmock.NewRows(logColumnNames).
			AddRow(logRow(first, talent, "submitted", at)...).
			AddRow(logRow(second, talent, "submitted", at)...))

	logs, err := store.MarkSubmitted(context.Background(), id.TalentID(talent),
		[]id.TimeLogID{id.TimeLogID(first), id.TimeLogID(second)}, at)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, id.TimeLogID(first), logs[0].ID)
	assert.Equal(t, models.StatusSubmitted, logs[0].Status)
	assert.Equal(t, id.WholeHours(8), logs[0].HoursWorked)
	assert.Equal(t, id.WholeHours(8), logs[0].AZEligibleHours)
	assert.Equal(t, "09:00", logs[0].StartTime)
	assert.Nil(t, logs[0].MilestoneID)
	assert.Nil(t, logs[0].ApprovedBy)
	require.NotNil(t, logs[0].SubmittedAt)
	assert.Equal(t, at, *logs[0].SubmittedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByIDForUpdateLocksRow(t *testing.T) {
	store, mock := newMockStore(t)
	logID := uuid.New()

	mock.ExpectQuery(`SELECT .* FROM time_logs WHERE id = \$1 FOR UPDATE`).
		WithArgs(logID).
		WillReturnRows(pgxmock.NewRows(logColumnNames))

	_, err := store.FindByIDForUpdate(context.Background(), id.TimeLogID(logID))
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyDecisionOnNonSubmittedRow(t *testing.T) {
	store, mock := newMockStore(t)
	logID := uuid.New()
	at := time.Date(2024, 5, 3, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`UPDATE time_logs\s+SET status = \$2.*WHERE id = \$1 AND status = 'submitted'`).
		WithArgs(logID, "rejected", (*time.Time)(nil), (*uuid.UUID)(nil), at).
		WillReturnRows(pgxmock.NewRows(logColumnNames))

	_, err := store.ApplyDecision(context.Background(), id.TimeLogID(logID), models.StatusRejected, nil, nil, at)
	assert.ErrorIs(t, err, sentinel.ErrInvalidState)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateGuardsOnStatus(t *testing.T) {
	store, mock := newMockStore(t)
	log := &models.TimeLog{
		ID:     id.NewTimeLogID(),
		Status: models.StatusDraft,
		Details: models.Details{
			HoursWorked:  id.WholeHours(4),
			TaskCategory: "review",
			LocationType: models.LocationRemote,
		},
	}

	mock.ExpectExec(`UPDATE time_logs\s+SET milestone_id = \$2.*WHERE id = \$1 AND status = \$18`).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := store.Update(context.Background(), log, models.StatusRejected)
	assert.ErrorIs(t, err, sentinel.ErrInvalidState)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListBuildsFilter(t *testing.T) {
	store, mock := newMockStore(t)
	talent := uuid.New()

	mock.ExpectQuery(`FROM time_logs WHERE talent_id = \$1 AND status = \$2 ORDER BY log_date DESC`).
		WithArgs(talent, "draft").
		WillReturnRows(pgxmock.NewRows(logColumnNames).AddRow(logRow(uuid.New(), talent, "draft", nil)...))

	logs, err := store.List(context.Background(), models.Filter{
		TalentID: id.TalentID(talent),
		Status:   models.StatusDraft,
	})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Nil(t, logs[0].SubmittedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppendAuditWritesNilReviewerForSubmission(t *testing.T) {
	store, mock := newMockStore(t)
	audit := models.Audit{
		ID:           uuid.New(),
		TimeLogID:    id.NewTimeLogID(),
		Decision:     models.DecisionSubmitted,
		IPAddress:    "203.0.113.7",
		UserAgent:    "curl/8.0",
		ClientDevice: "Unknown Device",
		RequestID:    "req-1",
		CreatedAt:    time.Date(2024, 5, 2, 9, 0, 0, 0, time.UTC),
	}
	var nilReviewer *uuid.UUID

	mock.ExpectExec("INSERT INTO time_log_audits").
		WithArgs(audit.ID, uuid.UUID(audit.TimeLogID), nilReviewer, "submitted", "",
			"203.0.113.7", "curl/8.0", "Unknown Device", "req-1", audit.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, store.AppendAudit(context.Background(), audit))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSumApprovedAZHours(t *testing.T) {
	store, mock := newMockStore(t)
	from, to := models.YearRange(2024)

	mock.ExpectQuery(`SELECT COALESCE\(SUM\(az_eligible_hours\), 0\)`).
		WithArgs(from, to).
		WillReturnRows(pgxmock.NewRows([]string{"sum"}).AddRow(int64(1250)))

	total, err := store.SumApprovedAZHours(context.Background(), from, to)
	require.NoError(t, err)
	assert.Equal(t, id.Hours(1250), total)
	assert.NoError(t, mock.ExpectationsWereMet())
}
