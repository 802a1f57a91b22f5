package memory

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"contractpay/internal/timelog/models"
	id "contractpay/pkg/domain"
	"contractpay/pkg/platform/sentinel"
)

// Store keeps time logs and their audit trail in memory. Reads and writes
// copy values so callers never alias stored state.
type Store struct {
	mu     sync.RWMutex
	logs   map[id.TimeLogID]models.TimeLog
	audits []models.Audit
}

func New() *Store {
	return &Store{logs: make(map[id.TimeLogID]models.TimeLog)}
}

// Snapshot implements tx.Snapshotter.
func (s *Store) Snapshot() func() {
	s.mu.RLock()
	logs := maps.Clone(s.logs)
	auditLen := len(s.audits)
	s.mu.RUnlock()
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.logs = logs
		s.audits = s.audits[:auditLen]
	}
}

func (s *Store) Create(_ context.Context, log *models.TimeLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.logs[log.ID]; ok {
		return sentinel.ErrConflict
	}
	s.logs[log.ID] = *log
	return nil
}

func (s *Store) FindByID(_ context.Context, logID id.TimeLogID) (*models.TimeLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	log, ok := s.logs[logID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &log, nil
}

// FindByIDForUpdate is FindByID; the memory runner already serializes
// units of work.
func (s *Store) FindByIDForUpdate(ctx context.Context, logID id.TimeLogID) (*models.TimeLog, error) {
	return s.FindByID(ctx, logID)
}

// List returns matching logs ordered by log date, newest first.
func (s *Store) List(_ context.Context, filter models.Filter) ([]*models.TimeLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.TimeLog, 0)
	for _, log := range s.logs {
		if !matches(log, filter) {
			continue
		}
		out = append(out, &log)
	}
	slices.SortFunc(out, func(a, b *models.TimeLog) int {
		if c := b.LogDate.Compare(a.LogDate); c != 0 {
			return c
		}
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return out, nil
}

func matches(log models.TimeLog, f models.Filter) bool {
	if !f.TalentID.IsNil() && log.TalentID != f.TalentID {
		return false
	}
	if !f.ContractID.IsNil() && log.ContractID != f.ContractID {
		return false
	}
	if f.Status != "" && log.Status != f.Status {
		return false
	}
	if len(f.IDs) > 0 && !slices.Contains(f.IDs, log.ID) {
		return false
	}
	return true
}

// Update replaces the log if its stored status still equals expected.
func (s *Store) Update(_ context.Context, log *models.TimeLog, expected models.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.logs[log.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if current.Status != expected {
		return sentinel.ErrInvalidState
	}
	s.logs[log.ID] = *log
	return nil
}

func (s *Store) Delete(_ context.Context, logID id.TimeLogID, expected models.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.logs[logID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if current.Status != expected {
		return sentinel.ErrInvalidState
	}
	delete(s.logs, logID)
	return nil
}

// MarkSubmitted flips every listed log owned by talentID that is still
// draft or rejected, and returns the rows it changed.
func (s *Store) MarkSubmitted(_ context.Context, talentID id.TalentID, ids []id.TimeLogID, at time.Time) ([]*models.TimeLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*models.TimeLog, 0, len(ids))
	for _, logID := range ids {
		log, ok := s.logs[logID]
		if !ok || log.TalentID != talentID || !log.Status.CanTransitionTo(models.StatusSubmitted) {
			continue
		}
		submittedAt := at
		log.Status = models.StatusSubmitted
		log.SubmittedAt = &submittedAt
		log.UpdatedAt = at
		s.logs[logID] = log
		out = append(out, &log)
	}
	return out, nil
}

// ApplyDecision moves a submitted log to status. approvedAt and approvedBy
// are stored as given, so non-approvals clear them.
func (s *Store) ApplyDecision(_ context.Context, logID id.TimeLogID, status models.Status, approvedAt *time.Time, approvedBy *id.UserID, at time.Time) (*models.TimeLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	log, ok := s.logs[logID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if log.Status != models.StatusSubmitted {
		return nil, sentinel.ErrInvalidState
	}
	log.Status = status
	log.ApprovedAt = approvedAt
	log.ApprovedBy = approvedBy
	log.UpdatedAt = at
	s.logs[logID] = log
	return &log, nil
}

func (s *Store) AppendAudit(_ context.Context, audit models.Audit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.audits = append(s.audits, audit)
	return nil
}

// ListAudits returns the trail for one log, oldest first.
func (s *Store) ListAudits(_ context.Context, logID id.TimeLogID) ([]models.Audit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Audit, 0)
	for _, a := range s.audits {
		if a.TimeLogID == logID {
			out = append(out, a)
		}
	}
	return out, nil
}

// SumApprovedAZHours totals AZ-eligible hours of approved logs dated in
// [from, to).
func (s *Store) SumApprovedAZHours(_ context.Context, from, to time.Time) (id.Hours, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var total id.Hours
	for _, log := range s.logs {
		if log.Status != models.StatusApproved {
			continue
		}
		if log.LogDate.Before(from) || !log.LogDate.Before(to) {
			continue
		}
		total += log.AZEligibleHours
	}
	return total, nil
}
