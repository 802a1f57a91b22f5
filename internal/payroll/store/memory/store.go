package memory

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"contractpay/internal/payroll/models"
	id "contractpay/pkg/domain"
	"contractpay/pkg/platform/sentinel"
)

// Store keeps payouts in memory. Status changes are conditional on the
// current status, matching the SQL store.
type Store struct {
	mu      sync.RWMutex
	payouts map[id.PayoutID]models.Payout
}

func New() *Store {
	return &Store{payouts: make(map[id.PayoutID]models.Payout)}
}

// Snapshot implements tx.Snapshotter.
func (s *Store) Snapshot() func() {
	s.mu.RLock()
	payouts := maps.Clone(s.payouts)
	s.mu.RUnlock()
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.payouts = payouts
	}
}

func (s *Store) Create(_ context.Context, p *models.Payout) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.payouts[p.ID]; ok {
		return sentinel.ErrConflict
	}
	s.payouts[p.ID] = *p
	return nil
}

func (s *Store) FindByID(_ context.Context, payoutID id.PayoutID) (*models.Payout, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.payouts[payoutID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &p, nil
}

// FindByIDForUpdate is FindByID; the memory runner already serializes units
// of work.
func (s *Store) FindByIDForUpdate(ctx context.Context, payoutID id.PayoutID) (*models.Payout, error) {
	return s.FindByID(ctx, payoutID)
}

// List returns matching payouts by scheduled date, oldest first.
func (s *Store) List(_ context.Context, filter models.Filter) ([]*models.Payout, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Payout, 0)
	for _, p := range s.payouts {
		if filter.Matches(&p) {
			out = append(out, &p)
		}
	}
	slices.SortFunc(out, func(a, b *models.Payout) int {
		if c := a.ScheduledDate.Compare(b.ScheduledDate); c != 0 {
			return c
		}
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return out, nil
}

// MarkProcessing moves the pending subset of ids to processing and returns
// the rows it changed, in request order.
func (s *Store) MarkProcessing(_ context.Context, ids []id.PayoutID, at time.Time) ([]*models.Payout, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*models.Payout, 0, len(ids))
	for _, payoutID := range ids {
		p, ok := s.payouts[payoutID]
		if !ok || p.Status != models.StatusPending {
			continue
		}
		p.Status = models.StatusProcessing
		p.ProcessingStartedAt = &at
		p.UpdatedAt = at
		s.payouts[payoutID] = p
		out = append(out, &p)
	}
	return out, nil
}

func (s *Store) MarkCompleted(_ context.Context, payoutID id.PayoutID, at time.Time) (*models.Payout, error) {
	return s.finish(payoutID, func(p *models.Payout) {
		p.Status = models.StatusCompleted
		p.CompletedAt = &at
		p.UpdatedAt = at
	})
}

func (s *Store) MarkFailed(_ context.Context, payoutID id.PayoutID, reason string, at time.Time) (*models.Payout, error) {
	return s.finish(payoutID, func(p *models.Payout) {
		p.Status = models.StatusFailed
		p.FailedAt = &at
		p.FailureReason = reason
		p.UpdatedAt = at
	})
}

func (s *Store) finish(payoutID id.PayoutID, apply func(*models.Payout)) (*models.Payout, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.payouts[payoutID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if p.Status != models.StatusProcessing {
		return nil, sentinel.ErrInvalidState
	}
	apply(&p)
	s.payouts[payoutID] = p
	return &p, nil
}

func (s *Store) YearTotals(_ context.Context, taxYear int) (models.YearTotals, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var totals models.YearTotals
	for _, p := range s.payouts {
		if p.TaxYear == taxYear {
			totals.Add(&p)
		}
	}
	return totals, nil
}
