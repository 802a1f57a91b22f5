package memory

import (
	"context"
	"maps"
	"math"
	"slices"
	"sync"
	"time"

	"contractpay/internal/escrow/models"
	id "contractpay/pkg/domain"
	"contractpay/pkg/platform/sentinel"
)

// Store keeps escrow records in memory. Fund and Debit mutate under one
// lock so concurrent calls never lose an increment.
type Store struct {
	mu      sync.RWMutex
	records map[id.ContractID]models.Record
}

func New() *Store {
	return &Store{records: make(map[id.ContractID]models.Record)}
}

// Snapshot implements tx.Snapshotter.
func (s *Store) Snapshot() func() {
	s.mu.RLock()
	records := maps.Clone(s.records)
	s.mu.RUnlock()
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.records = records
	}
}

// Fund creates the record on first funding, otherwise increments both
// counters.
func (s *Store) Fund(_ context.Context, contractID id.ContractID, amount id.Cents, at time.Time) (*models.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[contractID]
	if !ok {
		rec = models.Record{ContractID: contractID, CreatedAt: at}
	}
	if rec.Deposited > math.MaxInt64-amount {
		return nil, sentinel.ErrOutOfRange
	}
	rec.Balance += amount
	rec.Deposited += amount
	rec.FundingStatus = models.FundingFunded
	rec.FundedAt = &at
	rec.UpdatedAt = at
	s.records[contractID] = rec
	return &rec, nil
}

// Debit decrements the balance when it covers amount.
func (s *Store) Debit(_ context.Context, contractID id.ContractID, amount id.Cents, at time.Time) (*models.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[contractID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if rec.Balance < amount {
		return nil, sentinel.ErrInsufficientFunds
	}
	rec.Balance -= amount
	rec.UpdatedAt = at
	s.records[contractID] = rec
	return &rec, nil
}

func (s *Store) FindByContract(_ context.Context, contractID id.ContractID) (*models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[contractID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &rec, nil
}

// ListByContracts returns the records that exist for contractIDs, in
// contract id order.
func (s *Store) ListByContracts(_ context.Context, contractIDs []id.ContractID) ([]*models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Record, 0, len(contractIDs))
	for _, contractID := range contractIDs {
		if rec, ok := s.records[contractID]; ok {
			out = append(out, &rec)
		}
	}
	slices.SortFunc(out, func(a, b *models.Record) int {
		return compareIDs(a.ContractID, b.ContractID)
	})
	return out, nil
}

func compareIDs(a, b id.ContractID) int {
	return slices.Compare(a[:], b[:])
}
