package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	id "contractpay/pkg/domain"
	audit "contractpay/pkg/platform/audit"
	"contractpay/pkg/platform/tx"
)

// InMemoryStore keeps events in insertion order.
type InMemoryStore struct {
	mu     sync.RWMutex
	events []audit.ComplianceEvent
	// inUnit holds events appended inside the open unit of work. Only these
	// are dropped on rollback; events emitted after another unit committed
	// stay.
	inUnit map[id.EventID]struct{}
	// failNext makes the next Append fail; used to exercise audit policies.
	failNext error
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{inUnit: make(map[id.EventID]struct{})}
}

// FailNextAppend arranges for the next Append to return err.
func (s *InMemoryStore) FailNextAppend(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failNext = err
}

func (s *InMemoryStore) Append(ctx context.Context, event audit.ComplianceEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failNext != nil {
		err := s.failNext
		s.failNext = nil
		return err
	}
	s.events = append(s.events, event)
	if tx.Active(ctx) {
		s.inUnit[event.ID] = struct{}{}
	}
	return nil
}

// List returns matching events newest first.
func (s *InMemoryStore) List(_ context.Context, filter audit.Filter) ([]audit.ComplianceEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	limit := filter.Limit
	if limit <= 0 {
		limit = audit.DefaultListLimit
	}
	out := make([]audit.ComplianceEvent, 0)
	for i := len(s.events) - 1; i >= 0 && len(out) < limit; i-- {
		e := s.events[i]
		if filter.EntityType != "" && e.EntityType != filter.EntityType {
			continue
		}
		if filter.EntityID != "" && e.EntityID != filter.EntityID {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (s *InMemoryStore) Unpublished(_ context.Context, limit int) ([]audit.ComplianceEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []audit.ComplianceEvent
	for _, e := range s.events {
		if e.PublishedAt != nil {
			continue
		}
		out = append(out, e)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *InMemoryStore) MarkPublished(_ context.Context, ids []id.EventID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.events {
		if s.events[i].PublishedAt == nil && slices.Contains(ids, s.events[i].ID) {
			ts := at
			s.events[i].PublishedAt = &ts
		}
	}
	return nil
}

// Snapshot implements tx.Snapshotter. MemoryRunner holds one unit of work at
// a time, so every event appended with an active context after the snapshot
// belongs to it.
func (s *InMemoryStore) Snapshot() func() {
	s.mu.Lock()
	s.inUnit = make(map[id.EventID]struct{})
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.events = slices.DeleteFunc(s.events, func(e audit.ComplianceEvent) bool {
			_, ok := s.inUnit[e.ID]
			return ok
		})
		clear(s.inUnit)
	}
}
