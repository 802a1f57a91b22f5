package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps one sliding window per key in process memory. Budgets are
// per instance.
type MemoryStore struct {
	mu      sync.Mutex
	windows map[string][]time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{windows: make(map[string][]time.Time)}
}

func (s *MemoryStore) Allow(_ context.Context, key string, limit Limit, now time.Time) (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	hits := evict(s.windows[key], now.Add(-limit.Window))
	res := &Result{Limit: limit.Requests}
	if len(hits) < limit.Requests {
		hits = append(hits, now)
		res.Allowed = true
		res.Remaining = limit.Requests - len(hits)
	}
	res.ResetAt = now.Add(limit.Window)
	if len(hits) > 0 {
		res.ResetAt = hits[0].Add(limit.Window)
	}
	if !res.Allowed {
		res.RetryAfter = res.ResetAt.Sub(now)
	}
	s.windows[key] = hits
	return res, nil
}

// evict drops timestamps at or before cutoff. hits is sorted.
func evict(hits []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(hits) && !hits[i].After(cutoff) {
		i++
	}
	return hits[i:]
}
