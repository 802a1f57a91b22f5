// Package ratelimit enforces per-caller request budgets on the API. Budgets
// are counted over a sliding window so bursts at a window boundary cannot
// double the allowance.
package ratelimit

import (
	"context"
	"net/http"
	"time"
)

// Class groups routes that share a budget.
type Class string

const (
	ClassRead  Class = "read"
	ClassWrite Class = "write"
)

// ClassOf buckets a request by method: safe methods read, everything else writes.
func ClassOf(r *http.Request) Class {
	switch r.Method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return ClassRead
	}
	return ClassWrite
}

// Limit is the budget for one class.
type Limit struct {
	Requests int
	Window   time.Duration
}

// Result is the outcome of one check.
type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter time.Duration
}

// Store counts requests per key.
type Store interface {
	Allow(ctx context.Context, key string, limit Limit, now time.Time) (*Result, error)
}
