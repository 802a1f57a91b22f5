package ratelimit

import "sync"

// breaker tracks consecutive primary store errors. While open, checks go to
// the in-process fallback store. It closes after successThreshold healthy
// probes of the primary.
type breaker struct {
	mu               sync.Mutex
	open             bool
	failures         int
	successes        int
	failureThreshold int
	successThreshold int
}

func newBreaker(failureThreshold, successThreshold int) *breaker {
	return &breaker{failureThreshold: failureThreshold, successThreshold: successThreshold}
}

func (b *breaker) isOpen() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.open
}

// failure records a primary error and reports whether the breaker just opened.
func (b *breaker) failure() (opened bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.successes = 0
	b.failures++
	if !b.open && b.failures >= b.failureThreshold {
		b.open = true
		return true
	}
	return false
}

// success records a healthy primary call and reports whether the breaker
// just closed.
func (b *breaker) success() (closed bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.open {
		b.failures = 0
		return false
	}
	b.successes++
	if b.successes >= b.successThreshold {
		b.open = false
		b.failures, b.successes = 0, 0
		return true
	}
	return false
}
