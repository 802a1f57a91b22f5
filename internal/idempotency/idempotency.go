// Package idempotency replays responses for retried money-moving requests
// that carry an Idempotency-Key header.
package idempotency

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Record is what a store keeps per key. A reserved key has Completed false
// until the first response is stored.
type Record struct {
	Fingerprint string `json:"fingerprint"`
	Completed   bool   `json:"completed"`
	Status      int    `json:"status,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	Body        []byte `json:"body,omitempty"`
}

// Store reserves keys and keeps completed responses until they expire.
type Store interface {
	// Reserve claims key for a new request. When the key is already held it
	// returns the existing record and false.
	Reserve(ctx context.Context, key, fingerprint string, ttl time.Duration) (*Record, bool, error)
	// Complete stores the response for a reserved key.
	Complete(ctx context.Context, key string, rec Record, ttl time.Duration) error
	// Release drops a reservation so the request can be retried.
	Release(ctx context.Context, key string) error
}

// Fingerprint identifies a request by route and body so a key cannot be
// reused for a different call.
func Fingerprint(method, path string, body []byte) string {
	h := sha256.New()
	h.Write([]byte(method))
	h.Write([]byte{0})
	h.Write([]byte(path))
	h.Write([]byte{0})
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}
