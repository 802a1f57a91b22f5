// Package strings holds small helpers for request list values.
package strings

import (
	"strings"
)

// DedupeAndTrim trims each element, drops empties and repeats, and keeps
// first-seen order.
func DedupeAndTrim(values []string) []string {
	if len(values) == 0 {
		return values
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		if t := strings.TrimSpace(v); t != "" {
			out = append(out, t)
		}
	}
	return Dedupe(out)
}

// Dedupe removes repeated values keeping first-seen order. Used for typed id
// lists, where a batch naming the same record twice must act on it once.
func Dedupe[T comparable](values []T) []T {
	if len(values) == 0 {
		return values
	}
	seen := make(map[T]struct{}, len(values))
	out := make([]T, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
