package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupeAndTrim(t *testing.T) {
	tests := []struct {
		name     string
		input    []string
		expected []string
	}{
		{name: "nil slice", input: nil, expected: nil},
		{name: "empty slice", input: []string{}, expected: []string{}},
		{
			name:     "trims and removes repeats in order",
			input:    []string{" b7e1 ", "a2f0", "b7e1", "", "  "},
			expected: []string{"b7e1", "a2f0"},
		},
		{
			name:     "preserves case",
			input:    []string{"AB", "ab"},
			expected: []string{"AB", "ab"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DedupeAndTrim(tt.input))
		})
	}
}

func TestDedupeTyped(t *testing.T) {
	type payoutID [2]byte
	a, b := payoutID{1, 2}, payoutID{3, 4}
	assert.Equal(t, []payoutID{a, b}, Dedupe([]payoutID{a, b, a, a}))
}
