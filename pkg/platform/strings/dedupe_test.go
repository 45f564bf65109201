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
		{
			name:     "nil slice",
			input:    nil,
			expected: nil,
		},
		{
			name:     "single role",
			input:    []string{"USER"},
			expected: []string{"USER"},
		},
		{
			name:     "trims whitespace",
			input:    []string{"  USER  ", "ADMIN  "},
			expected: []string{"USER", "ADMIN"},
		},
		{
			name:     "removes duplicates preserving order",
			input:    []string{"USER", "ADMIN", "USER"},
			expected: []string{"USER", "ADMIN"},
		},
		{
			name:     "removes empty strings",
			input:    []string{"USER", "", "  ", "ADMIN"},
			expected: []string{"USER", "ADMIN"},
		},
		{
			name:     "is case sensitive",
			input:    []string{"USER", "user"},
			expected: []string{"USER", "user"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DedupeAndTrim(tt.input))
		})
	}
}
