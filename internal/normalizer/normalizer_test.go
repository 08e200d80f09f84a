package normalizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"whitespace and case", "  LOT 20260112 001 ", "LOT-20260112-001"},
		{"lowercase with dashes", "lot-20260112-002", "LOT-20260112-002"},
		{"multiple internal spaces", "LOT  20260112  003", "LOT-20260112-003"},
		{"special characters stripped", "LOT#20260112@001", "LOT20260112001"},
		{"tabs and newlines", "\tLOT\n20260112\t004\n", "LOT-20260112-004"},
		{"repeated separators collapsed", "LOT--20260112---005", "LOT-20260112-005"},
		{"leading and trailing dashes", "-LOT-20260112-006-", "LOT-20260112-006"},
		{"empty", "", ""},
		{"only punctuation", "!!!", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.raw))
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"  LOT 20260112 001 ",
		"lot-20260112-002",
		"LOT  20260112  003",
		"weird #$% input 42",
		"20260112SHIP",
	}
	for _, raw := range inputs {
		once := Normalize(raw)
		assert.Equal(t, once, Normalize(once), "normalize must be idempotent for %q", raw)
	}
}

func TestIsAmbiguous(t *testing.T) {
	tests := []struct {
		name       string
		key        string
		ambiguous  bool
		wantReason string
	}{
		{"empty", "", true, "Empty or None Lot ID"},
		{"too short", "LOT1", true, "Lot ID too short (length: 4, minimum: 5)"},
		{"no alphanumerics", "-----", true, "Lot ID too short (length: 5, minimum: 5)"},
		{"numeric without context", "12345", true, "Ambiguous numeric-only ID without date/line context"},
		{"numeric with dashes still short", "123-4567", true, "Ambiguous numeric-only ID without date/line context"},
		{"dashes do not count toward digit length", "1234-5678-90", true, "Ambiguous numeric-only ID without date/line context"},
		{"numeric long enough for context", "202601120001", false, ""},
		{"dashed numeric with enough digits", "2026-0112-0001", false, ""},
		{"well formed", "LOT-20260112-001", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ambiguous, reason := IsAmbiguous(tt.key)
			assert.Equal(t, tt.ambiguous, ambiguous)
			assert.Equal(t, tt.wantReason, reason)
		})
	}
}

func TestIsAmbiguousShortKeys(t *testing.T) {
	// Every normalized key under five characters is flagged
	for _, raw := range []string{"a", "ab 1", " x-2 ", "1234"} {
		key := Normalize(raw)
		require.Less(t, len(key), 5)
		ambiguous, reason := IsAmbiguous(key)
		assert.True(t, ambiguous, "key %q should be ambiguous", key)
		assert.NotEmpty(t, reason)
	}
}

func TestValidateBatch(t *testing.T) {
	result := ValidateBatch([]string{
		"  LOT 20260112 001 ",
		"lot-20260112-002",
		"ab",
		"12345",
	})

	assert.Equal(t, []string{"LOT-20260112-001", "LOT-20260112-002"}, result.Valid)
	assert.Equal(t, []string{"AB", "12345"}, result.Ambiguous)
	assert.Equal(t, "Lot ID too short (length: 2, minimum: 5)", result.Flags["AB"])
	assert.Equal(t, "Ambiguous numeric-only ID without date/line context", result.Flags["12345"])
}
