// Package normalizer derives canonical lot keys from the raw identifiers
// found in production, quality, and shipping feeds, and flags identifiers
// too degenerate to trust as a matching key.
package normalizer

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/mkarvon/lotline/internal/datastore"
	"github.com/mkarvon/lotline/internal/logging"
)

// minKeyLength is the shortest canonical key accepted without flagging.
const minKeyLength = 5

// numericContextLength is the digit count below which a digits-only key is
// considered context-free. A full embedded date plus a sequence number
// pushes a real key past this.
const numericContextLength = 12

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	disallowed    = regexp.MustCompile(`[^A-Z0-9-]`)
	dashRun       = regexp.MustCompile(`-{2,}`)
)

// Normalize converts a raw lot identifier into its canonical form: trimmed,
// uppercased, internal whitespace runs collapsed to a single dash, and every
// other character outside [A-Z0-9-] dropped. Empty input stays empty.
// Normalize is idempotent.
func Normalize(raw string) string {
	if raw == "" {
		return ""
	}

	key := strings.TrimSpace(raw)
	key = strings.ToUpper(key)
	key = whitespaceRun.ReplaceAllString(key, "-")
	key = disallowed.ReplaceAllString(key, "")
	key = dashRun.ReplaceAllString(key, "-")
	return strings.Trim(key, "-")
}

// IsAmbiguous reports whether a canonical key is too generic or malformed to
// serve as a matching key, with a human-readable reason. Degenerate input is
// data, not an error.
func IsAmbiguous(key string) (bool, string) {
	if key == "" {
		return true, "Empty or None Lot ID"
	}
	if len(key) < minKeyLength {
		return true, fmt.Sprintf("Lot ID too short (length: %d, minimum: %d)", len(key), minKeyLength)
	}
	if !containsAlphanumeric(key) {
		return true, "No alphanumeric characters found"
	}
	// A pure number is too easily collided across lots and lines unless it
	// is long enough to embed date or line context
	if digits := strings.ReplaceAll(key, "-", ""); digits != "" && isAllDigits(digits) && len(digits) < numericContextLength {
		return true, "Ambiguous numeric-only ID without date/line context"
	}
	return false, ""
}

func containsAlphanumeric(s string) bool {
	for _, r := range s {
		if (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			return true
		}
	}
	return false
}

func isAllDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// BatchResult classifies a batch of raw identifiers after normalization.
type BatchResult struct {
	Valid     []string
	Ambiguous []string
	Flags     map[string]string // ambiguous key -> reason
}

// ValidateBatch normalizes each raw identifier and splits the results into
// valid and ambiguous keys.
func ValidateBatch(rawIDs []string) BatchResult {
	result := BatchResult{Flags: make(map[string]string)}
	for _, raw := range rawIDs {
		key := Normalize(raw)
		if ambiguous, reason := IsAmbiguous(key); ambiguous {
			result.Ambiguous = append(result.Ambiguous, key)
			result.Flags[key] = reason
		} else {
			result.Valid = append(result.Valid, key)
		}
	}
	return result
}

// Auditor appends normalization outcomes to the durable audit trail.
type Auditor struct {
	ds  datastore.Interface
	log *slog.Logger
}

// NewAuditor returns an auditor writing through the given datastore.
func NewAuditor(ds datastore.Interface) *Auditor {
	log := logging.ForService("normalizer")
	if log == nil {
		log = slog.Default().With("service", "normalizer")
	}
	return &Auditor{ds: ds, log: log}
}

// RecordNormalization appends one audit entry. The append is best-effort: a
// write failure is logged and reported, but callers must not let it abort
// their primary operation.
func (a *Auditor) RecordNormalization(original, normalized, status, reason string) bool {
	audit := &datastore.NormalizationAudit{
		OriginalLotNumber:   original,
		NormalizedLotNumber: normalized,
		ValidationStatus:    status,
		FlagReason:          reason,
	}
	if err := a.ds.SaveNormalizationAudit(audit); err != nil {
		a.log.Error("Failed to record normalization",
			"original", original,
			"normalized", normalized,
			"status", status,
			"error", err)
		return false
	}
	return true
}
