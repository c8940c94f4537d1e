package quality

import (
	"strconv"
	"strings"
)

// placeholderTokens are string values that stand in for missing data but are
// not stored as actual nulls. Matching is case-insensitive after trimming.
var placeholderTokens = map[string]struct{}{
	"??":   {},
	"n/a":  {},
	"na":   {},
	"null": {},
	"none": {},
}

// Classify categorizes a single cell value given its column's declared kind.
// It is pure and total: values it cannot make sense of classify as valid.
// The metrics engine and the problem detector both count through this
// function, so their per-cell tallies always agree.
func Classify(cell Cell, kind Kind) CellClass {
	if cell.Null {
		return ClassNull
	}

	trimmed := strings.TrimSpace(cell.Value)
	if trimmed == "" {
		return ClassEmpty
	}

	if _, ok := placeholderTokens[strings.ToLower(trimmed)]; ok {
		return ClassPlaceholder
	}

	if kind == KindNumeric {
		if _, err := strconv.ParseFloat(strings.ReplaceAll(trimmed, ",", ""), 64); err != nil {
			return ClassOutOfRange
		}
	}

	return ClassValid
}

// IsPlaceholderToken reports whether the raw value is one of the fixed
// placeholder tokens. Used by role validators that penalize placeholders
// harder than merely invalid values.
func IsPlaceholderToken(value string) bool {
	_, ok := placeholderTokens[strings.ToLower(strings.TrimSpace(value))]
	return ok
}
