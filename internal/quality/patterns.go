package quality

import (
	"regexp"
	"strings"
	"time"
	"unicode"
)

// hoyLiteral is the literal token some source systems write instead of the
// actual capture date. It parses as nothing and corrupts every date column
// it appears in.
const hoyLiteral = "hoy"

// typoCorrections maps known garbled tokens to their intended value. The
// detector reports matches with the suggested correction; the metrics engine
// counts them toward the whole-sheet severe-pattern penalty.
var typoCorrections = map[string]string{
	"PREGARDO":      "PREGRADO",
	"POSGARDO":      "POSGRADO",
	"INGENEIRIA":    "INGENIERIA",
	"ADMINISTRACON": "ADMINISTRACION",
	hoyLiteral:      "fecha real de registro",
}

var (
	emailRE = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

	// malformedPeriodRE matches period tokens whose term is outside 1..2,
	// e.g. "2024-13" or "2023-0", a recurring upstream corruption.
	malformedPeriodRE = regexp.MustCompile(`^\d{4}-(0|[3-9]|\d{2,})$`)

	// longDigitsRE matches numerically implausible identifiers: bare digit
	// runs far longer than any document or phone number.
	longDigitsRE = regexp.MustCompile(`^\d{13,}$`)

	slashDateRE = regexp.MustCompile(`^\d{1,2}/\d{1,2}/\d{4}$`)
	isoDateRE   = regexp.MustCompile(`^\d{4}-\d{1,2}-\d{1,2}$`)
)

// dateLayouts are the accepted date formats, tried in order.
var dateLayouts = []string{
	"02/01/2006",
	"2/1/2006",
	"2006-01-02",
	"02-01-2006",
	"2006/01/02",
}

// ValidEmail reports whether value matches the standard local@domain.tld form.
func ValidEmail(value string) bool {
	return emailRE.MatchString(strings.TrimSpace(value))
}

// ParseDate parses value against the accepted layouts.
func ParseDate(value string) (time.Time, bool) {
	trimmed := strings.TrimSpace(value)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// dateStyle buckets a date value into one of the format families used by the
// consistency metric.
type dateStyle int

const (
	styleSlash dateStyle = iota // dd/mm/yyyy
	styleISO                    // yyyy-mm-dd
	styleHoy                    // the "hoy" literal
	styleOther
)

func classifyDateStyle(value string) dateStyle {
	trimmed := strings.TrimSpace(value)
	if strings.EqualFold(trimmed, hoyLiteral) {
		return styleHoy
	}
	if slashDateRE.MatchString(trimmed) {
		return styleSlash
	}
	if isoDateRE.MatchString(trimmed) {
		return styleISO
	}
	return styleOther
}

// severeMatch reports whether value hits the severe-pattern dictionary: a
// known typo token, a malformed date-period token, or an implausibly long
// digit string.
func severeMatch(value string) bool {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return false
	}
	upper := strings.ToUpper(trimmed)
	for token := range typoCorrections {
		if strings.ToUpper(token) == upper {
			return true
		}
	}
	return malformedPeriodRE.MatchString(trimmed) || longDigitsRE.MatchString(trimmed)
}

// typoCorrectionFor returns the suggested correction for a garbled token.
func typoCorrectionFor(value string) (string, bool) {
	trimmed := strings.TrimSpace(value)
	for token, fix := range typoCorrections {
		if strings.EqualFold(trimmed, token) {
			return fix, true
		}
	}
	return "", false
}

// allDigits reports whether value consists solely of decimal digits.
func allDigits(value string) bool {
	if value == "" {
		return false
	}
	for _, r := range value {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
