package quality

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	pipeerrors "retaildq/internal/errors"
)

// phoneDigits is the canonical phone length. Numbers longer than this
// are truncated, an accepted lossy behavior: intent behind over-long
// numbers (international prefix vs data-entry error) is ambiguous in
// the source data, so they are not flagged as malformed.
const phoneDigits = 11

// dateLayouts are tried in order by NormalizeDate. The snapshot
// extracts mix ISO dates, ISO datetimes and day-first/slash formats.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006/01/02",
	"02/01/2006",
	"01/02/2006",
	"02-01-2006",
}

// NormalizeEmail trims whitespace and lowercases. Missing input maps
// to the empty string. Address validity is a quality flag computed
// during enrichment, not a correction.
func NormalizeEmail(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}

// NormalizePhone strips every non-digit character and forces the
// result to exactly 11 digits: shorter values are left-padded with
// zeros, longer values keep only the first 11 digits. Missing input
// maps to the empty string.
func NormalizePhone(v string) string {
	var b strings.Builder
	for _, r := range v {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if digits == "" {
		return ""
	}
	if len(digits) > phoneDigits {
		return digits[:phoneDigits]
	}
	return strings.Repeat("0", phoneDigits-len(digits)) + digits
}

// NormalizeDate parses v against the known snapshot layouts and
// returns the ISO date. Any failure, including empty input, returns
// the empty-string sentinel meaning unparseable or missing; dates are
// never carried as a distinct null state.
func NormalizeDate(v string) string {
	s := strings.TrimSpace(v)
	if s == "" {
		return ""
	}
	for _, layout := range dateLayouts {
		if d, err := time.Parse(layout, s); err == nil {
			return d.Format("2006-01-02")
		}
	}
	return ""
}

// ParseDate parses an already-normalized ISO date. The bool result is
// false for the empty sentinel or anything else unparseable.
func ParseDate(v string) (time.Time, bool) {
	d, err := time.Parse("2006-01-02", v)
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}

// ClampMin parses v as a number and floors it at min. Unparseable
// input is a value error the caller must resolve: correctors degrade
// it to the minimum, the alert and rule layers count it. asInt
// controls whether the canonical output is an integer.
func ClampMin(v string, min float64, asInt bool) (string, error) {
	s := strings.ReplaceAll(strings.TrimSpace(v), ",", "")
	if s == "" {
		return "", pipeerrors.New(pipeerrors.CodeValue, "quality.ClampMin",
			fmt.Errorf("empty numeric value"))
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return "", pipeerrors.New(pipeerrors.CodeValue, "quality.ClampMin",
			fmt.Errorf("unparseable numeric value %q", v))
	}
	if f < min {
		f = min
	}
	return FormatNumber(f, asInt), nil
}

// ClampNonNegative floors a numeric value at zero.
func ClampNonNegative(v string, asInt bool) (string, error) {
	return ClampMin(v, 0, asInt)
}

// FormatNumber renders the canonical string form written to corrected
// tables: integers without a fraction, floats with the shortest exact
// representation.
func FormatNumber(f float64, asInt bool) string {
	if asInt {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// ParseFloat parses a corrected-table numeric value. The bool result
// is false for empty or unparseable input.
func ParseFloat(v string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
