package clean

// parse.go turns normalized text cells into typed values.
//
// Date detection tries four-digit-year layouts first because they are
// unambiguous, then two-digit-year layouts. Slash and dash dates are read
// month-first.

import (
	"math"
	"strconv"
	"strings"
	"time"
)

var (
	fourDigitYearLayouts = []string{
		"2006-01-02",
		"2006-01-02 15:04:05",
		"2006-01-02 15:04",
		"2006-01-02T15:04:05",
		time.RFC3339,
		time.RFC3339Nano,
		"2006/01/02", "2006.01.02",
		"1/2/2006", "01/02/2006", "1-2-2006", "01-02-2006",
		"1/2/2006 15:04", "1/2/2006 15:04:05",
		"Jan 2, 2006", "January 2, 2006", "2 Jan 2006", "2 January 2006",
	}
	twoDigitYearLayouts = []string{
		"1/2/06", "01/02/06", "1-2-06", "01-02-06",
	}
)

// ParseTime parses s as a date or date-time. s must already be trimmed.
// Two-digit years follow the fixed time package rule: 69-99 are 19xx and
// 00-68 are 20xx, so the result never depends on the clock.
func ParseTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}

	for _, layout := range fourDigitYearLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}

	for _, layout := range twoDigitYearLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}

	return time.Time{}, false
}

// ParseInt parses s as a base-10 integer with an optional sign.
func ParseInt(s string) (int64, bool) {
	if s == "" {
		return 0, false
	}
	i, err := strconv.ParseInt(s, 10, 64)
	return i, err == nil
}

// ParseFloat parses s as a finite decimal or scientific-notation number.
// Spellings like "NaN" and "Inf" are rejected, as are hex floats and
// underscores.
func ParseFloat(s string) (float64, bool) {
	if s == "" || strings.ContainsAny(s, "_xXpPnNiI") {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}
