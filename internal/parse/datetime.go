package parse

import (
	"fmt"
	"strings"
	"time"

	"github.com/JonMunkholm/tablecheck/internal/schema"
	"github.com/JonMunkholm/tablecheck/internal/strptime"
)

// Default patterns for date and datetime fields.
const (
	defaultDatePattern     = "%Y-%m-%d"
	defaultDatetimePattern = "%Y-%m-%dT%H:%M:%S%z"
)

// TwoDigitYearPivot defines how two-digit years are read by format "any".
// Years that would land more than this many years in the future are moved
// to the previous century.
var TwoDigitYearPivot = 20

// Layouts tried by format "any", split by year width so that two-digit
// years can be pivoted. Month-first is assumed for numeric dates.
var (
	fourDigitYearLayouts = []string{
		time.RFC3339Nano,
		"2006-01-02T15:04:05",
		"2006-01-02T15:04",
		"2006-01-02 15:04:05Z07:00",
		"2006-01-02 15:04:05",
		"2006-01-02 15:04",
		"2006-01-02",
		"2006/01/02 15:04:05",
		"2006/01/02",
		"2006.01.02",
		"1/2/2006 15:04:05",
		"1/2/2006 15:04",
		"1/2/2006 3:04 PM",
		"1/2/2006",
		"1-2-2006",
		"1.2.2006",
		"Jan 2, 2006 15:04:05",
		"Jan 2, 2006",
		"January 2, 2006",
		"2 Jan 2006 15:04:05",
		"2 Jan 2006",
		"2 January 2006",
		"02-Jan-2006",
		time.RFC1123Z,
		time.RFC1123,
		"20060102T150405Z0700",
		"20060102",
	}
	twoDigitYearLayouts = []string{
		"1/2/06 15:04",
		"1/2/06",
		"1-2-06",
		"1.2.06",
		"02-Jan-06",
	}
)

func timeConverter(format string, datetime bool) (converter, error) {
	pattern := format
	switch {
	case format == schema.FormatDefault:
		pattern = defaultDatePattern
		if datetime {
			pattern = defaultDatetimePattern
		}
	case format == schema.FormatAny:
		return func(s string) (any, bool) {
			t, ok := inferTime(s)
			return t, ok
		}, nil
	case strings.Contains(format, "%"):
		if err := strptime.Check(format); err != nil {
			return nil, fmt.Errorf("%w: %q: %v", schema.ErrUnknownFormat, format, err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", schema.ErrUnknownFormat, format)
	}
	return func(s string) (any, bool) {
		t, err := strptime.Parse(s, pattern)
		if err != nil {
			return nil, false
		}
		return t, true
	}, nil
}

// inferTime tries the known layouts in order, four-digit years first.
func inferTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range fourDigitYearLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}

	pivotYear := time.Now().Year() + TwoDigitYearPivot
	for _, layout := range twoDigitYearLayouts {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		if t.Year() > pivotYear {
			t = t.AddDate(-100, 0, 0)
		}
		return t, true
	}
	return time.Time{}, false
}
