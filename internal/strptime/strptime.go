// Package strptime parses dates and times described by C-style directive
// patterns such as "%Y-%m-%dT%H:%M:%S%z".
//
// Matching follows the conventions of the C library and its common ports:
//   - numeric directives accept unpadded values ("%m" matches "1" and "01")
//   - literal text and names compare case-insensitively
//   - a run of whitespace in the pattern matches one or more whitespace
//     characters in the value
//   - the whole value must be consumed
//
// Parsed components are range checked and the calendar date must exist, so
// "2021-02-29" and "2020-13-01" are rejected rather than normalised.
package strptime

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// ErrUnsupportedDirective is returned for directives this package cannot parse.
var ErrUnsupportedDirective = errors.New("unsupported directive")

// ErrNoMatch is returned when a value does not match its pattern.
var ErrNoMatch = errors.New("value does not match pattern")

var (
	monthNames = []string{"january", "february", "march", "april", "may", "june",
		"july", "august", "september", "october", "november", "december"}
	dayNames = []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}
)

// supported lists every directive accepted after '%'.
const supported = "YymdHIMSfpbBhaAjzZ%"

// Check reports whether pattern only uses supported directives.
func Check(pattern string) error {
	for i := 0; i < len(pattern); i++ {
		if pattern[i] != '%' {
			continue
		}
		if i+1 >= len(pattern) {
			return fmt.Errorf("%w: trailing %%", ErrUnsupportedDirective)
		}
		i++
		if !strings.ContainsRune(supported, rune(pattern[i])) {
			return fmt.Errorf("%w: %%%c", ErrUnsupportedDirective, pattern[i])
		}
	}
	return nil
}

type fields struct {
	year, month, day     int
	hour, minute, second int
	nanos                int
	hour12               int
	pm, hasPM, has12     bool
	yday                 int
	loc                  *time.Location
}

// Parse parses value according to pattern. Values without a %z or %Z
// directive are returned in UTC.
func Parse(value, pattern string) (time.Time, error) {
	f := fields{year: 1900, month: 1, day: 1, yday: -1}
	s := value
	p := pattern

	for len(p) > 0 {
		c := p[0]
		switch {
		case c == '%':
			if len(p) < 2 {
				return time.Time{}, fmt.Errorf("%w: trailing %%", ErrUnsupportedDirective)
			}
			rest, err := f.directive(p[1], s)
			if err != nil {
				return time.Time{}, err
			}
			s = rest
			p = p[2:]
		case isSpace(c):
			p = strings.TrimLeftFunc(p, unicode.IsSpace)
			trimmed := strings.TrimLeftFunc(s, unicode.IsSpace)
			if len(trimmed) == len(s) {
				return time.Time{}, ErrNoMatch
			}
			s = trimmed
		default:
			if len(s) == 0 || !equalFold(s[0], c) {
				return time.Time{}, ErrNoMatch
			}
			s = s[1:]
			p = p[1:]
		}
	}
	if s != "" {
		return time.Time{}, fmt.Errorf("%w: unconverted data remains: %q", ErrNoMatch, s)
	}
	return f.time()
}

func (f *fields) directive(d byte, s string) (string, error) {
	var (
		n    int
		rest string
		ok   bool
	)
	switch d {
	case 'Y':
		n, rest, ok = fixedDigits(s, 4)
		f.year = n
	case 'y':
		n, rest, ok = fixedDigits(s, 2)
		if n <= 68 {
			f.year = 2000 + n
		} else {
			f.year = 1900 + n
		}
	case 'm':
		n, rest, ok = ranged(s, 2, 1, 12)
		f.month = n
	case 'd':
		if strings.HasPrefix(s, " ") {
			s = s[1:]
		}
		n, rest, ok = ranged(s, 2, 1, 31)
		f.day = n
	case 'H':
		n, rest, ok = ranged(s, 2, 0, 23)
		f.hour = n
	case 'I':
		n, rest, ok = ranged(s, 2, 1, 12)
		f.hour12, f.has12 = n, true
	case 'M':
		n, rest, ok = ranged(s, 2, 0, 59)
		f.minute = n
	case 'S':
		n, rest, ok = ranged(s, 2, 0, 59)
		f.second = n
	case 'j':
		n, rest, ok = ranged(s, 3, 1, 366)
		f.yday = n
	case 'f':
		rest, ok = f.fraction(s)
	case 'p':
		switch {
		case len(s) >= 2 && strings.EqualFold(s[:2], "am"):
			f.pm, f.hasPM = false, true
			rest, ok = s[2:], true
		case len(s) >= 2 && strings.EqualFold(s[:2], "pm"):
			f.pm, f.hasPM = true, true
			rest, ok = s[2:], true
		}
	case 'b', 'h':
		n, rest, ok = name(s, monthNames, true)
		f.month = n + 1
	case 'B':
		n, rest, ok = name(s, monthNames, false)
		f.month = n + 1
	case 'a':
		_, rest, ok = name(s, dayNames, true)
	case 'A':
		_, rest, ok = name(s, dayNames, false)
	case 'z':
		rest, ok = f.offset(s)
	case 'Z':
		for _, tz := range []string{"UTC", "GMT"} {
			if len(s) >= 3 && strings.EqualFold(s[:3], tz) {
				f.loc = time.UTC
				rest, ok = s[3:], true
				break
			}
		}
	case '%':
		if strings.HasPrefix(s, "%") {
			rest, ok = s[1:], true
		}
	default:
		return "", fmt.Errorf("%w: %%%c", ErrUnsupportedDirective, d)
	}
	if !ok {
		return "", fmt.Errorf("%w: %%%c", ErrNoMatch, d)
	}
	return rest, nil
}

func (f *fields) fraction(s string) (string, bool) {
	i := 0
	for i < len(s) && i < 6 && isDigit(s[i]) {
		i++
	}
	if i == 0 {
		return s, false
	}
	n := 0
	for _, c := range s[:i] {
		n = n*10 + int(c-'0')
	}
	for k := i; k < 9; k++ {
		n *= 10
	}
	f.nanos = n
	return s[i:], true
}

// offset parses "Z" or a UTC offset of the form +HH[:]MM[[:]SS].
func (f *fields) offset(s string) (string, bool) {
	if strings.HasPrefix(s, "Z") {
		f.loc = time.UTC
		return s[1:], true
	}
	if len(s) < 5 || (s[0] != '+' && s[0] != '-') {
		return s, false
	}
	sign := 1
	if s[0] == '-' {
		sign = -1
	}
	rest := s[1:]
	hh, rest, ok := fixedDigits(rest, 2)
	if !ok {
		return s, false
	}
	colon := strings.HasPrefix(rest, ":")
	if colon {
		rest = rest[1:]
	}
	mm, rest, ok := fixedDigits(rest, 2)
	if !ok || mm > 59 {
		return s, false
	}
	ss := 0
	if colon && strings.HasPrefix(rest, ":") || !colon && len(rest) >= 2 && isDigit(rest[0]) && isDigit(rest[1]) {
		if colon {
			rest = rest[1:]
		}
		ss, rest, ok = fixedDigits(rest, 2)
		if !ok || ss > 59 {
			return s, false
		}
	}
	secs := sign * (hh*3600 + mm*60 + ss)
	if secs == 0 {
		f.loc = time.UTC
	} else {
		f.loc = time.FixedZone("", secs)
	}
	return rest, true
}

func (f *fields) time() (time.Time, error) {
	hour := f.hour
	if f.has12 {
		// Without %p, 12 is midnight.
		hour = f.hour12 % 12
		if f.hasPM && f.pm {
			hour += 12
		}
	}
	if f.year < 1 {
		return time.Time{}, fmt.Errorf("%w: year %d out of range", ErrNoMatch, f.year)
	}
	month, day := f.month, f.day
	if f.yday > 0 {
		if f.yday > daysIn(f.year) {
			return time.Time{}, fmt.Errorf("%w: day of year %d out of range", ErrNoMatch, f.yday)
		}
		d := time.Date(f.year, time.January, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, f.yday-1)
		month, day = int(d.Month()), d.Day()
	}
	if day > daysInMonth(f.year, time.Month(month)) {
		return time.Time{}, fmt.Errorf("%w: day %d out of range for month %d", ErrNoMatch, day, month)
	}
	loc := f.loc
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(f.year, time.Month(month), day, hour, f.minute, f.second, f.nanos, loc), nil
}

// ranged reads one to width digits, preferring the longest reading that
// falls within [lo, hi].
func ranged(s string, width, lo, hi int) (int, string, bool) {
	i := 0
	for i < len(s) && i < width && isDigit(s[i]) {
		i++
	}
	for ; i > 0; i-- {
		n := 0
		for _, c := range s[:i] {
			n = n*10 + int(c-'0')
		}
		if n >= lo && n <= hi {
			return n, s[i:], true
		}
	}
	return 0, s, false
}

func fixedDigits(s string, width int) (int, string, bool) {
	if len(s) < width {
		return 0, s, false
	}
	n := 0
	for i := 0; i < width; i++ {
		if !isDigit(s[i]) {
			return 0, s, false
		}
		n = n*10 + int(s[i]-'0')
	}
	return n, s[width:], true
}

// name matches a full or three-letter abbreviated name, returning its index.
func name(s string, names []string, abbrev bool) (int, string, bool) {
	for i, n := range names {
		if abbrev {
			n = n[:3]
		}
		if len(s) >= len(n) && strings.EqualFold(s[:len(n)], n) {
			return i, s[len(n):], true
		}
	}
	return 0, s, false
}

func daysIn(year int) int {
	if isLeap(year) {
		return 366
	}
	return 365
}

func daysInMonth(year int, m time.Month) int {
	switch m {
	case time.February:
		if isLeap(year) {
			return 29
		}
		return 28
	case time.April, time.June, time.September, time.November:
		return 30
	}
	return 31
}

func isLeap(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v'
}

func equalFold(a, b byte) bool {
	if a == b {
		return true
	}
	if a >= utf8.RuneSelf || b >= utf8.RuneSelf {
		return false
	}
	return unicode.ToLower(rune(a)) == unicode.ToLower(rune(b))
}
