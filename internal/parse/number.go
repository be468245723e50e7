package parse

import (
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/JonMunkholm/tablecheck/internal/schema"
)

var (
	// floatRegex is the full grammar of a bare float literal: optional sign,
	// digits with single underscores between them, optional fraction and
	// exponent, or a nan/inf/infinity spelling.
	floatRegex = regexp.MustCompile(`(?i)^[+-]?(?:nan|inf(?:inity)?|(?:\d(?:_?\d)*(?:\.(?:\d(?:_?\d)*)?)?|\.\d(?:_?\d)*)(?:e[+-]?\d(?:_?\d)*)?)$`)

	// numberPattern finds numbers embedded in other text.
	numberPattern = regexp.MustCompile(`(?i)[+-]?(?:nan|inf(?:inity)?|(?:[0-9]+(?:\.[0-9]*)?|\.[0-9]+)(?:e[+-]?[0-9]+)?)`)

	intRegex       = regexp.MustCompile(`^[+-]?\d(?:_?\d)*$`)
	integerPattern = regexp.MustCompile(`[+-]?[0-9]+`)
)

// parseFloat parses a bare float literal. Surrounding whitespace is allowed.
func parseFloat(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if !floatRegex.MatchString(s) {
		return 0, false
	}
	s = strings.ReplaceAll(s, "_", "")

	sign := 1.0
	body := s
	switch body[0] {
	case '-':
		sign = -1
		body = body[1:]
	case '+':
		body = body[1:]
	}
	switch strings.ToLower(body) {
	case "nan":
		return math.Copysign(math.NaN(), sign), true
	case "inf", "infinity":
		return math.Inf(int(sign)), true
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0, false
	}
	// Out of range values round to ±Inf or zero.
	return f, true
}

// normalizeNumber removes group characters and rewrites the decimal
// character as a dot.
func normalizeNumber(s, decimalChar, groupChar string) string {
	if groupChar != "" {
		s = strings.ReplaceAll(s, groupChar, "")
	}
	if decimalChar != "" && decimalChar != "." {
		s = strings.ReplaceAll(s, decimalChar, ".")
	}
	return s
}

func numberConverter(f *schema.Field) converter {
	decimalChar, groupChar, bare := f.DecimalChar, f.GroupChar, f.BareNumber
	return func(s string) (any, bool) {
		s = normalizeNumber(s, decimalChar, groupChar)
		if bare {
			v, ok := parseFloat(s)
			return v, ok
		}
		matches := numberPattern.FindAllString(s, 2)
		if len(matches) != 1 {
			return nil, false
		}
		v, ok := parseFloat(matches[0])
		return v, ok
	}
}

// parseInt parses a bare integer with optional sign, leading zeros and
// single underscores between digits. Values outside int64 are invalid.
func parseInt(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	if !intRegex.MatchString(s) {
		return 0, false
	}
	n, err := strconv.ParseInt(strings.ReplaceAll(s, "_", ""), 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// extractInt parses the single integer embedded in s.
func extractInt(s string) (int64, bool) {
	matches := integerPattern.FindAllString(s, 2)
	if len(matches) != 1 {
		return 0, false
	}
	return parseInt(matches[0])
}

func integerConverter(bare bool) converter {
	if bare {
		return func(s string) (any, bool) {
			n, ok := parseInt(s)
			return n, ok
		}
	}
	return func(s string) (any, bool) {
		n, ok := extractInt(s)
		return n, ok
	}
}

// parseYear accepts any single embedded integer, including negative years
// and years past 9999.
func parseYear(s string) (any, bool) {
	n, ok := extractInt(s)
	return n, ok
}
