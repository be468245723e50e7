// Package parse converts raw string columns into typed columns.
//
// Each field type has a converter that maps one raw string to a typed value.
// A column is converted in one pass and every distinct invalid raw value is
// collected, in order of first appearance, into a single type error. Values
// that are already typed (or null) pass through untouched, so parsing a parsed
// column again is a no-op.
//
// These functions handle the awkward corners of textual data:
//   - custom decimal and group characters in numbers
//   - numbers embedded in other text (bareNumber=false)
//   - signed NaN and infinity spellings
//   - strptime date patterns and best-effort date inference
//   - geopoints written as pairs, arrays or objects
package parse

import (
	"fmt"

	"github.com/JonMunkholm/tablecheck/internal/report"
	"github.com/JonMunkholm/tablecheck/internal/schema"
	"github.com/JonMunkholm/tablecheck/internal/table"
)

// Options tune parsing.
type Options struct {
	// FirstInvalidNumber stops parsing a bare number column at its first
	// invalid value. The error then lists only that value.
	FirstInvalidNumber bool

	// FirstInvalidInteger does the same for bare integer columns.
	FirstInvalidInteger bool
}

// firstInvalidNote is attached to errors produced in first-invalid mode.
const firstInvalidNote = "stopped at first invalid value"

// converter parses one raw string. ok is false if the value is invalid.
type converter func(s string) (v any, ok bool)

// ParseField converts a raw column according to the field. It returns either
// the typed column or a type error listing the distinct invalid values. The
// input column is not modified. A non-nil error means the field itself cannot
// be parsed (unsupported type or format) and is a configuration problem.
func ParseField(col *table.Column, f *schema.Field, opts Options) (*table.Column, *report.TypeError, error) {
	conv, stopFirst, err := converterFor(f, opts)
	if err != nil {
		return nil, nil, fmt.Errorf("field %s: %w", f.Name, err)
	}
	values, invalid := convert(col.Values, conv, stopFirst)
	if len(invalid) > 0 {
		te := &report.TypeError{
			FieldName:   f.Name,
			FieldType:   f.Type,
			FieldFormat: f.FormatOrDefault(),
			Values:      invalid,
		}
		if stopFirst {
			te.Note = firstInvalidNote
		}
		return nil, te, nil
	}
	return &table.Column{Name: col.Name, Type: f.Type, Values: values}, nil, nil
}

// ParseTable parses every schema field of t in place. Columns that parse are
// replaced by their typed version; the others are left raw and reported.
// Fields without a column are skipped.
func ParseTable(t *table.Table, s *schema.Schema, opts Options) ([]report.Error, error) {
	var errs []report.Error
	for i := range s.Fields {
		f := &s.Fields[i]
		for j, col := range t.Columns {
			if col.Name != f.Name {
				continue
			}
			typed, te, err := ParseField(col, f, opts)
			if err != nil {
				return nil, err
			}
			if te != nil {
				errs = append(errs, te)
				break
			}
			t.Columns[j] = typed
			break
		}
	}
	return errs, nil
}

func converterFor(f *schema.Field, opts Options) (converter, bool, error) {
	format := f.FormatOrDefault()
	switch f.Type {
	case schema.TypeString:
		conv, err := stringConverter(format)
		return conv, false, err
	case schema.TypeNumber:
		return numberConverter(f), opts.FirstInvalidNumber && f.BareNumber, nil
	case schema.TypeInteger:
		return integerConverter(f.BareNumber), opts.FirstInvalidInteger && f.BareNumber, nil
	case schema.TypeBoolean:
		return booleanConverter(f.TrueValues, f.FalseValues), false, nil
	case schema.TypeDate:
		conv, err := timeConverter(format, false)
		return conv, false, err
	case schema.TypeDatetime:
		conv, err := timeConverter(format, true)
		return conv, false, err
	case schema.TypeYear:
		return parseYear, false, nil
	case schema.TypeGeopoint:
		conv, err := geopointConverter(format)
		return conv, false, err
	}
	return nil, false, fmt.Errorf("%w: %s", schema.ErrUnsupportedType, f.Type)
}

// convert applies conv to every raw string in values. It returns the typed
// values, or the distinct invalid raw values in order of first appearance.
func convert(values []any, conv converter, stopFirst bool) ([]any, []any) {
	out := make([]any, len(values))
	var invalid []any
	var seen map[string]bool
	for i, v := range values {
		s, ok := v.(string)
		if !ok {
			out[i] = v
			continue
		}
		typed, ok := conv(s)
		if ok {
			out[i] = typed
			continue
		}
		if seen == nil {
			seen = make(map[string]bool)
		}
		if !seen[s] {
			seen[s] = true
			invalid = append(invalid, s)
		}
		if stopFirst {
			break
		}
	}
	if len(invalid) > 0 {
		return nil, invalid
	}
	return out, nil
}
