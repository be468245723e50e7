package parse

import (
	"math"

	"github.com/JonMunkholm/tablecheck/internal/report"
	"github.com/JonMunkholm/tablecheck/internal/schema"
	"github.com/JonMunkholm/tablecheck/internal/table"
)

// ParseConstraint types a constraint literal (a scalar such as a minimum, or
// a list such as an enum) against the field. String literals go through the
// field's own parser; numbers and booleans decoded from the descriptor are
// coerced when the field type can hold them. If any literal does not conform
// a constraint type error is returned; for lists its value holds the distinct
// offending items.
func ParseConstraint(value any, constraint string, f *schema.Field) (any, *report.ConstraintTypeError) {
	conv, _, err := converterFor(f, Options{})
	if err != nil {
		return nil, constraintTypeError(value, constraint, f)
	}

	if list, ok := value.([]any); ok {
		out := make([]any, len(list))
		var bad []any
		seen := make(map[string]bool)
		for i, item := range list {
			typed, ok := typeLiteral(item, conv, f.Type)
			if !ok {
				if k := table.Key(item); !seen[k] {
					seen[k] = true
					bad = append(bad, item)
				}
				continue
			}
			out[i] = typed
		}
		if len(bad) > 0 {
			return nil, constraintTypeError(bad, constraint, f)
		}
		return out, nil
	}

	typed, ok := typeLiteral(value, conv, f.Type)
	if !ok {
		return nil, constraintTypeError(value, constraint, f)
	}
	return typed, nil
}

func constraintTypeError(value any, constraint string, f *schema.Field) *report.ConstraintTypeError {
	return &report.ConstraintTypeError{
		FieldName:       f.Name,
		Constraint:      constraint,
		ConstraintValue: value,
		FieldType:       f.Type,
		FieldFormat:     f.FormatOrDefault(),
	}
}

func typeLiteral(v any, conv converter, t schema.FieldType) (any, bool) {
	if s, ok := v.(string); ok {
		return conv(s)
	}
	return coerce(v, t)
}

// coerce converts a non-string descriptor literal (JSON and YAML decode
// numbers as float64 or int) to the field's value type.
func coerce(v any, t schema.FieldType) (any, bool) {
	switch t {
	case schema.TypeInteger, schema.TypeYear:
		switch x := v.(type) {
		case int64:
			return x, true
		case int:
			return int64(x), true
		case float64:
			if x == math.Trunc(x) && math.Abs(x) < 1<<63 {
				return int64(x), true
			}
		}
	case schema.TypeNumber:
		switch x := v.(type) {
		case float64:
			return x, true
		case int:
			return float64(x), true
		case int64:
			return float64(x), true
		}
	case schema.TypeBoolean:
		switch x := v.(type) {
		case bool:
			return x, true
		case int:
			if x == 0 || x == 1 {
				return x == 1, true
			}
		case float64:
			if x == 0 || x == 1 {
				return x == 1, true
			}
		}
	case schema.TypeGeopoint:
		return coerceGeopoint(v)
	}
	return nil, false
}

func coerceGeopoint(v any) (any, bool) {
	num := func(x any) (float64, bool) {
		switch n := x.(type) {
		case float64:
			return n, true
		case int:
			return float64(n), true
		case int64:
			return float64(n), true
		}
		return 0, false
	}
	switch x := v.(type) {
	case []any:
		if len(x) != 2 {
			return nil, false
		}
		lon, ok1 := num(x[0])
		lat, ok2 := num(x[1])
		if ok1 && ok2 {
			return table.GeoPoint{Lon: lon, Lat: lat}, true
		}
	case map[string]any:
		if len(x) != 2 {
			return nil, false
		}
		lon, ok1 := num(x["lon"])
		lat, ok2 := num(x["lat"])
		if ok1 && ok2 {
			return table.GeoPoint{Lon: lon, Lat: lat}, true
		}
	}
	return nil, false
}
