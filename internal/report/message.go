package report

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/JonMunkholm/tablecheck/internal/table"
)

// Message renders the human readable message of an error.
func Message(e Error) string {
	switch x := e.(type) {
	case *TypeError:
		msg := fmt.Sprintf("Values in %s are not type: %s and format: %s",
			x.FieldName, x.FieldType, x.FieldFormat)
		if x.Note != "" {
			msg += " (" + x.Note + ")"
		}
		return msg
	case *ConstraintTypeError:
		return fmt.Sprintf("Constraint %s: %s for %s is not type: %s and format: %s",
			x.Constraint, FormatValue(x.ConstraintValue), x.FieldName, x.FieldType, x.FieldFormat)
	case *ConstraintError:
		return fmt.Sprintf("Values in %s violate constraint %s: %s",
			x.FieldName, x.Constraint, FormatValue(x.ConstraintValue))
	case *PrimaryKeyError:
		return fmt.Sprintf("Rows violate primaryKey: %s", FormatValue(x.Key))
	case *UniqueKeyError:
		return fmt.Sprintf("Rows violate uniqueKey: %s", FormatValue(x.Key))
	case *ForeignKeyError:
		return fmt.Sprintf("Rows in %s violate foreignKey: %s", x.Resource, FormatValue(x.ForeignKey))
	case *HeaderError:
		switch x.Problem {
		case HeaderBlank:
			return fmt.Sprintf("Header in column %d is blank", x.Column)
		case HeaderDuplicate:
			return fmt.Sprintf("Header %q in column %d is duplicated", x.Header, x.Column)
		case HeaderExtra:
			return fmt.Sprintf("Header %q in column %d is not in the schema", x.Header, x.Column)
		}
		return fmt.Sprintf("Field %q is missing from the header", x.Header)
	case *SourceError:
		if x.Source == "" {
			return "Source could not be read: " + x.Note
		}
		return fmt.Sprintf("Source %s could not be read: %s", x.Source, x.Note)
	}
	return "unknown error"
}

// FormatValue renders a value for messages. Strings are written as is and
// everything else as JSON.
func FormatValue(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	b, err := json.Marshal(JSONValue(v))
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}

// JSONValue converts a typed value into a value that encodes to JSON without
// loss of meaning: non-finite floats become "NaN", "Infinity" and
// "-Infinity", dates (midnight UTC) become YYYY-MM-DD, other timestamps
// RFC 3339 and geopoints [lon, lat].
func JSONValue(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case float64:
		return jsonFloat(x)
	case time.Time:
		if x.Location() == time.UTC && x.Hour() == 0 && x.Minute() == 0 && x.Second() == 0 && x.Nanosecond() == 0 {
			return x.Format(time.DateOnly)
		}
		return x.Format(time.RFC3339Nano)
	case table.GeoPoint:
		return []any{jsonFloat(x.Lon), jsonFloat(x.Lat)}
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = JSONValue(e)
		}
		return out
	case [][]any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = JSONValue(e)
		}
		return out
	}
	return v
}

func jsonFloat(f float64) any {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	return f
}

// Text renders a typed value as plain text, as used in CLI output.
func Text(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case string:
		return x
	case float64:
		if s, ok := jsonFloat(x).(string); ok {
			return s
		}
		return strconv.FormatFloat(x, 'g', -1, 64)
	case []any:
		parts := make([]string, len(x))
		for i, e := range x {
			parts[i] = Text(e)
		}
		return "(" + strings.Join(parts, ", ") + ")"
	}
	if s, ok := JSONValue(v).(string); ok {
		return s
	}
	return FormatValue(v)
}
