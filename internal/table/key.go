package table

import (
	"cmp"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

const tupleSep = "\x1f"

// Key returns a canonical string for a typed value so that values can be
// compared through maps. Equal values of different numeric representations
// (int64 2, float64 2.0, bool true vs 1) share a key. Null has its own key,
// so two nulls are equal.
func Key(v any) string {
	switch x := v.(type) {
	case nil:
		return "~"
	case string:
		return "s" + strconv.Quote(x)
	case int64:
		return "n" + strconv.FormatInt(x, 10)
	case int:
		return "n" + strconv.Itoa(x)
	case float64:
		return "n" + floatKey(x)
	case bool:
		if x {
			return "n1"
		}
		return "n0"
	case time.Time:
		return "t" + x.UTC().Format(time.RFC3339Nano)
	case GeoPoint:
		return "g" + floatKey(x.Lon) + "," + floatKey(x.Lat)
	default:
		return "?" + strconv.Quote(fmt.Sprint(x))
	}
}

func floatKey(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "+Inf"
	case math.IsInf(f, -1):
		return "-Inf"
	case f == math.Trunc(f) && math.Abs(f) < 1<<63:
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// TupleKey joins the keys of a row tuple.
func TupleKey(values []any) string {
	var b strings.Builder
	for i, v := range values {
		if i > 0 {
			b.WriteString(tupleSep)
		}
		b.WriteString(Key(v))
	}
	return b.String()
}

// HasNull reports whether any value of the tuple is null.
func HasNull(values []any) bool {
	for _, v := range values {
		if v == nil {
			return true
		}
	}
	return false
}

// Compare orders two non-null typed values of the same kind. ok is false
// when the values are not comparable, including any comparison with NaN.
func Compare(a, b any) (int, bool) {
	switch x := a.(type) {
	case string:
		y, ok := b.(string)
		if !ok {
			return 0, false
		}
		return strings.Compare(x, y), true
	case time.Time:
		y, ok := b.(time.Time)
		if !ok {
			return 0, false
		}
		return x.Compare(y), true
	}

	fa, okA := asFloat(a)
	fb, okB := asFloat(b)
	if !okA || !okB || math.IsNaN(fa) || math.IsNaN(fb) {
		return 0, false
	}
	ia, intA := a.(int64)
	ib, intB := b.(int64)
	if intA && intB {
		return cmp.Compare(ia, ib), true
	}
	return cmp.Compare(fa, fb), true
}

func asFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case int64:
		return float64(x), true
	case int:
		return float64(x), true
	case float64:
		return x, true
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}
