package parse

import (
	"strconv"
	"testing"

	"github.com/JonMunkholm/tablecheck/internal/schema"
	"github.com/JonMunkholm/tablecheck/internal/table"
)

// ============================================================================
// Column Parsing Benchmarks
// ============================================================================

func benchColumn(n int, gen func(i int) string) *table.Column {
	cells := make([]string, n)
	for i := range cells {
		cells[i] = gen(i)
	}
	return table.NewStringColumn("x", cells, []string{""})
}

// BenchmarkParseNumber benchmarks bare number parsing, the most common
// numeric path.
func BenchmarkParseNumber(b *testing.B) {
	col := benchColumn(10000, func(i int) string { return strconv.FormatFloat(float64(i)*1.25, 'f', 2, 64) })
	f := newField(schema.TypeNumber, "")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ParseField(col, f, Options{})
	}
}

// BenchmarkParseNumber_WithText benchmarks extraction of embedded numbers.
func BenchmarkParseNumber_WithText(b *testing.B) {
	col := benchColumn(10000, func(i int) string { return "$ " + strconv.Itoa(i) + ".99 USD" })
	f := newField(schema.TypeNumber, "")
	f.BareNumber = false

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ParseField(col, f, Options{})
	}
}

// BenchmarkParseInteger benchmarks bare integer parsing.
func BenchmarkParseInteger(b *testing.B) {
	col := benchColumn(10000, strconv.Itoa)
	f := newField(schema.TypeInteger, "")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ParseField(col, f, Options{})
	}
}

// BenchmarkParseDate benchmarks the default date pattern.
func BenchmarkParseDate(b *testing.B) {
	col := benchColumn(10000, func(i int) string { return "2024-01-" + strconv.Itoa(i%28+10) })
	f := newField(schema.TypeDate, "")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ParseField(col, f, Options{})
	}
}

// BenchmarkParseDate_Any benchmarks layout inference.
func BenchmarkParseDate_Any(b *testing.B) {
	layouts := []string{"2024-01-15", "01/15/2024", "Jan 15, 2024", "20240115", "1/5/24"}
	col := benchColumn(10000, func(i int) string { return layouts[i%len(layouts)] })
	f := newField(schema.TypeDate, schema.FormatAny)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ParseField(col, f, Options{})
	}
}

// BenchmarkParseEmail benchmarks the email format check.
func BenchmarkParseEmail(b *testing.B) {
	col := benchColumn(10000, func(i int) string { return "user" + strconv.Itoa(i) + "@example.com" })
	f := newField(schema.TypeString, schema.FormatEmail)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ParseField(col, f, Options{})
	}
}
