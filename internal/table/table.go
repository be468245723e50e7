// Package table holds column-oriented tables read from a resource.
//
// A freshly read table is string typed: every cell is a string or nil (null).
// Parsing replaces each column's values in place with typed values:
//
//	string            string
//	number            float64 (NaN and ±Inf allowed)
//	integer, year     int64
//	boolean           bool
//	date, datetime    time.Time
//	geopoint          GeoPoint
//
// nil is null for every type.
package table

import (
	"fmt"
	"strconv"

	"github.com/JonMunkholm/tablecheck/internal/schema"
)

// GeoPoint is a longitude/latitude pair.
type GeoPoint struct {
	Lon float64
	Lat float64
}

func (g GeoPoint) String() string {
	return strconv.FormatFloat(g.Lon, 'g', -1, 64) + ", " + strconv.FormatFloat(g.Lat, 'g', -1, 64)
}

// Column is one named column of a table.
type Column struct {
	Name   string
	Type   schema.FieldType
	Values []any
}

// NewStringColumn builds a raw column. Cells listed in nulls become nil.
func NewStringColumn(name string, cells []string, nulls []string) *Column {
	values := make([]any, len(cells))
	for i, c := range cells {
		if isNull(c, nulls) {
			continue
		}
		values[i] = c
	}
	return &Column{Name: name, Type: schema.TypeString, Values: values}
}

func isNull(s string, nulls []string) bool {
	for _, n := range nulls {
		if s == n {
			return true
		}
	}
	return false
}

// Len returns the number of cells.
func (c *Column) Len() int { return len(c.Values) }

// Clone returns a copy whose value slice can be modified independently.
func (c *Column) Clone() *Column {
	values := make([]any, len(c.Values))
	copy(values, c.Values)
	return &Column{Name: c.Name, Type: c.Type, Values: values}
}

// DropNulls returns the non-null values in order.
func (c *Column) DropNulls() []any {
	out := make([]any, 0, len(c.Values))
	for _, v := range c.Values {
		if v != nil {
			out = append(out, v)
		}
	}
	return out
}

// HasNull reports whether any cell is null.
func (c *Column) HasNull() bool {
	for _, v := range c.Values {
		if v == nil {
			return true
		}
	}
	return false
}

// Table is a named, ordered set of equal-length columns.
type Table struct {
	Name    string
	Columns []*Column
}

// New builds a table and checks that all columns have the same length.
func New(name string, columns ...*Column) (*Table, error) {
	for _, c := range columns[min(1, len(columns)):] {
		if c.Len() != columns[0].Len() {
			return nil, fmt.Errorf("table %s: column %s has %d rows, want %d",
				name, c.Name, c.Len(), columns[0].Len())
		}
	}
	return &Table{Name: name, Columns: columns}, nil
}

// Rows returns the number of rows.
func (t *Table) Rows() int {
	if len(t.Columns) == 0 {
		return 0
	}
	return t.Columns[0].Len()
}

// Column returns the column with the given name.
func (t *Table) Column(name string) (*Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// Select returns the named columns in the given order. ok is false if any
// name is missing.
func (t *Table) Select(names []string) ([]*Column, bool) {
	cols := make([]*Column, len(names))
	for i, n := range names {
		c, ok := t.Column(n)
		if !ok {
			return nil, false
		}
		cols[i] = c
	}
	return cols, true
}

// Tuple returns row i of the given columns.
func Tuple(cols []*Column, i int) []any {
	out := make([]any, len(cols))
	for j, c := range cols {
		out[j] = c.Values[i]
	}
	return out
}
