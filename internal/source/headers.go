package source

import (
	"strings"

	"github.com/JonMunkholm/tablecheck/internal/report"
	"github.com/JonMunkholm/tablecheck/internal/schema"
	"github.com/JonMunkholm/tablecheck/internal/table"
)

// matchHeaders maps schema fields to source columns by name. The returned
// index holds, for each field, the position of its column. Columns not in
// the schema are extra-header errors unless allowExtra is set.
func matchHeaders(headers []string, s *schema.Schema, allowExtra bool) ([]int, []report.Error) {
	var errs []report.Error
	fields := make(map[string]bool, len(s.Fields))
	for _, f := range s.Fields {
		fields[f.Name] = true
	}

	pos := make(map[string]int, len(headers))
	for i, h := range headers {
		switch {
		case strings.TrimSpace(h) == "":
			errs = append(errs, &report.HeaderError{Problem: report.HeaderBlank, Column: i + 1})
		case hasKey(pos, h):
			errs = append(errs, &report.HeaderError{Problem: report.HeaderDuplicate, Column: i + 1, Header: h})
		case !fields[h]:
			pos[h] = i
			if !allowExtra {
				errs = append(errs, &report.HeaderError{Problem: report.HeaderExtra, Column: i + 1, Header: h})
			}
		default:
			pos[h] = i
		}
	}

	index := make([]int, len(s.Fields))
	for i, f := range s.Fields {
		j, ok := pos[f.Name]
		if !ok {
			errs = append(errs, &report.HeaderError{Problem: report.HeaderMissing, Header: f.Name})
			continue
		}
		index[i] = j
	}
	return index, errs
}

// positional maps schema fields to columns by position for sources without
// a header row.
func positional(width int, s *schema.Schema) ([]int, []report.Error) {
	var errs []report.Error
	for i := len(s.Fields); i < width; i++ {
		errs = append(errs, &report.HeaderError{Problem: report.HeaderExtra, Column: i + 1})
	}
	index := make([]int, len(s.Fields))
	for i, f := range s.Fields {
		if i >= width {
			errs = append(errs, &report.HeaderError{Problem: report.HeaderMissing, Header: f.Name})
			continue
		}
		index[i] = i
	}
	return index, errs
}

func hasKey(m map[string]int, k string) bool {
	_, ok := m[k]
	return ok
}

// columns accumulates raw cells in schema field order across one or more
// source chunks.
type columns struct {
	names  []string
	values [][]any
	nulls  []string
}

func newColumns(s *schema.Schema, nullSequence string) *columns {
	c := &columns{
		names:  s.FieldNames(),
		values: make([][]any, len(s.Fields)),
		nulls:  s.MissingValues,
	}
	if nullSequence != "" {
		c.nulls = append(append([]string(nil), s.MissingValues...), nullSequence)
	}
	return c
}

// add appends rows whose cells are strings or nil. Short rows are padded
// with nulls.
func (c *columns) add(rows [][]any, index []int) {
	for i, j := range index {
		for _, row := range rows {
			var v any
			if j < len(row) {
				v = row[j]
			}
			if s, ok := v.(string); ok && c.isNull(s) {
				v = nil
			}
			c.values[i] = append(c.values[i], v)
		}
	}
}

func (c *columns) isNull(s string) bool {
	for _, n := range c.nulls {
		if s == n {
			return true
		}
	}
	return false
}

func (c *columns) table(name string) (*table.Table, error) {
	cols := make([]*table.Column, len(c.names))
	for i, n := range c.names {
		values := c.values[i]
		if values == nil {
			values = []any{}
		}
		cols[i] = &table.Column{Name: n, Type: schema.TypeString, Values: values}
	}
	return table.New(name, cols...)
}
