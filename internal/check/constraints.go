// Package check evaluates field constraints and table keys against typed
// tables.
//
// Each check returns at most one error per constraint or key, listing every
// distinct offending value in order of first appearance. Checks never modify
// the table, so running them twice yields the same errors.
package check

import (
	"regexp"
	"unicode/utf8"

	"github.com/JonMunkholm/tablecheck/internal/parse"
	"github.com/JonMunkholm/tablecheck/internal/report"
	"github.com/JonMunkholm/tablecheck/internal/schema"
	"github.com/JonMunkholm/tablecheck/internal/table"
)

// Constraints checks the constraints of every schema field against t.
// Fields without a column are skipped.
func Constraints(t *table.Table, s *schema.Schema) []report.Error {
	var errs []report.Error
	for i := range s.Fields {
		f := &s.Fields[i]
		col, ok := t.Column(f.Name)
		if !ok {
			continue
		}
		errs = append(errs, FieldConstraints(col, f, f.Constraints)...)
	}
	return errs
}

// FieldConstraints checks c against a typed column, in the order required,
// unique, minLength, maxLength, minimum, maximum, pattern, enum. Length
// constraints apply to length-bearing types only, bounds to ordered types
// only and pattern to strings only; inapplicable constraints are skipped.
func FieldConstraints(col *table.Column, f *schema.Field, c schema.Constraints) []report.Error {
	var errs []report.Error
	fail := func(constraint string, value any, values []any) {
		errs = append(errs, &report.ConstraintError{
			FieldName:       f.Name,
			Constraint:      constraint,
			ConstraintValue: value,
			Values:          values,
		})
	}

	if c.Required && col.HasNull() {
		fail(report.ConstraintRequired, true, []any{nil})
	}
	if c.Unique {
		if dups := duplicated(col.Values); len(dups) > 0 {
			fail(report.ConstraintUnique, true, dups)
		}
	}

	values := col.DropNulls()

	if f.Type.HasLength() {
		if c.MinLength != nil {
			lo := *c.MinLength
			if bad := filter(values, func(v any) bool { return length(v) < lo }); len(bad) > 0 {
				fail(report.ConstraintMinLength, lo, bad)
			}
		}
		if c.MaxLength != nil {
			hi := *c.MaxLength
			if bad := filter(values, func(v any) bool { return length(v) > hi }); len(bad) > 0 {
				fail(report.ConstraintMaxLength, hi, bad)
			}
		}
	}

	if f.Type.Ordered() {
		if c.Minimum != nil {
			errs = append(errs, bound(f, values, report.ConstraintMinimum, c.Minimum, -1)...)
		}
		if c.Maximum != nil {
			errs = append(errs, bound(f, values, report.ConstraintMaximum, c.Maximum, 1)...)
		}
	}

	if c.Pattern != "" && f.Type == schema.TypeString {
		if e := patternError(f.Name, values, c.Pattern); e != nil {
			errs = append(errs, e)
		}
	}

	if len(c.Enum) > 0 {
		enum, cte := parse.ParseConstraint(c.Enum, report.ConstraintEnum, f)
		if cte != nil {
			errs = append(errs, cte)
		} else {
			members := make(map[string]bool)
			for _, e := range enum.([]any) {
				members[table.Key(e)] = true
			}
			if bad := filter(values, func(v any) bool { return !members[table.Key(v)] }); len(bad) > 0 {
				fail(report.ConstraintEnum, enum, bad)
			}
		}
	}
	return errs
}

// RawConstraints checks constraints that are written for text against the
// raw column of a field whose type does not support them: pattern for
// non-string fields and minLength/maxLength for fields without a length.
// It runs before parsing.
func RawConstraints(col *table.Column, f *schema.Field) []report.Error {
	c := schema.Constraints{}
	if f.Type != schema.TypeString {
		c.Pattern = f.Constraints.Pattern
	}
	if !f.Type.HasLength() {
		c.MinLength = f.Constraints.MinLength
		c.MaxLength = f.Constraints.MaxLength
	}
	if c.Pattern == "" && c.MinLength == nil && c.MaxLength == nil {
		return nil
	}
	raw := *f
	raw.Type = schema.TypeString
	raw.Format = schema.FormatDefault
	return FieldConstraints(col, &raw, c)
}

// bound checks a minimum (sign -1) or maximum (sign 1). The bound literal is
// typed first; if it does not conform a constraint type error is returned
// instead of comparing.
func bound(f *schema.Field, values []any, constraint string, literal any, sign int) []report.Error {
	limit, cte := parse.ParseConstraint(literal, constraint, f)
	if cte != nil {
		return []report.Error{cte}
	}
	bad := filter(values, func(v any) bool {
		c, ok := table.Compare(v, limit)
		return ok && c == sign
	})
	if len(bad) == 0 {
		return nil
	}
	return []report.Error{&report.ConstraintError{
		FieldName:       f.Name,
		Constraint:      constraint,
		ConstraintValue: limit,
		Values:          bad,
	}}
}

func patternError(name string, values []any, pattern string) report.Error {
	// An uncompilable pattern matches nothing.
	re, _ := regexp.Compile("^(?:" + pattern + ")$")
	bad := filter(values, func(v any) bool {
		s, ok := v.(string)
		return !ok || re == nil || !re.MatchString(s)
	})
	if len(bad) == 0 {
		return nil
	}
	return &report.ConstraintError{
		FieldName:       name,
		Constraint:      report.ConstraintPattern,
		ConstraintValue: pattern,
		Values:          bad,
	}
}

func length(v any) int {
	if s, ok := v.(string); ok {
		return utf8.RuneCountInString(s)
	}
	return 0
}

// filter returns the distinct values matching keep, in first-seen order.
func filter(values []any, keep func(any) bool) []any {
	var out []any
	seen := make(map[string]bool)
	for _, v := range values {
		if !keep(v) {
			continue
		}
		k := table.Key(v)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, v)
	}
	return out
}

// duplicated returns the distinct values that occur again after their first
// occurrence. Nulls are equal to each other.
func duplicated(values []any) []any {
	var out []any
	seen := make(map[string]bool, len(values))
	reported := make(map[string]bool)
	for _, v := range values {
		k := table.Key(v)
		if !seen[k] {
			seen[k] = true
			continue
		}
		if !reported[k] {
			reported[k] = true
			out = append(out, v)
		}
	}
	return out
}
