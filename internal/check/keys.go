package check

import (
	"github.com/JonMunkholm/tablecheck/internal/report"
	"github.com/JonMunkholm/tablecheck/internal/schema"
	"github.com/JonMunkholm/tablecheck/internal/table"
)

// KeyOptions control primary key checking.
type KeyOptions struct {
	// SkipRequired skips the implied required check on key fields, for
	// callers that already made those fields required.
	SkipRequired bool

	// SkipSingle skips duplicate detection for one-field keys, for callers
	// that already check those fields with the unique constraint.
	SkipSingle bool
}

// ParentConstraint selects how the parent side of a foreign key is checked
// before membership.
type ParentConstraint int

const (
	ParentNone ParentConstraint = iota
	ParentUniqueKey
	ParentPrimaryKey
)

// PrimaryKey checks that key fields are present and that no row repeats an
// earlier row's key. Keys naming missing columns are skipped.
func PrimaryKey(t *table.Table, key []string, opts KeyOptions) []report.Error {
	if len(key) == 0 {
		return nil
	}
	cols, ok := t.Select(key)
	if !ok {
		return nil
	}
	var errs []report.Error
	if !opts.SkipRequired {
		for _, col := range cols {
			f := &schema.Field{Name: col.Name, Type: col.Type}
			errs = append(errs, FieldConstraints(col, f, schema.Constraints{Required: true})...)
		}
	}
	if opts.SkipSingle && len(key) < 2 {
		return errs
	}
	if dups := duplicateTuples(cols); len(dups) > 0 {
		errs = append(errs, &report.PrimaryKeyError{Key: key, Values: dups})
	}
	return errs
}

// UniqueKeys checks each key for rows that repeat an earlier row's values.
// Rows whose key is entirely null are duplicates of each other.
func UniqueKeys(t *table.Table, keys [][]string, skipSingle bool) []report.Error {
	var errs []report.Error
	for _, key := range keys {
		if len(key) == 0 || skipSingle && len(key) < 2 {
			continue
		}
		cols, ok := t.Select(key)
		if !ok {
			continue
		}
		if dups := duplicateTuples(cols); len(dups) > 0 {
			errs = append(errs, &report.UniqueKeyError{Key: key, Values: dups})
		}
	}
	return errs
}

// ForeignKeys checks that every child key tuple without nulls appears in the
// parent's referenced columns. An empty reference resource means the child
// references itself; a parent missing from tables is skipped. With a parent
// constraint the parent key is checked first, and its errors are reported
// against the relationship when the parent is another table.
func ForeignKeys(child *table.Table, fks []schema.ForeignKey, tables map[string]*table.Table, parent ParentConstraint) []report.Error {
	var errs []report.Error
	for _, fk := range fks {
		name := fk.Reference.Resource
		pt := child
		if name != "" {
			var ok bool
			if pt, ok = tables[name]; !ok {
				continue
			}
		}

		childCols, ok := child.Select(fk.Fields)
		if !ok {
			continue
		}
		parentCols, ok := pt.Select(fk.Reference.Fields)
		if !ok {
			continue
		}

		var perrs []report.Error
		switch parent {
		case ParentUniqueKey:
			perrs = UniqueKeys(pt, [][]string{fk.Reference.Fields}, false)
		case ParentPrimaryKey:
			perrs = PrimaryKey(pt, fk.Reference.Fields, KeyOptions{})
		}
		if pt != child {
			for _, e := range perrs {
				errs = append(errs, attribute(e, name, fk))
			}
		}

		if missing := missingTuples(childCols, parentCols); len(missing) > 0 {
			errs = append(errs, &report.ForeignKeyError{Resource: name, ForeignKey: fk, Values: missing})
		}
	}
	return errs
}

// attribute rewrites a parent key error as part of the relationship: field
// errors are prefixed with the parent name, row errors become foreign key
// errors with the same values.
func attribute(e report.Error, parent string, fk schema.ForeignKey) report.Error {
	if prefixed, ok := report.WithFieldPrefix(e, parent+"."); ok {
		return prefixed
	}
	values, _ := report.KeyValues(e)
	return &report.ForeignKeyError{Resource: parent, ForeignKey: fk, Values: values}
}

// duplicateTuples returns the distinct key tuples that occur again after
// their first row.
func duplicateTuples(cols []*table.Column) [][]any {
	var out [][]any
	seen := make(map[string]bool)
	reported := make(map[string]bool)
	for i := range rows(cols) {
		tuple := table.Tuple(cols, i)
		k := table.TupleKey(tuple)
		if !seen[k] {
			seen[k] = true
			continue
		}
		if !reported[k] {
			reported[k] = true
			out = append(out, tuple)
		}
	}
	return out
}

// missingTuples returns the distinct child tuples without nulls that do not
// appear among the parent tuples.
func missingTuples(childCols, parentCols []*table.Column) [][]any {
	parentKeys := make(map[string]bool, rows(parentCols))
	for i := range rows(parentCols) {
		parentKeys[table.TupleKey(table.Tuple(parentCols, i))] = true
	}
	var out [][]any
	reported := make(map[string]bool)
	for i := range rows(childCols) {
		tuple := table.Tuple(childCols, i)
		if table.HasNull(tuple) {
			continue
		}
		k := table.TupleKey(tuple)
		if parentKeys[k] || reported[k] {
			continue
		}
		reported[k] = true
		out = append(out, tuple)
	}
	return out
}

func rows(cols []*table.Column) int {
	if len(cols) == 0 {
		return 0
	}
	return cols[0].Len()
}
