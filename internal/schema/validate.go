package schema

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/JonMunkholm/tablecheck/internal/strptime"
)

// Validate checks the package for problems that would make validation of its
// data meaningless. All problems are reported together.
func (p *Package) Validate() error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidDescriptor}, args...)...))
	}

	seen := make(map[string]bool, len(p.Resources))
	for _, r := range p.Resources {
		if r.Name == "" {
			add("resource without name")
			continue
		}
		if seen[r.Name] {
			add("duplicate resource %q", r.Name)
		}
		seen[r.Name] = true
	}

	for i := range p.Resources {
		r := &p.Resources[i]
		if err := p.validateResource(r); err != nil {
			errs = append(errs, fmt.Errorf("resource %q: %w", r.Name, err))
		}
	}
	return errors.Join(errs...)
}

func (p *Package) validateResource(r *Resource) error {
	var errs []error
	fail := func(err error, format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{err}, args...)...))
	}

	switch {
	case r.SQL != nil && len(r.Path) > 0:
		fail(ErrInvalidDescriptor, "path and sql are mutually exclusive")
	case r.SQL != nil:
		if r.SQL.Driver == "" {
			fail(ErrInvalidDescriptor, "sql source without driver")
		}
		if (r.SQL.Table == "") == (r.SQL.Query == "") {
			fail(ErrInvalidDescriptor, "sql source needs exactly one of table or query")
		}
	case len(r.Path) == 0:
		fail(ErrInvalidDescriptor, "resource without path")
	}

	if utf8.RuneCountInString(r.Dialect.Delimiter) != 1 {
		fail(ErrInvalidDescriptor, "delimiter must be a single character, got %q", r.Dialect.Delimiter)
	}
	if r.Dialect.QuoteChar != `"` {
		fail(ErrInvalidDescriptor, "quoteChar %q is not supported", r.Dialect.QuoteChar)
	}
	if utf8.RuneCountInString(r.Dialect.CommentChar) > 1 {
		fail(ErrInvalidDescriptor, "commentChar must be a single character, got %q", r.Dialect.CommentChar)
	}

	s := &r.Schema
	names := make(map[string]bool, len(s.Fields))
	for i := range s.Fields {
		f := &s.Fields[i]
		if f.Name == "" {
			fail(ErrInvalidDescriptor, "field %d without name", i)
			continue
		}
		if names[f.Name] {
			fail(ErrInvalidDescriptor, "duplicate field %q", f.Name)
		}
		names[f.Name] = true
		if err := validateField(f); err != nil {
			errs = append(errs, fmt.Errorf("field %q: %w", f.Name, err))
		}
	}

	checkKey := func(kind string, key []string) {
		if len(key) == 0 {
			fail(ErrInvalidDescriptor, "empty %s", kind)
		}
		for _, name := range key {
			if !names[name] {
				fail(ErrInvalidDescriptor, "%s field %q is not in the schema", kind, name)
			}
		}
	}
	if len(s.PrimaryKey) > 0 {
		checkKey("primaryKey", s.PrimaryKey)
	}
	for _, key := range s.UniqueKeys {
		checkKey("uniqueKey", key)
	}
	for _, fk := range s.ForeignKeys {
		checkKey("foreignKey", fk.Fields)
		if len(fk.Fields) != len(fk.Reference.Fields) {
			fail(ErrInvalidDescriptor, "foreignKey %v references %d fields", fk.Fields, len(fk.Reference.Fields))
			continue
		}
		parent := s
		if fk.Reference.Resource != "" {
			res, ok := p.Resource(fk.Reference.Resource)
			if !ok {
				fail(ErrInvalidDescriptor, "foreignKey %v references unknown resource %q", fk.Fields, fk.Reference.Resource)
				continue
			}
			parent = &res.Schema
		}
		for _, name := range fk.Reference.Fields {
			if _, ok := parent.Field(name); !ok {
				fail(ErrInvalidDescriptor, "foreignKey %v references unknown field %q", fk.Fields, name)
			}
		}
	}
	return errors.Join(errs...)
}

func validateField(f *Field) error {
	format := f.FormatOrDefault()
	ok := format == FormatDefault
	switch f.Type {
	case TypeString:
		switch format {
		case FormatEmail, FormatURI, FormatBinary, FormatUUID:
			ok = true
		}
	case TypeGeopoint:
		ok = ok || format == FormatArray || format == FormatObject
	case TypeDate, TypeDatetime:
		if format == FormatAny {
			ok = true
		} else if strings.Contains(format, "%") {
			if err := strptime.Check(format); err != nil {
				return fmt.Errorf("%w: %q: %v", ErrUnknownFormat, format, err)
			}
			ok = true
		}
	}
	if !ok {
		return fmt.Errorf("%w: %q for type %s", ErrUnknownFormat, format, f.Type)
	}

	if f.Type == TypeNumber {
		if f.DecimalChar == "" {
			return fmt.Errorf("%w: empty decimalChar", ErrInvalidDescriptor)
		}
		if f.GroupChar == f.DecimalChar {
			return fmt.Errorf("%w: groupChar equals decimalChar", ErrInvalidDescriptor)
		}
	}

	c := f.Constraints
	if c.Pattern != "" {
		if _, err := regexp.Compile(c.Pattern); err != nil {
			return fmt.Errorf("%w: pattern: %v", ErrInvalidDescriptor, err)
		}
	}
	if c.MinLength != nil && *c.MinLength < 0 || c.MaxLength != nil && *c.MaxLength < 0 {
		return fmt.Errorf("%w: negative length constraint", ErrInvalidDescriptor)
	}
	return nil
}
