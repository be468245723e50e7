package report

import (
	"github.com/JonMunkholm/tablecheck/internal/schema"
)

// Kind is the category of a validation error.
type Kind int

const (
	KindTypeOrFormat Kind = iota
	KindConstraint
	KindConstraintType
	KindPrimaryKey
	KindUniqueKey
	KindForeignKey
	KindHeader
	KindSource
)

var kindNames = [...]string{
	KindTypeOrFormat:   "type-or-format",
	KindConstraint:     "constraint",
	KindConstraintType: "constraint-type",
	KindPrimaryKey:     "primary-key",
	KindUniqueKey:      "unique-key",
	KindForeignKey:     "foreign-key",
	KindHeader:         "header",
	KindSource:         "source",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// Error codes as they appear in reports.
const (
	CodeTypeOrFormat      = "type-or-format-error"
	CodeRequired          = "required-constraint"
	CodeUnique            = "unique-constraint"
	CodeMinLength         = "minimum-length-constraint"
	CodeMaxLength         = "maximum-length-constraint"
	CodeMinimum           = "minimum-constraint"
	CodeMaximum           = "maximum-constraint"
	CodePattern           = "pattern-constraint"
	CodeEnum              = "enumerable-constraint"
	CodePrimaryKey        = "primary-key-constraint"
	CodeUniqueKey         = "unique-key-constraint"
	CodeForeignKey        = "foreign-key-constraint"
	CodeBlankHeader       = "blank-header"
	CodeDuplicateHeader   = "duplicate-header"
	CodeExtraHeader       = "extra-header"
	CodeMissingHeader     = "missing-header"
	CodeSourceError       = "source-error"
	codeUnknownConstraint = "constraint-error"
)

// Constraint names as written in descriptors.
const (
	ConstraintRequired  = "required"
	ConstraintUnique    = "unique"
	ConstraintMinLength = "minLength"
	ConstraintMaxLength = "maxLength"
	ConstraintMinimum   = "minimum"
	ConstraintMaximum   = "maximum"
	ConstraintPattern   = "pattern"
	ConstraintEnum      = "enum"
)

var constraintCodes = map[string]string{
	ConstraintRequired:  CodeRequired,
	ConstraintUnique:    CodeUnique,
	ConstraintMinLength: CodeMinLength,
	ConstraintMaxLength: CodeMaxLength,
	ConstraintMinimum:   CodeMinimum,
	ConstraintMaximum:   CodeMaximum,
	ConstraintPattern:   CodePattern,
	ConstraintEnum:      CodeEnum,
}

// Error is a single validation finding. The set of implementations is
// closed; switch on the concrete type to read kind-specific attributes.
type Error interface {
	Kind() Kind
	Code() string
	isError()
}

// TypeError reports the raw values of a column that do not match the
// field's type and format.
type TypeError struct {
	FieldName   string
	FieldType   schema.FieldType
	FieldFormat string
	Values      []any

	// Note optionally explains the failure.
	Note string
}

// ConstraintError reports typed values that violate a field constraint.
type ConstraintError struct {
	FieldName       string
	Constraint      string
	ConstraintValue any
	Values          []any
}

// ConstraintTypeError reports a constraint literal that does not match the
// field's type and format.
type ConstraintTypeError struct {
	FieldName       string
	Constraint      string
	ConstraintValue any
	FieldType       schema.FieldType
	FieldFormat     string
}

// PrimaryKeyError lists duplicated primary key tuples.
type PrimaryKeyError struct {
	Key    []string
	Values [][]any
}

// UniqueKeyError lists duplicated unique key tuples.
type UniqueKeyError struct {
	Key    []string
	Values [][]any
}

// ForeignKeyError lists child key tuples missing from the parent. Resource
// is the parent resource.
type ForeignKeyError struct {
	Resource   string
	ForeignKey schema.ForeignKey
	Values     [][]any
}

// HeaderProblem is the kind of header mismatch.
type HeaderProblem int

const (
	HeaderBlank HeaderProblem = iota
	HeaderDuplicate
	HeaderExtra
	HeaderMissing
)

// HeaderError reports a header row that cannot be mapped onto the schema.
// Column is 1-based and zero for a missing field.
type HeaderError struct {
	Problem HeaderProblem
	Column  int
	Header  string
}

// SourceError reports data that could not be read.
type SourceError struct {
	Source string
	Note   string
}

func (*TypeError) Kind() Kind           { return KindTypeOrFormat }
func (*ConstraintError) Kind() Kind     { return KindConstraint }
func (*ConstraintTypeError) Kind() Kind { return KindConstraintType }
func (*PrimaryKeyError) Kind() Kind     { return KindPrimaryKey }
func (*UniqueKeyError) Kind() Kind      { return KindUniqueKey }
func (*ForeignKeyError) Kind() Kind     { return KindForeignKey }
func (*HeaderError) Kind() Kind         { return KindHeader }
func (*SourceError) Kind() Kind         { return KindSource }

func (*TypeError) Code() string           { return CodeTypeOrFormat }
func (*ConstraintTypeError) Code() string { return CodeTypeOrFormat }
func (*PrimaryKeyError) Code() string     { return CodePrimaryKey }
func (*UniqueKeyError) Code() string      { return CodeUniqueKey }
func (*ForeignKeyError) Code() string     { return CodeForeignKey }
func (*SourceError) Code() string         { return CodeSourceError }

func (e *ConstraintError) Code() string {
	if code, ok := constraintCodes[e.Constraint]; ok {
		return code
	}
	return codeUnknownConstraint
}

func (e *HeaderError) Code() string {
	switch e.Problem {
	case HeaderBlank:
		return CodeBlankHeader
	case HeaderDuplicate:
		return CodeDuplicateHeader
	case HeaderExtra:
		return CodeExtraHeader
	}
	return CodeMissingHeader
}

func (*TypeError) isError()           {}
func (*ConstraintError) isError()     {}
func (*ConstraintTypeError) isError() {}
func (*PrimaryKeyError) isError()     {}
func (*UniqueKeyError) isError()      {}
func (*ForeignKeyError) isError()     {}
func (*HeaderError) isError()         {}
func (*SourceError) isError()         {}

// FieldName returns the field an error is attributed to, if any.
func FieldName(e Error) (string, bool) {
	switch x := e.(type) {
	case *TypeError:
		return x.FieldName, true
	case *ConstraintError:
		return x.FieldName, true
	case *ConstraintTypeError:
		return x.FieldName, true
	}
	return "", false
}

// WithFieldPrefix returns a copy of e whose field name is prefixed, for
// errors that carry a field name. ok is false otherwise and e is returned
// unchanged.
func WithFieldPrefix(e Error, prefix string) (Error, bool) {
	switch x := e.(type) {
	case *TypeError:
		c := *x
		c.FieldName = prefix + c.FieldName
		return &c, true
	case *ConstraintError:
		c := *x
		c.FieldName = prefix + c.FieldName
		return &c, true
	case *ConstraintTypeError:
		c := *x
		c.FieldName = prefix + c.FieldName
		return &c, true
	}
	return e, false
}

// KeyValues returns the offending key tuples of a row-set error.
func KeyValues(e Error) ([][]any, bool) {
	switch x := e.(type) {
	case *PrimaryKeyError:
		return x.Values, true
	case *UniqueKeyError:
		return x.Values, true
	case *ForeignKeyError:
		return x.Values, true
	}
	return nil, false
}
