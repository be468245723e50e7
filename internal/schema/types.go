// Package schema models tabular data package descriptors: resources, their
// table schemas (fields, constraints, keys) and how their data is read.
//
// Descriptors are decoded from JSON or YAML, normalised (keys always become
// lists of field names) and validated once at load time. Anything the
// validator cannot honour, such as an unsupported field type, is rejected here
// as a configuration error so that later stages only ever see data errors.
package schema

import (
	"fmt"
	"slices"
)

// FieldType is the closed set of field types the validator can parse.
type FieldType int

const (
	TypeString FieldType = iota
	TypeNumber
	TypeInteger
	TypeBoolean
	TypeDate
	TypeDatetime
	TypeYear
	TypeGeopoint
)

var fieldTypeNames = [...]string{
	TypeString:   "string",
	TypeNumber:   "number",
	TypeInteger:  "integer",
	TypeBoolean:  "boolean",
	TypeDate:     "date",
	TypeDatetime: "datetime",
	TypeYear:     "year",
	TypeGeopoint: "geopoint",
}

// String returns the descriptor name of the type.
func (t FieldType) String() string {
	if t < 0 || int(t) >= len(fieldTypeNames) {
		return fmt.Sprintf("FieldType(%d)", int(t))
	}
	return fieldTypeNames[t]
}

// ParseFieldType maps a descriptor type name to a FieldType. An empty name
// means string.
func ParseFieldType(name string) (FieldType, error) {
	if name == "" {
		return TypeString, nil
	}
	for i, n := range fieldTypeNames {
		if n == name {
			return FieldType(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedType, name)
}

// HasLength reports whether minLength and maxLength apply to the type.
func (t FieldType) HasLength() bool {
	return t == TypeString
}

// Ordered reports whether minimum and maximum apply to the type.
func (t FieldType) Ordered() bool {
	switch t {
	case TypeInteger, TypeNumber, TypeDate, TypeDatetime, TypeYear:
		return true
	}
	return false
}

// Formats per type. Date and datetime additionally accept any strptime pattern.
const (
	FormatDefault = "default"
	FormatAny     = "any"

	FormatEmail  = "email"
	FormatURI    = "uri"
	FormatBinary = "binary"
	FormatUUID   = "uuid"

	FormatArray  = "array"
	FormatObject = "object"
)

// Default true and false spellings for boolean fields.
var (
	DefaultTrueValues  = []string{"true", "True", "TRUE", "1"}
	DefaultFalseValues = []string{"false", "False", "FALSE", "0"}
)

// Package is a resolved tabular data package.
type Package struct {
	Name string

	// BasePath is the directory relative resource paths are resolved against.
	BasePath  string
	Resources []Resource
}

// Resource returns the resource with the given name.
func (p *Package) Resource(name string) (*Resource, bool) {
	for i := range p.Resources {
		if p.Resources[i].Name == name {
			return &p.Resources[i], true
		}
	}
	return nil, false
}

// ResourceNames returns resource names in declaration order.
func (p *Package) ResourceNames() []string {
	names := make([]string, len(p.Resources))
	for i, r := range p.Resources {
		names[i] = r.Name
	}
	return names
}

// Resource is one named table and its schema.
type Resource struct {
	Name     string
	Path     []string
	Schema   Schema
	Dialect  Dialect
	Encoding string

	// SQL is set when the table is read from a database instead of files.
	SQL *SQLSource
}

// SQLSource describes a table read from a database.
type SQLSource struct {
	Driver string
	DSN    string
	Table  string
	Query  string
}

// Dialect describes the CSV layout of a file resource.
type Dialect struct {
	Delimiter        string
	QuoteChar        string
	DoubleQuote      bool
	SkipInitialSpace bool
	CommentChar      string
	Header           bool
	NullSequence     string
	LineTerminator   string
}

// DefaultDialect returns the dialect used when a resource declares none.
func DefaultDialect() Dialect {
	return Dialect{
		Delimiter:        ",",
		QuoteChar:        `"`,
		DoubleQuote:      true,
		SkipInitialSpace: true,
		Header:           true,
		LineTerminator:   "\n",
	}
}

// Schema is the table schema of a resource.
type Schema struct {
	Fields      []Field
	PrimaryKey  []string
	UniqueKeys  [][]string
	ForeignKeys []ForeignKey

	// MissingValues are the raw strings read as null.
	MissingValues []string
}

// Field returns the field with the given name.
func (s *Schema) Field(name string) (*Field, bool) {
	for i := range s.Fields {
		if s.Fields[i].Name == name {
			return &s.Fields[i], true
		}
	}
	return nil, false
}

// FieldNames returns field names in schema order.
func (s *Schema) FieldNames() []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return names
}

// Field describes one column.
type Field struct {
	Name   string
	Type   FieldType
	Format string

	Constraints Constraints

	// Number options.
	DecimalChar string
	GroupChar   string

	// BareNumber is false when numbers are embedded in other text.
	BareNumber bool

	// Boolean options.
	TrueValues  []string
	FalseValues []string
}

// FormatOrDefault returns the field format, or "default" when unset.
func (f *Field) FormatOrDefault() string {
	if f.Format == "" {
		return FormatDefault
	}
	return f.Format
}

// Constraints are per-field rules. Minimum, Maximum and Enum hold descriptor
// literals; they are typed against the field when checked.
type Constraints struct {
	Required  bool
	Unique    bool
	MinLength *int
	MaxLength *int
	Minimum   any
	Maximum   any
	Pattern   string
	Enum      []any
}

// ForeignKey references the key of a parent resource. An empty
// Reference.Resource means the resource references itself.
type ForeignKey struct {
	Fields    []string  `json:"fields"`
	Reference Reference `json:"reference"`
}

// Reference is the parent side of a foreign key.
type Reference struct {
	Resource string   `json:"resource"`
	Fields   []string `json:"fields"`
}

// Equal reports whether two foreign keys are identical.
func (fk ForeignKey) Equal(other ForeignKey) bool {
	return slices.Equal(fk.Fields, other.Fields) &&
		fk.Reference.Resource == other.Reference.Resource &&
		slices.Equal(fk.Reference.Fields, other.Reference.Fields)
}
