package schema

import (
	"bytes"
	"fmt"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// The descriptor types mirror the on-disk JSON/YAML layout. They are decoded
// first and then converted to the model types by build.

type packageDescriptor struct {
	Name      string               `json:"name" yaml:"name"`
	Resources []resourceDescriptor `json:"resources" yaml:"resources"`
}

type resourceDescriptor struct {
	Name     string             `json:"name" yaml:"name"`
	Path     stringList         `json:"path" yaml:"path"`
	Schema   schemaRef          `json:"schema" yaml:"schema"`
	Dialect  *dialectDescriptor `json:"dialect" yaml:"dialect"`
	Encoding string             `json:"encoding" yaml:"encoding"`
	SQL      *sqlDescriptor     `json:"sql" yaml:"sql"`
}

type sqlDescriptor struct {
	Driver string `json:"driver" yaml:"driver"`
	DSN    string `json:"dsn" yaml:"dsn"`
	Table  string `json:"table" yaml:"table"`
	Query  string `json:"query" yaml:"query"`
}

type dialectDescriptor struct {
	Delimiter        *string `json:"delimiter" yaml:"delimiter"`
	QuoteChar        *string `json:"quoteChar" yaml:"quoteChar"`
	DoubleQuote      *bool   `json:"doubleQuote" yaml:"doubleQuote"`
	EscapeChar       *string `json:"escapeChar" yaml:"escapeChar"`
	SkipInitialSpace *bool   `json:"skipInitialSpace" yaml:"skipInitialSpace"`
	CommentChar      *string `json:"commentChar" yaml:"commentChar"`
	Header           *bool   `json:"header" yaml:"header"`
	NullSequence     *string `json:"nullSequence" yaml:"nullSequence"`
	LineTerminator   *string `json:"lineTerminator" yaml:"lineTerminator"`
}

type schemaDescriptor struct {
	Fields        []fieldDescriptor      `json:"fields" yaml:"fields"`
	PrimaryKey    stringList             `json:"primaryKey" yaml:"primaryKey"`
	UniqueKeys    []stringList           `json:"uniqueKeys" yaml:"uniqueKeys"`
	ForeignKeys   []foreignKeyDescriptor `json:"foreignKeys" yaml:"foreignKeys"`
	MissingValues *[]string              `json:"missingValues" yaml:"missingValues"`
}

type fieldDescriptor struct {
	Name        string                 `json:"name" yaml:"name"`
	Type        string                 `json:"type" yaml:"type"`
	Format      string                 `json:"format" yaml:"format"`
	Constraints *constraintsDescriptor `json:"constraints" yaml:"constraints"`
	DecimalChar string                 `json:"decimalChar" yaml:"decimalChar"`
	GroupChar   string                 `json:"groupChar" yaml:"groupChar"`
	BareNumber  *bool                  `json:"bareNumber" yaml:"bareNumber"`
	TrueValues  []string               `json:"trueValues" yaml:"trueValues"`
	FalseValues []string               `json:"falseValues" yaml:"falseValues"`
}

type constraintsDescriptor struct {
	Required  bool   `json:"required" yaml:"required"`
	Unique    bool   `json:"unique" yaml:"unique"`
	MinLength *int   `json:"minLength" yaml:"minLength"`
	MaxLength *int   `json:"maxLength" yaml:"maxLength"`
	Minimum   any    `json:"minimum" yaml:"minimum"`
	Maximum   any    `json:"maximum" yaml:"maximum"`
	Pattern   string `json:"pattern" yaml:"pattern"`
	Enum      []any  `json:"enum" yaml:"enum"`
}

type foreignKeyDescriptor struct {
	Fields    stringList          `json:"fields" yaml:"fields"`
	Reference referenceDescriptor `json:"reference" yaml:"reference"`
}

type referenceDescriptor struct {
	Resource string     `json:"resource" yaml:"resource"`
	Fields   stringList `json:"fields" yaml:"fields"`
}

// stringList decodes either a single string or a list of strings.
type stringList []string

func (l *stringList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*l = stringList{s}
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	*l = list
	return nil
}

func (l *stringList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*l = stringList{node.Value}
		return nil
	case yaml.SequenceNode:
		var list []string
		if err := node.Decode(&list); err != nil {
			return err
		}
		*l = list
		return nil
	}
	return fmt.Errorf("line %d: expected string or list of strings", node.Line)
}

// schemaRef is either an inline schema or a path to a schema file.
type schemaRef struct {
	Path   string
	Inline *schemaDescriptor
}

func (r *schemaRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &r.Path)
	}
	r.Inline = &schemaDescriptor{}
	return json.Unmarshal(data, r.Inline)
}

func (r *schemaRef) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		r.Path = node.Value
		return nil
	}
	r.Inline = &schemaDescriptor{}
	return node.Decode(r.Inline)
}
