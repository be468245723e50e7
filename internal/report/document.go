package report

import (
	"io"
	"time"

	"github.com/goccy/go-json"

	"github.com/JonMunkholm/tablecheck/internal/schema"
)

// Document is the serialisable form of a Report. Stored and served reports
// are documents; the typed errors only exist during a run.
type Document struct {
	ID         string           `json:"id"`
	Package    string           `json:"package,omitempty"`
	Valid      bool             `json:"valid"`
	ErrorCount int              `json:"error-count"`
	TableCount int              `json:"table-count"`
	Time       float64          `json:"time"`
	CreatedAt  time.Time        `json:"created-at"`
	Tables     []*TableDocument `json:"tables"`
	Warnings   []string         `json:"warnings"`
}

// TableDocument is the serialisable form of a TableReport.
type TableDocument struct {
	Resource   string           `json:"resource"`
	Source     []string         `json:"source"`
	Headers    []string         `json:"headers"`
	Valid      bool             `json:"valid"`
	ErrorCount int              `json:"error-count"`
	RowCount   int              `json:"row-count"`
	Errors     []*ErrorDocument `json:"errors"`
}

// ErrorDocument is the serialisable form of an Error. Attributes that do
// not apply to the error's kind are omitted.
type ErrorDocument struct {
	Code            string             `json:"code"`
	Message         string             `json:"message"`
	FieldName       string             `json:"fieldName,omitempty"`
	FieldType       string             `json:"fieldType,omitempty"`
	FieldFormat     string             `json:"fieldFormat,omitempty"`
	ConstraintName  string             `json:"constraintName,omitempty"`
	ConstraintValue any                `json:"constraintValue,omitempty"`
	Values          any                `json:"values,omitempty"`
	PrimaryKey      []string           `json:"primaryKey,omitempty"`
	UniqueKey       []string           `json:"uniqueKey,omitempty"`
	ForeignKey      *schema.ForeignKey `json:"foreignKey,omitempty"`
	Reference       string             `json:"reference,omitempty"`
	Note            string             `json:"note,omitempty"`
	Column          int                `json:"column,omitempty"`
	Header          string             `json:"header,omitempty"`
}

// Document converts the report.
func (r *Report) Document() *Document {
	d := &Document{
		ID:         r.ID.String(),
		Package:    r.Package,
		Valid:      r.Valid,
		ErrorCount: r.ErrorCount,
		TableCount: r.TableCount,
		Time:       r.Time.Seconds(),
		CreatedAt:  r.CreatedAt,
		Tables:     make([]*TableDocument, len(r.Tables)),
		Warnings:   r.Warnings,
	}
	if d.Warnings == nil {
		d.Warnings = []string{}
	}
	for i, t := range r.Tables {
		td := &TableDocument{
			Resource:   t.Resource,
			Source:     t.Source,
			Headers:    t.Headers,
			Valid:      t.Valid,
			ErrorCount: t.ErrorCount,
			RowCount:   t.RowCount,
			Errors:     make([]*ErrorDocument, len(t.Errors)),
		}
		for j, e := range t.Errors {
			td.Errors[j] = ErrorDoc(e)
		}
		d.Tables[i] = td
	}
	return d
}

// ErrorDoc converts a single error.
func ErrorDoc(e Error) *ErrorDocument {
	d := &ErrorDocument{Code: e.Code(), Message: Message(e)}
	switch x := e.(type) {
	case *TypeError:
		d.FieldName = x.FieldName
		d.FieldType = x.FieldType.String()
		d.FieldFormat = x.FieldFormat
		d.Values = JSONValue(x.Values)
		d.Note = x.Note
	case *ConstraintError:
		d.FieldName = x.FieldName
		d.ConstraintName = x.Constraint
		d.ConstraintValue = JSONValue(x.ConstraintValue)
		d.Values = JSONValue(x.Values)
	case *ConstraintTypeError:
		d.FieldName = x.FieldName
		d.FieldType = x.FieldType.String()
		d.FieldFormat = x.FieldFormat
		d.ConstraintName = x.Constraint
		d.ConstraintValue = JSONValue(x.ConstraintValue)
	case *PrimaryKeyError:
		d.PrimaryKey = x.Key
		d.Values = JSONValue(x.Values)
	case *UniqueKeyError:
		d.UniqueKey = x.Key
		d.Values = JSONValue(x.Values)
	case *ForeignKeyError:
		fk := x.ForeignKey
		d.ForeignKey = &fk
		d.Reference = x.Resource
		d.Values = JSONValue(x.Values)
	case *HeaderError:
		d.Column = x.Column
		d.Header = x.Header
	case *SourceError:
		d.Note = x.Note
		if x.Source != "" {
			d.Reference = x.Source
		}
	}
	return d
}

// Encode writes the document as indented JSON.
func (d *Document) Encode(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(d)
}

// DecodeDocument parses a document previously written by Encode.
func DecodeDocument(data []byte) (*Document, error) {
	var d Document
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, err
	}
	return &d, nil
}
