package report

import (
	"bytes"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/tablecheck/internal/schema"
	"github.com/JonMunkholm/tablecheck/internal/table"
)

func TestMessage(t *testing.T) {
	fk := schema.ForeignKey{
		Fields:    []string{"customer"},
		Reference: schema.Reference{Resource: "customers", Fields: []string{"id"}},
	}
	tests := []struct {
		name string
		err  Error
		code string
		want string
	}{
		{
			name: "type",
			err:  &TypeError{FieldName: "n", FieldType: schema.TypeNumber, FieldFormat: "default", Values: []any{"x"}},
			code: CodeTypeOrFormat,
			want: "Values in n are not type: number and format: default",
		},
		{
			name: "constraint type",
			err:  &ConstraintTypeError{FieldName: "n", Constraint: "minimum", ConstraintValue: "abc", FieldType: schema.TypeInteger, FieldFormat: "default"},
			code: CodeTypeOrFormat,
			want: "Constraint minimum: abc for n is not type: integer and format: default",
		},
		{
			name: "constraint",
			err:  &ConstraintError{FieldName: "n", Constraint: ConstraintMaximum, ConstraintValue: int64(10), Values: []any{int64(11)}},
			code: CodeMaximum,
			want: "Values in n violate constraint maximum: 10",
		},
		{
			name: "max length keeps its own name",
			err:  &ConstraintError{FieldName: "s", Constraint: ConstraintMaxLength, ConstraintValue: 3},
			code: CodeMaxLength,
			want: "Values in s violate constraint maxLength: 3",
		},
		{
			name: "primary key",
			err:  &PrimaryKeyError{Key: []string{"id"}, Values: [][]any{{int64(2)}}},
			code: CodePrimaryKey,
			want: `Rows violate primaryKey: ["id"]`,
		},
		{
			name: "unique key",
			err:  &UniqueKeyError{Key: []string{"a", "b"}},
			code: CodeUniqueKey,
			want: `Rows violate uniqueKey: ["a","b"]`,
		},
		{
			name: "foreign key",
			err:  &ForeignKeyError{Resource: "customers", ForeignKey: fk},
			code: CodeForeignKey,
			want: `Rows in customers violate foreignKey: {"fields":["customer"],"reference":{"resource":"customers","fields":["id"]}}`,
		},
		{
			name: "missing header",
			err:  &HeaderError{Problem: HeaderMissing, Header: "id"},
			code: CodeMissingHeader,
			want: `Field "id" is missing from the header`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code())
			assert.Equal(t, tt.want, Message(tt.err))
		})
	}
}

func TestWithFieldPrefix(t *testing.T) {
	orig := &ConstraintError{FieldName: "id", Constraint: ConstraintUnique}
	got, ok := WithFieldPrefix(orig, "parent.")
	require.True(t, ok)
	assert.Equal(t, "parent.id", got.(*ConstraintError).FieldName)
	assert.Equal(t, "id", orig.FieldName, "original must not change")

	pk := &PrimaryKeyError{Key: []string{"id"}, Values: [][]any{{int64(1)}}}
	same, ok := WithFieldPrefix(pk, "parent.")
	assert.False(t, ok)
	assert.Same(t, pk, same)

	values, ok := KeyValues(pk)
	require.True(t, ok)
	assert.Equal(t, [][]any{{int64(1)}}, values)
}

func TestJSONValue(t *testing.T) {
	assert.Equal(t, "NaN", JSONValue(math.NaN()))
	assert.Equal(t, "-Infinity", JSONValue(math.Inf(-1)))
	assert.Equal(t, "2020-12-31", JSONValue(time.Date(2020, 12, 31, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2020-12-31T10:00:00+01:00",
		JSONValue(time.Date(2020, 12, 31, 10, 0, 0, 0, time.FixedZone("", 3600))))
	assert.Equal(t, []any{0.1, "Infinity"}, JSONValue(table.GeoPoint{Lon: 0.1, Lat: math.Inf(1)}))
	assert.Equal(t, []any{nil, int64(1)}, JSONValue([]any{nil, int64(1)}))
}

func TestDocument(t *testing.T) {
	r := New("shop")
	r.Tables = append(r.Tables,
		&TableReport{Resource: "a", RowCount: 3},
		&TableReport{Resource: "b", RowCount: 1, Errors: []Error{
			&ConstraintError{FieldName: "x", Constraint: ConstraintRequired, ConstraintValue: true, Values: []any{nil}},
			&ConstraintError{FieldName: "y", Constraint: ConstraintUnique, ConstraintValue: true, Values: []any{"dup"}},
		}},
	)
	r.Finalize(1500 * time.Millisecond)

	assert.False(t, r.Valid)
	assert.Equal(t, 2, r.ErrorCount)
	assert.Equal(t, 2, r.TableCount)
	assert.Equal(t, map[string]int{CodeRequired: 1, CodeUnique: 1}, r.Codes())

	a, _ := r.Table("a")
	assert.True(t, a.Valid)

	doc := r.Document()
	assert.Equal(t, r.ID.String(), doc.ID)
	assert.Equal(t, 1.5, doc.Time)
	require.Len(t, doc.Tables, 2)
	assert.Equal(t, "required-constraint", doc.Tables[1].Errors[0].Code)

	var buf bytes.Buffer
	require.NoError(t, doc.Encode(&buf))
	assert.Contains(t, buf.String(), `"fieldName": "x"`)

	back, err := DecodeDocument(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, doc.ID, back.ID)
	assert.Equal(t, 2, back.ErrorCount)
	assert.Equal(t, []any{nil}, back.Tables[1].Errors[0].Values)
	assert.Equal(t, "Values in y violate constraint unique: true", back.Tables[1].Errors[1].Message)
}
