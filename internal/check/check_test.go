package check

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/tablecheck/internal/report"
	"github.com/JonMunkholm/tablecheck/internal/schema"
	"github.com/JonMunkholm/tablecheck/internal/table"
)

func intField(name string) *schema.Field {
	return &schema.Field{Name: name, Type: schema.TypeInteger, BareNumber: true}
}

func strField(name string) *schema.Field {
	return &schema.Field{Name: name, Type: schema.TypeString}
}

func col(name string, typ schema.FieldType, values ...any) *table.Column {
	return &table.Column{Name: name, Type: typ, Values: values}
}

func ints(values ...any) []any {
	out := make([]any, len(values))
	for i, v := range values {
		if n, ok := v.(int); ok {
			out[i] = int64(n)
		} else {
			out[i] = v
		}
	}
	return out
}

func mustTable(t *testing.T, name string, cols ...*table.Column) *table.Table {
	t.Helper()
	tbl, err := table.New(name, cols...)
	require.NoError(t, err)
	return tbl
}

func foreignKey(field, parent, ref string) schema.ForeignKey {
	return schema.ForeignKey{
		Fields:    []string{field},
		Reference: schema.Reference{Resource: parent, Fields: []string{ref}},
	}
}

func onlyConstraintError(t *testing.T, errs []report.Error) *report.ConstraintError {
	t.Helper()
	require.Len(t, errs, 1)
	ce, ok := errs[0].(*report.ConstraintError)
	require.True(t, ok, "got %T", errs[0])
	return ce
}

// ============================================================================
// Field Constraints
// ============================================================================

func TestFieldConstraints_Required(t *testing.T) {
	c := col("x", schema.TypeInteger, ints(1, nil, 3, nil)...)
	ce := onlyConstraintError(t, FieldConstraints(c, intField("x"), schema.Constraints{Required: true}))

	assert.Equal(t, report.ConstraintRequired, ce.Constraint)
	assert.Equal(t, true, ce.ConstraintValue)
	assert.Equal(t, []any{nil}, ce.Values)
	assert.Equal(t, report.CodeRequired, ce.Code())
}

func TestFieldConstraints_Unique(t *testing.T) {
	c := col("x", schema.TypeString, "a", "b", "a", "c", "b", "a")
	ce := onlyConstraintError(t, FieldConstraints(c, strField("x"), schema.Constraints{Unique: true}))

	assert.Equal(t, []any{"a", "b"}, ce.Values)
	assert.Equal(t, report.CodeUnique, ce.Code())
}

func TestFieldConstraints_UniqueCountsNulls(t *testing.T) {
	c := col("x", schema.TypeString, "a", nil, "b", nil, "a")
	ce := onlyConstraintError(t, FieldConstraints(c, strField("x"), schema.Constraints{Unique: true}))

	assert.Equal(t, []any{nil, "a"}, ce.Values)
}

func TestFieldConstraints_Length(t *testing.T) {
	lo, hi := 2, 3
	c := col("x", schema.TypeString, "a", "ab", "abc", "abcd", "a", nil, "añb")

	errs := FieldConstraints(c, strField("x"), schema.Constraints{MinLength: &lo, MaxLength: &hi})
	require.Len(t, errs, 2)

	minErr := errs[0].(*report.ConstraintError)
	assert.Equal(t, report.ConstraintMinLength, minErr.Constraint)
	assert.Equal(t, 2, minErr.ConstraintValue)
	assert.Equal(t, []any{"a"}, minErr.Values)

	maxErr := errs[1].(*report.ConstraintError)
	assert.Equal(t, report.ConstraintMaxLength, maxErr.Constraint)
	assert.Equal(t, []any{"abcd"}, maxErr.Values)
}

func TestFieldConstraints_Bounds(t *testing.T) {
	c := col("x", schema.TypeInteger, ints(1, 2, 5, 6, nil, 1)...)

	errs := FieldConstraints(c, intField("x"), schema.Constraints{Minimum: "2", Maximum: 5.0})
	require.Len(t, errs, 2)

	minErr := errs[0].(*report.ConstraintError)
	assert.Equal(t, report.ConstraintMinimum, minErr.Constraint)
	assert.Equal(t, int64(2), minErr.ConstraintValue)
	assert.Equal(t, ints(1), minErr.Values)

	maxErr := errs[1].(*report.ConstraintError)
	assert.Equal(t, int64(5), maxErr.ConstraintValue)
	assert.Equal(t, ints(6), maxErr.Values)
}

func TestFieldConstraints_BadBoundLiteral(t *testing.T) {
	c := col("x", schema.TypeInteger, ints(1, 2)...)

	errs := FieldConstraints(c, intField("x"), schema.Constraints{Minimum: "two"})
	require.Len(t, errs, 1)

	cte, ok := errs[0].(*report.ConstraintTypeError)
	require.True(t, ok, "got %T", errs[0])
	assert.Equal(t, report.ConstraintMinimum, cte.Constraint)
	assert.Equal(t, "two", cte.ConstraintValue)
	assert.Equal(t, report.CodeTypeOrFormat, cte.Code())
}

func TestFieldConstraints_Pattern(t *testing.T) {
	c := col("x", schema.TypeString, "ab1", "ab", "xab1", "ab1x", "ab")
	ce := onlyConstraintError(t, FieldConstraints(c, strField("x"), schema.Constraints{Pattern: `ab\d|ab`}))

	// Alternation is anchored as a whole.
	assert.Equal(t, []any{"xab1", "ab1x"}, ce.Values)
}

func TestFieldConstraints_Enum(t *testing.T) {
	c := col("x", schema.TypeInteger, ints(1, 2, 3, 4, 3, nil)...)
	ce := onlyConstraintError(t, FieldConstraints(c, intField("x"), schema.Constraints{Enum: []any{"1", 2.0}}))

	assert.Equal(t, ints(1, 2), ce.ConstraintValue)
	assert.Equal(t, ints(3, 4), ce.Values)
	assert.Equal(t, report.CodeEnum, ce.Code())
}

func TestFieldConstraints_BadEnumLiteral(t *testing.T) {
	c := col("x", schema.TypeInteger, ints(1)...)

	errs := FieldConstraints(c, intField("x"), schema.Constraints{Enum: []any{"1", "a", "b", "a"}})
	require.Len(t, errs, 1)

	cte, ok := errs[0].(*report.ConstraintTypeError)
	require.True(t, ok, "got %T", errs[0])
	assert.Equal(t, []any{"a", "b"}, cte.ConstraintValue)
}

func TestFieldConstraints_InapplicableSkipped(t *testing.T) {
	lo := 5
	c := col("x", schema.TypeInteger, ints(1, 2)...)

	errs := FieldConstraints(c, intField("x"), schema.Constraints{MinLength: &lo, Pattern: `\d{3}`})
	assert.Empty(t, errs)
}

func TestRawConstraints(t *testing.T) {
	lo := 2
	f := intField("x")
	f.Constraints = schema.Constraints{Pattern: `\d{2}`, MinLength: &lo}
	raw := table.NewStringColumn("x", []string{"10", "5", "", "07", "5"}, []string{""})

	errs := RawConstraints(raw, f)
	require.Len(t, errs, 2)

	minErr := errs[0].(*report.ConstraintError)
	assert.Equal(t, report.ConstraintMinLength, minErr.Constraint)
	assert.Equal(t, []any{"5"}, minErr.Values)

	patErr := errs[1].(*report.ConstraintError)
	assert.Equal(t, report.ConstraintPattern, patErr.Constraint)
	assert.Equal(t, []any{"5"}, patErr.Values)

	assert.Nil(t, RawConstraints(raw, strField("x")))
}

func TestConstraints_SkipsMissingColumns(t *testing.T) {
	s := &schema.Schema{Fields: []schema.Field{
		{Name: "a", Type: schema.TypeString, Constraints: schema.Constraints{Required: true}},
		{Name: "b", Type: schema.TypeString, Constraints: schema.Constraints{Required: true}},
	}}
	tbl := mustTable(t, "t", col("a", schema.TypeString, "x", nil))

	errs := Constraints(tbl, s)
	require.Len(t, errs, 1)
	name, _ := report.FieldName(errs[0])
	assert.Equal(t, "a", name)
}

// ============================================================================
// Keys
// ============================================================================

func TestPrimaryKey_Duplicates(t *testing.T) {
	tbl := mustTable(t, "t", col("id", schema.TypeInteger, ints(1, 2, 2)...))

	errs := PrimaryKey(tbl, []string{"id"}, KeyOptions{SkipRequired: true})
	require.Len(t, errs, 1)

	pk, ok := errs[0].(*report.PrimaryKeyError)
	require.True(t, ok, "got %T", errs[0])
	assert.Equal(t, []string{"id"}, pk.Key)
	assert.Equal(t, [][]any{ints(2)}, pk.Values)
	assert.Equal(t, report.CodePrimaryKey, pk.Code())
}

func TestPrimaryKey_Options(t *testing.T) {
	tbl := mustTable(t, "t", col("id", schema.TypeInteger, ints(1, nil, 1)...))

	errs := PrimaryKey(tbl, []string{"id"}, KeyOptions{})
	require.Len(t, errs, 2)
	assert.IsType(t, &report.ConstraintError{}, errs[0])
	assert.IsType(t, &report.PrimaryKeyError{}, errs[1])

	assert.Empty(t, PrimaryKey(tbl, []string{"id"}, KeyOptions{SkipRequired: true, SkipSingle: true}))
	assert.Empty(t, PrimaryKey(tbl, []string{"missing"}, KeyOptions{}))
}

func TestPrimaryKey_Composite(t *testing.T) {
	tbl := mustTable(t, "t",
		col("a", schema.TypeInteger, ints(1, 1, 2, 1, 1)...),
		col("b", schema.TypeString, "x", "y", "x", "x", "x"),
	)

	errs := PrimaryKey(tbl, []string{"a", "b"}, KeyOptions{SkipRequired: true, SkipSingle: true})
	require.Len(t, errs, 1)
	assert.Equal(t, [][]any{{int64(1), "x"}}, errs[0].(*report.PrimaryKeyError).Values)
}

func TestUniqueKeys(t *testing.T) {
	tbl := mustTable(t, "t",
		col("a", schema.TypeInteger, ints(1, 1, nil, nil, 2)...),
		col("b", schema.TypeString, "x", "y", nil, nil, "x"),
	)
	keys := [][]string{{"a", "b"}, {"a"}, {"missing"}}

	errs := UniqueKeys(tbl, keys, false)
	require.Len(t, errs, 2)

	composite := errs[0].(*report.UniqueKeyError)
	assert.Equal(t, []string{"a", "b"}, composite.Key)
	assert.Equal(t, [][]any{{nil, nil}}, composite.Values)

	single := errs[1].(*report.UniqueKeyError)
	assert.Equal(t, [][]any{ints(1), {nil}}, single.Values)

	errs = UniqueKeys(tbl, keys, true)
	require.Len(t, errs, 1)
	assert.Equal(t, report.CodeUniqueKey, errs[0].Code())
}

func TestForeignKeys_Membership(t *testing.T) {
	parent := mustTable(t, "parent", col("id", schema.TypeInteger, ints(1, 2)...))
	child := mustTable(t, "child", col("pid", schema.TypeInteger, ints(1, 3, nil, 2, 3, 4)...))
	fk := foreignKey("pid", "parent", "id")

	errs := ForeignKeys(child, []schema.ForeignKey{fk}, map[string]*table.Table{"parent": parent}, ParentNone)
	require.Len(t, errs, 1)

	fe, ok := errs[0].(*report.ForeignKeyError)
	require.True(t, ok, "got %T", errs[0])
	assert.Equal(t, "parent", fe.Resource)
	assert.Equal(t, [][]any{ints(3), ints(4)}, fe.Values)
	assert.Equal(t, report.CodeForeignKey, fe.Code())
}

func TestForeignKeys_Composite(t *testing.T) {
	parent := mustTable(t, "parent",
		col("id", schema.TypeInteger, ints(1, 2)...),
		col("code", schema.TypeString, "x", "y"),
	)
	child := mustTable(t, "child",
		col("pid", schema.TypeInteger, ints(1, nil, 2)...),
		col("pcode", schema.TypeString, "y", "z", nil),
	)
	fk := schema.ForeignKey{
		Fields:    []string{"pid", "pcode"},
		Reference: schema.Reference{Resource: "parent", Fields: []string{"id", "code"}},
	}

	errs := ForeignKeys(child, []schema.ForeignKey{fk}, map[string]*table.Table{"parent": parent}, ParentNone)
	require.Len(t, errs, 1)
	fe, ok := errs[0].(*report.ForeignKeyError)
	require.True(t, ok, "got %T", errs[0])
	assert.Equal(t, [][]any{{int64(1), "y"}}, fe.Values, "tuples with a null are skipped")
}

func TestForeignKeys_SelfReference(t *testing.T) {
	tbl := mustTable(t, "t",
		col("id", schema.TypeInteger, ints(1, 2, 3)...),
		col("parent", schema.TypeInteger, ints(nil, 1, 5)...),
	)
	fk := foreignKey("parent", "", "id")

	errs := ForeignKeys(tbl, []schema.ForeignKey{fk}, nil, ParentUniqueKey)
	require.Len(t, errs, 1)
	assert.Equal(t, [][]any{ints(5)}, errs[0].(*report.ForeignKeyError).Values)
}

func TestForeignKeys_MissingParentSkipped(t *testing.T) {
	child := mustTable(t, "child", col("pid", schema.TypeInteger, ints(1)...))
	fk := foreignKey("pid", "gone", "id")

	assert.Empty(t, ForeignKeys(child, []schema.ForeignKey{fk}, map[string]*table.Table{}, ParentNone))
}

func TestForeignKeys_ParentErrorsResurfaced(t *testing.T) {
	parent := mustTable(t, "parent", col("id", schema.TypeInteger, ints(1, 1, nil)...))
	child := mustTable(t, "child", col("pid", schema.TypeInteger, ints(1)...))
	fk := foreignKey("pid", "parent", "id")
	tables := map[string]*table.Table{"parent": parent}

	errs := ForeignKeys(child, []schema.ForeignKey{fk}, tables, ParentUniqueKey)
	require.Len(t, errs, 1)
	fe, ok := errs[0].(*report.ForeignKeyError)
	require.True(t, ok, "got %T", errs[0])
	assert.Equal(t, [][]any{ints(1)}, fe.Values)

	errs = ForeignKeys(child, []schema.ForeignKey{fk}, tables, ParentPrimaryKey)
	require.Len(t, errs, 2)
	ce, ok := errs[0].(*report.ConstraintError)
	require.True(t, ok, "got %T", errs[0])
	assert.Equal(t, "parent.id", ce.FieldName)
	assert.Equal(t, report.ConstraintRequired, ce.Constraint)
	assert.IsType(t, &report.ForeignKeyError{}, errs[1])
}

func TestChecksAreIdempotent(t *testing.T) {
	tbl := mustTable(t, "t", col("id", schema.TypeInteger, ints(1, 2, 2, nil)...))
	f := intField("id")
	c := schema.Constraints{Required: true, Unique: true, Enum: []any{1.0, 2.0}}

	id, _ := tbl.Column("id")
	first := FieldConstraints(id, f, c)
	second := FieldConstraints(id, f, c)
	assert.Equal(t, first, second)

	pk1 := PrimaryKey(tbl, []string{"id"}, KeyOptions{})
	pk2 := PrimaryKey(tbl, []string{"id"}, KeyOptions{})
	assert.Equal(t, pk1, pk2)
	assert.Equal(t, ints(1, 2, 2, nil), id.Values)
}
