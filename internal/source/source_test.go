package source

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/JonMunkholm/tablecheck/internal/report"
	"github.com/JonMunkholm/tablecheck/internal/schema"
)

func testResource(paths []string, fields ...string) *schema.Resource {
	res := &schema.Resource{
		Name:    "t",
		Path:    paths,
		Dialect: schema.DefaultDialect(),
		Schema:  schema.Schema{MissingValues: []string{""}},
	}
	for _, f := range fields {
		res.Schema.Fields = append(res.Schema.Fields, schema.Field{Name: f, Type: schema.TypeString})
	}
	return res
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
}

func columnValues(t *testing.T, r *Result, name string) []any {
	t.Helper()
	if r.Table == nil {
		t.Fatalf("Table = nil, errors = %v", r.Errors)
	}
	c, ok := r.Table.Column(name)
	if !ok {
		t.Fatalf("column %q missing", name)
	}
	return c.Values
}

func codes(errs []report.Error) []string {
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Code()
	}
	return out
}

// ============================================================================
// Streaming
// ============================================================================

func TestDecodeReader(t *testing.T) {
	tests := []struct {
		name     string
		input    []byte
		encoding string
		expected string
	}{
		{
			name:     "utf-8 with BOM",
			input:    append([]byte{0xEF, 0xBB, 0xBF}, "a,b"...),
			expected: "a,b",
		},
		{
			name:     "no BOM",
			input:    []byte("a,b"),
			encoding: "utf-8",
			expected: "a,b",
		},
		{
			name:     "invalid byte replaced",
			input:    []byte{'h', 'e', 0x80, 'l', 'o'},
			expected: "he�lo",
		},
		{
			name:     "latin1",
			input:    []byte("caf\xe9"),
			encoding: "latin1",
			expected: "café",
		},
		{
			name:     "empty input",
			input:    []byte{},
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := decodeReader(strings.NewReader(string(tt.input)), tt.encoding)
			if err != nil {
				t.Fatalf("decodeReader() error = %v", err)
			}
			got, err := io.ReadAll(r)
			if err != nil {
				t.Fatalf("ReadAll() error = %v", err)
			}
			if string(got) != tt.expected {
				t.Errorf("got %q, want %q", got, tt.expected)
			}
		})
	}

	if _, err := decodeReader(strings.NewReader(""), "klingon"); err == nil {
		t.Error("decodeReader(klingon) error = nil, want error")
	}
}

func TestCountingReader(t *testing.T) {
	c := newCountingReader(strings.NewReader("hello, world"))
	if _, err := io.ReadAll(c); err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if c.n != 12 {
		t.Errorf("n = %d, want 12", c.n)
	}
}

// ============================================================================
// CSV
// ============================================================================

func TestCSVRead(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "data.csv", "b,a\n1,x\n,NA\n2\n3,-\n")

	res := testResource([]string{"data.csv"}, "a", "b")
	res.Schema.MissingValues = []string{"", "NA"}
	res.Dialect.NullSequence = "-"

	r, err := Read(context.Background(), res, dir)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if len(r.Errors) != 0 {
		t.Fatalf("Errors = %v, want none", r.Errors)
	}

	if got, want := columnValues(t, r, "a"), []any{"x", nil, nil, nil}; !reflect.DeepEqual(got, want) {
		t.Errorf("a = %v, want %v", got, want)
	}
	if got, want := columnValues(t, r, "b"), []any{"1", nil, "2", "3"}; !reflect.DeepEqual(got, want) {
		t.Errorf("b = %v, want %v", got, want)
	}
	if r.Table.Columns[0].Name != "a" {
		t.Errorf("first column = %q, want schema order", r.Table.Columns[0].Name)
	}
	if got, want := r.Headers, []string{"b", "a"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Headers = %v, want %v", got, want)
	}
	if r.Bytes != 18 {
		t.Errorf("Bytes = %d, want 18", r.Bytes)
	}
	if want := filepath.Join(dir, "data.csv"); len(r.Sources) != 1 || r.Sources[0] != want {
		t.Errorf("Sources = %v, want [%s]", r.Sources, want)
	}
}

func TestCSVRead_Dialect(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "data.csv", "# comment\na;b\n1; \"x;y\"\n")

	res := testResource([]string{"data.csv"}, "a", "b")
	res.Dialect.Delimiter = ";"
	res.Dialect.CommentChar = "#"

	r, err := Read(context.Background(), res, dir)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if got, want := columnValues(t, r, "b"), []any{"x;y"}; !reflect.DeepEqual(got, want) {
		t.Errorf("b = %v, want %v", got, want)
	}
}

func TestCSVRead_Headerless(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "data.csv", "1,x\n2,y\n")

	res := testResource([]string{"data.csv"}, "a", "b")
	res.Dialect.Header = false

	r, err := Read(context.Background(), res, dir)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if got, want := columnValues(t, r, "a"), []any{"1", "2"}; !reflect.DeepEqual(got, want) {
		t.Errorf("a = %v, want %v", got, want)
	}
	if got, want := r.Headers, []string{"a", "b"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Headers = %v, want %v", got, want)
	}

	res = testResource([]string{"data.csv"}, "a", "b", "c")
	res.Dialect.Header = false
	r, err = Read(context.Background(), res, dir)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if got, want := codes(r.Errors), []string{report.CodeMissingHeader}; !reflect.DeepEqual(got, want) {
		t.Errorf("codes = %v, want %v", got, want)
	}
}

func TestCSVRead_MultiplePaths(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "one.csv", "a,b\n1,x\n")
	writeFile(t, dir, "two.csv", "b,a\ny,2\n")

	r, err := Read(context.Background(), testResource([]string{"one.csv", "two.csv"}, "a", "b"), dir)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if got, want := columnValues(t, r, "a"), []any{"1", "2"}; !reflect.DeepEqual(got, want) {
		t.Errorf("a = %v, want %v", got, want)
	}
	if len(r.Sources) != 2 {
		t.Errorf("len(Sources) = %d, want 2", len(r.Sources))
	}
}

func TestCSVRead_HeaderErrors(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   []string
	}{
		{"blank", "a,,b", []string{report.CodeBlankHeader}},
		{"duplicate", "a,b,a", []string{report.CodeDuplicateHeader}},
		{"extra", "a,b,c", []string{report.CodeExtraHeader}},
		{"missing", "a", []string{report.CodeMissingHeader}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeFile(t, dir, "data.csv", tt.header+"\n")

			r, err := Read(context.Background(), testResource([]string{"data.csv"}, "a", "b"), dir)
			if err != nil {
				t.Fatalf("Read() error = %v", err)
			}
			if got := codes(r.Errors); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("codes = %v, want %v", got, tt.want)
			}
			if r.Table != nil {
				t.Error("Table != nil with header errors")
			}
		})
	}
}

func TestCSVRead_SourceErrors(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		encoding string
	}{
		{"missing file", "", ""},
		{"long row", "a,b\n1,2,3\n", ""},
		{"bare quote", "a,b\n1,x\"y\n", ""},
		{"empty file", "", ""},
		{"unknown encoding", "a,b\n", "klingon"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			if tt.name != "missing file" {
				writeFile(t, dir, "data.csv", tt.content)
			}
			res := testResource([]string{"data.csv"}, "a", "b")
			res.Encoding = tt.encoding

			r, err := Read(context.Background(), res, dir)
			if err != nil {
				t.Fatalf("Read() error = %v", err)
			}
			if got := codes(r.Errors); !reflect.DeepEqual(got, []string{report.CodeSourceError}) {
				t.Errorf("codes = %v, want [source-error]", got)
			}
		})
	}
}

func TestCSVRead_Cancelled(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "data.csv", "a,b\n1,2\n")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Read(ctx, testResource([]string{"data.csv"}, "a", "b"), dir); !errors.Is(err, context.Canceled) {
		t.Errorf("Read() error = %v, want context.Canceled", err)
	}
}

func TestCSVRead_URL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/data.csv" {
			http.NotFound(w, r)
			return
		}
		io.WriteString(w, "a,b\n1,x\n")
	}))
	defer srv.Close()

	r, err := Read(context.Background(), testResource([]string{srv.URL + "/data.csv"}, "a", "b"), "/ignored")
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if got, want := columnValues(t, r, "b"), []any{"x"}; !reflect.DeepEqual(got, want) {
		t.Errorf("b = %v, want %v", got, want)
	}

	r, err = Read(context.Background(), testResource([]string{srv.URL + "/gone.csv"}, "a", "b"), "")
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if got := codes(r.Errors); !reflect.DeepEqual(got, []string{report.CodeSourceError}) {
		t.Errorf("codes = %v, want [source-error]", got)
	}
}

// ============================================================================
// SQL
// ============================================================================

func TestSQLiteRead(t *testing.T) {
	dir := t.TempDir()
	db, err := sql.Open("sqlite", filepath.Join(dir, "data.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	for _, stmt := range []string{
		`CREATE TABLE people (id INTEGER, name TEXT, note TEXT)`,
		`INSERT INTO people VALUES (1, 'ann', 'x'), (2, NULL, 'y'), (3, '', 'z')`,
	} {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("Exec(%q) error = %v", stmt, err)
		}
	}
	db.Close()

	res := testResource(nil, "name", "id")
	res.SQL = &schema.SQLSource{Driver: KindSQLite, DSN: "data.db", Table: "people"}

	r, err := Read(context.Background(), res, dir)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if got, want := columnValues(t, r, "id"), []any{"1", "2", "3"}; !reflect.DeepEqual(got, want) {
		t.Errorf("id = %v, want %v", got, want)
	}
	if got, want := columnValues(t, r, "name"), []any{"ann", nil, nil}; !reflect.DeepEqual(got, want) {
		t.Errorf("name = %v, want %v", got, want)
	}
	if got, want := r.Sources, []string{"sqlite:people"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Sources = %v, want %v", got, want)
	}

	res.SQL = &schema.SQLSource{Driver: KindSQLite, DSN: "data.db", Query: "SELECT id FROM people"}
	r, err = Read(context.Background(), res, dir)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if got, want := codes(r.Errors), []string{report.CodeMissingHeader}; !reflect.DeepEqual(got, want) {
		t.Errorf("codes = %v, want %v", got, want)
	}

	res.SQL = &schema.SQLSource{Driver: KindSQLite, DSN: "data.db", Table: "nope"}
	r, err = Read(context.Background(), res, dir)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if got := codes(r.Errors); !reflect.DeepEqual(got, []string{report.CodeSourceError}) {
		t.Errorf("codes = %v, want [source-error]", got)
	}
}

func TestSelectQuery(t *testing.T) {
	tests := []struct {
		q     schema.SQLSource
		quote string
		want  string
	}{
		{schema.SQLSource{Table: "people"}, `"`, `SELECT * FROM "people"`},
		{schema.SQLSource{Table: "public.people"}, `"`, `SELECT * FROM "public"."people"`},
		{schema.SQLSource{Table: "odd`name"}, "`", "SELECT * FROM `odd``name`"},
		{schema.SQLSource{Query: "SELECT 1"}, `"`, "SELECT 1"},
	}
	for _, tt := range tests {
		if got := selectQuery(&tt.q, tt.quote); got != tt.want {
			t.Errorf("selectQuery(%+v) = %q, want %q", tt.q, got, tt.want)
		}
	}
}

func TestPgText(t *testing.T) {
	ts := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	tests := []struct {
		in   any
		oid  uint32
		want any
	}{
		{nil, 0, nil},
		{"x", 0, "x"},
		{int32(7), 0, "7"},
		{1.5, 0, "1.5"},
		{true, 0, "true"},
		{ts, pgtype.DateOID, "2024-01-15"},
		{ts, pgtype.TimestamptzOID, "2024-01-15T10:30:00+0000"},
		{[16]byte{0x12, 0x34}, 0, "12340000-0000-0000-0000-000000000000"},
	}
	for _, tt := range tests {
		if got := pgText(tt.in, tt.oid); got != tt.want {
			t.Errorf("pgText(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

// ============================================================================
// Registry
// ============================================================================

func TestRegistry(t *testing.T) {
	want := []string{KindCSV, KindMySQL, KindPostgres, KindSQLite}
	if got := Kinds(); !reflect.DeepEqual(got, want) {
		t.Errorf("Kinds() = %v, want %v", got, want)
	}

	func() {
		defer func() {
			if recover() == nil {
				t.Error("Register() duplicate did not panic")
			}
		}()
		Register(KindCSV, &CSVReader{})
	}()

	res := testResource(nil, "a")
	res.SQL = &schema.SQLSource{Driver: "oracle", Table: "t"}
	if _, err := Read(context.Background(), res, ""); !errors.Is(err, ErrUnknownSource) {
		t.Errorf("Read() error = %v, want ErrUnknownSource", err)
	}
}
