package schema

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// Configuration errors. Every error returned by Load, Decode and Validate
// wraps one of these.
var (
	ErrUnsupportedType   = errors.New("unsupported field type")
	ErrUnknownFormat     = errors.New("unknown field format")
	ErrInvalidDescriptor = errors.New("invalid descriptor")
	ErrDecode            = errors.New("decode descriptor")
)

// ErrOutsideRoot is returned by DecodeWithin for a local path that resolves
// outside the root directory.
var ErrOutsideRoot = errors.New("path outside data root")

// Encoding is the serialisation of a descriptor file.
type Encoding int

const (
	EncodingJSON Encoding = iota
	EncodingYAML
)

// EncodingForPath picks the descriptor encoding from a file extension.
// Anything that is not .yaml or .yml is read as JSON.
func EncodingForPath(path string) Encoding {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return EncodingYAML
	}
	return EncodingJSON
}

// Load reads, normalises and validates the package descriptor at path.
// Relative resource paths resolve against the descriptor's directory.
func Load(path string) (*Package, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read descriptor: %w", err)
	}
	base, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("resolve descriptor directory: %w", err)
	}
	return Decode(data, EncodingForPath(path), base)
}

// Decode parses a package descriptor. basePath resolves relative paths to
// data and schema files.
func Decode(data []byte, enc Encoding, basePath string) (*Package, error) {
	return decodePackage(data, enc, basePath, false)
}

// DecodeWithin is Decode for untrusted descriptors: local data and schema
// paths must resolve inside root. URLs and SQL sources are not restricted.
func DecodeWithin(data []byte, enc Encoding, root string) (*Package, error) {
	return decodePackage(data, enc, root, true)
}

func decodePackage(data []byte, enc Encoding, basePath string, confine bool) (*Package, error) {
	var desc packageDescriptor
	if err := decode(data, enc, &desc); err != nil {
		return nil, err
	}

	pkg := &Package{Name: desc.Name, BasePath: basePath}
	var errs []error
	for i, rd := range desc.Resources {
		if confine {
			if err := checkWithin(rd, basePath); err != nil {
				errs = append(errs, fmt.Errorf("resource %d (%s): %w", i, rd.Name, err))
				continue
			}
		}
		res, err := buildResource(rd, basePath)
		if err != nil {
			errs = append(errs, fmt.Errorf("resource %d (%s): %w", i, rd.Name, err))
			continue
		}
		pkg.Resources = append(pkg.Resources, res)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	if err := pkg.Validate(); err != nil {
		return nil, err
	}
	return pkg, nil
}

func decode(data []byte, enc Encoding, v any) error {
	// Unknown keys (title, description, profile, ...) are ignored.
	var err error
	switch enc {
	case EncodingYAML:
		err = yaml.NewDecoder(bytes.NewReader(data)).Decode(v)
	default:
		err = json.NewDecoder(bytes.NewReader(data)).Decode(v)
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return nil
}

func buildResource(rd resourceDescriptor, basePath string) (Resource, error) {
	res := Resource{
		Name:     rd.Name,
		Path:     []string(rd.Path),
		Encoding: rd.Encoding,
		Dialect:  buildDialect(rd.Dialect),
	}
	if rd.SQL != nil {
		res.SQL = &SQLSource{
			Driver: rd.SQL.Driver,
			DSN:    rd.SQL.DSN,
			Table:  rd.SQL.Table,
			Query:  rd.SQL.Query,
		}
	}
	if err := validateDialect(rd.Dialect); err != nil {
		return res, err
	}

	sd := rd.Schema.Inline
	if rd.Schema.Path != "" {
		loaded, err := loadSchemaFile(rd.Schema.Path, basePath)
		if err != nil {
			return res, err
		}
		sd = loaded
	}
	if sd == nil {
		return res, fmt.Errorf("%w: missing schema", ErrInvalidDescriptor)
	}
	s, err := buildSchema(*sd)
	if err != nil {
		return res, err
	}
	res.Schema = s
	return res, nil
}

// checkWithin rejects local paths of rd that leave root. A sqlite DSN is a
// local path; file: URIs other than in-memory ones are rejected outright.
func checkWithin(rd resourceDescriptor, root string) error {
	paths := []string{}
	if rd.SQL == nil {
		for _, p := range rd.Path {
			if !strings.HasPrefix(p, "http://") && !strings.HasPrefix(p, "https://") {
				paths = append(paths, p)
			}
		}
	}
	if rd.SQL != nil && rd.SQL.Driver == "sqlite" {
		dsn := rd.SQL.DSN
		switch {
		case dsn == "" || strings.HasPrefix(dsn, ":memory:"):
		case strings.HasPrefix(dsn, "file:"):
			name, _, _ := strings.Cut(strings.TrimPrefix(dsn, "file:"), "?")
			if name != ":memory:" {
				return fmt.Errorf("%w: %s", ErrOutsideRoot, dsn)
			}
		default:
			paths = append(paths, filepath.FromSlash(dsn))
		}
	}
	if rd.Schema.Path != "" {
		paths = append(paths, rd.Schema.Path)
	}
	for _, p := range paths {
		abs := p
		if !filepath.IsAbs(abs) {
			abs = filepath.Join(root, p)
		}
		rel, err := filepath.Rel(root, filepath.Clean(abs))
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return fmt.Errorf("%w: %s", ErrOutsideRoot, p)
		}
	}
	return nil
}

func loadSchemaFile(path, basePath string) (*schemaDescriptor, error) {
	if !filepath.IsAbs(path) {
		path = filepath.Join(basePath, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema: %w", err)
	}
	var sd schemaDescriptor
	if err := decode(data, EncodingForPath(path), &sd); err != nil {
		return nil, err
	}
	return &sd, nil
}

func buildDialect(dd *dialectDescriptor) Dialect {
	d := DefaultDialect()
	if dd == nil {
		return d
	}
	if dd.Delimiter != nil {
		d.Delimiter = *dd.Delimiter
	}
	if dd.QuoteChar != nil {
		d.QuoteChar = *dd.QuoteChar
	}
	if dd.DoubleQuote != nil {
		d.DoubleQuote = *dd.DoubleQuote
	}
	if dd.SkipInitialSpace != nil {
		d.SkipInitialSpace = *dd.SkipInitialSpace
	}
	if dd.CommentChar != nil {
		d.CommentChar = *dd.CommentChar
	}
	if dd.Header != nil {
		d.Header = *dd.Header
	}
	if dd.NullSequence != nil {
		d.NullSequence = *dd.NullSequence
	}
	if dd.LineTerminator != nil {
		d.LineTerminator = *dd.LineTerminator
	}
	return d
}

func buildSchema(sd schemaDescriptor) (Schema, error) {
	s := Schema{
		PrimaryKey:    []string(sd.PrimaryKey),
		MissingValues: []string{""},
	}
	if sd.MissingValues != nil {
		s.MissingValues = *sd.MissingValues
	}
	for _, k := range sd.UniqueKeys {
		s.UniqueKeys = append(s.UniqueKeys, []string(k))
	}
	for _, fk := range sd.ForeignKeys {
		s.ForeignKeys = append(s.ForeignKeys, ForeignKey{
			Fields: []string(fk.Fields),
			Reference: Reference{
				Resource: fk.Reference.Resource,
				Fields:   []string(fk.Reference.Fields),
			},
		})
	}

	var errs []error
	for _, fd := range sd.Fields {
		f, err := buildField(fd)
		if err != nil {
			errs = append(errs, fmt.Errorf("field %q: %w", fd.Name, err))
			continue
		}
		s.Fields = append(s.Fields, f)
	}
	return s, errors.Join(errs...)
}

func buildField(fd fieldDescriptor) (Field, error) {
	t, err := ParseFieldType(fd.Type)
	if err != nil {
		return Field{}, err
	}
	f := Field{
		Name:        fd.Name,
		Type:        t,
		Format:      fd.Format,
		DecimalChar: fd.DecimalChar,
		GroupChar:   fd.GroupChar,
		BareNumber:  true,
		TrueValues:  fd.TrueValues,
		FalseValues: fd.FalseValues,
	}
	if f.Format == "" {
		f.Format = FormatDefault
	}
	if f.DecimalChar == "" {
		f.DecimalChar = "."
	}
	if fd.BareNumber != nil {
		f.BareNumber = *fd.BareNumber
	}
	if f.TrueValues == nil {
		f.TrueValues = DefaultTrueValues
	}
	if f.FalseValues == nil {
		f.FalseValues = DefaultFalseValues
	}
	if c := fd.Constraints; c != nil {
		f.Constraints = Constraints{
			Required:  c.Required,
			Unique:    c.Unique,
			MinLength: c.MinLength,
			MaxLength: c.MaxLength,
			Minimum:   c.Minimum,
			Maximum:   c.Maximum,
			Pattern:   c.Pattern,
			Enum:      c.Enum,
		}
	}
	return f, nil
}

func validateDialect(dd *dialectDescriptor) error {
	if dd == nil {
		return nil
	}
	if dd.EscapeChar != nil && *dd.EscapeChar != "" {
		return fmt.Errorf("%w: dialect escapeChar is not supported", ErrInvalidDescriptor)
	}
	if dd.DoubleQuote != nil && !*dd.DoubleQuote {
		return fmt.Errorf("%w: dialect doubleQuote=false is not supported", ErrInvalidDescriptor)
	}
	return nil
}
