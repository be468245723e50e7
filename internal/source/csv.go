package source

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/JonMunkholm/tablecheck/internal/report"
	"github.com/JonMunkholm/tablecheck/internal/schema"
)

// ctxCheckInterval is how many records are read between context checks.
const ctxCheckInterval = 1000

func init() {
	Register(KindCSV, &CSVReader{Client: http.DefaultClient})
}

// CSVReader reads file resources: local paths relative to the descriptor's
// base path, or http(s) URLs. Multiple paths are concatenated in order;
// each file carries its own header row.
type CSVReader struct {
	Client *http.Client
}

type csvFile struct {
	headers []string
	rows    [][]any
	width   int
	bytes   int64
}

// Read implements Reader.
func (r *CSVReader) Read(ctx context.Context, res *schema.Resource, basePath string) (*Result, error) {
	out := &Result{}
	for _, p := range res.Path {
		out.Sources = append(out.Sources, resolvePath(basePath, p))
	}

	cols := newColumns(&res.Schema, res.Dialect.NullSequence)
	for i, src := range out.Sources {
		f, err := r.readFile(ctx, src, res)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			out.Errors = append(out.Errors, &report.SourceError{Source: src, Note: err.Error()})
			return out, nil
		}
		out.Bytes += f.bytes

		var index []int
		var herrs []report.Error
		if res.Dialect.Header {
			index, herrs = matchHeaders(f.headers, &res.Schema, false)
		} else {
			f.headers = res.Schema.FieldNames()
			index, herrs = positional(f.width, &res.Schema)
		}
		if i == 0 {
			out.Headers = f.headers
		}
		if len(herrs) > 0 {
			out.Errors = append(out.Errors, herrs...)
			continue
		}
		cols.add(f.rows, index)
	}
	if len(out.Errors) > 0 {
		return out, nil
	}

	t, err := cols.table(res.Name)
	if err != nil {
		return nil, err
	}
	out.Table = t
	return out, nil
}

func (r *CSVReader) readFile(ctx context.Context, src string, res *schema.Resource) (*csvFile, error) {
	rc, err := r.open(ctx, src)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	counter := newCountingReader(rc)
	text, err := decodeReader(counter, res.Encoding)
	if err != nil {
		return nil, err
	}

	d := res.Dialect
	cr := csv.NewReader(text)
	cr.Comma, _ = utf8.DecodeRuneInString(d.Delimiter)
	if d.CommentChar != "" {
		cr.Comment, _ = utf8.DecodeRuneInString(d.CommentChar)
	}
	cr.TrimLeadingSpace = d.SkipInitialSpace
	cr.FieldsPerRecord = -1

	f := &csvFile{width: -1}
	for n := 0; ; n++ {
		if n%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if d.Header && f.headers == nil {
			f.headers = rec
			f.width = len(rec)
			continue
		}
		if f.width < 0 {
			f.width = len(rec)
		}
		if len(rec) > f.width {
			line, _ := cr.FieldPos(0)
			return nil, fmt.Errorf("line %d: expected %d fields, saw %d", line, f.width, len(rec))
		}
		row := make([]any, len(rec))
		for i, c := range rec {
			row[i] = c
		}
		f.rows = append(f.rows, row)
	}

	if d.Header && f.headers == nil {
		return nil, errors.New("no header row")
	}
	if f.width < 0 {
		f.width = len(res.Schema.Fields)
	}
	f.bytes = counter.n
	return f, nil
}

func (r *CSVReader) open(ctx context.Context, src string) (io.ReadCloser, error) {
	if !isURL(src) {
		return os.Open(src)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return nil, err
	}
	client := r.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("GET %s: %s", src, resp.Status)
	}
	return resp.Body, nil
}

func isURL(p string) bool {
	return strings.HasPrefix(p, "http://") || strings.HasPrefix(p, "https://")
}

// resolvePath joins a relative local path to the descriptor's base path.
func resolvePath(basePath, p string) string {
	if basePath == "" || isURL(p) || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(basePath, p)
}
