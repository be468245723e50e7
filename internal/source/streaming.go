package source

// streaming.go wraps raw input streams before CSV parsing:
//
//   - countingReader: tracks bytes read from the underlying source
//   - decodeReader: strips a byte order mark and decodes the declared
//     character encoding to UTF-8, replacing invalid sequences with U+FFFD
//
// Both work in constant memory regardless of file size.

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// DefaultEncoding is used when a resource declares none.
const DefaultEncoding = "utf-8"

// countingReader wraps an io.Reader to track bytes read.
type countingReader struct {
	reader io.Reader
	n      int64
}

func newCountingReader(r io.Reader) *countingReader {
	return &countingReader{reader: r}
}

// Read implements io.Reader.
func (r *countingReader) Read(p []byte) (int, error) {
	n, err := r.reader.Read(p)
	r.n += int64(n)
	return n, err
}

// lookupEncoding resolves an encoding label such as "utf-8", "latin1" or
// "windows-1252" using the WHATWG label set.
func lookupEncoding(label string) (encoding.Encoding, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		label = DefaultEncoding
	}
	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, fmt.Errorf("unsupported encoding %q", label)
	}
	return enc, nil
}

// decodeReader returns a reader producing UTF-8 text from r. A leading byte
// order mark selects UTF-8 or UTF-16 regardless of the declared encoding and
// is removed.
func decodeReader(r io.Reader, label string) (io.Reader, error) {
	enc, err := lookupEncoding(label)
	if err != nil {
		return nil, err
	}
	return transform.NewReader(r, unicode.BOMOverride(enc.NewDecoder())), nil
}
