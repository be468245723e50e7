// Package source reads resources into string-typed tables.
//
// A reader produces one raw column per schema field, in schema order, with
// missing values already mapped to null. Problems with the data itself
// (unreadable files, malformed CSV, failed queries, mismatched headers) are
// returned as report errors in the Result; a Go error means the resource
// could not be attempted at all.
package source

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/JonMunkholm/tablecheck/internal/report"
	"github.com/JonMunkholm/tablecheck/internal/schema"
	"github.com/JonMunkholm/tablecheck/internal/table"
)

// Source kinds.
const (
	KindCSV      = "csv"
	KindPostgres = "postgres"
	KindSQLite   = "sqlite"
	KindMySQL    = "mysql"
)

// ErrUnknownSource is returned when no reader is registered for a
// resource's source kind.
var ErrUnknownSource = errors.New("unknown source kind")

// Result is what a reader produced for one resource.
type Result struct {
	// Table holds one string column per schema field. It is nil when Errors
	// is not empty.
	Table *table.Table

	// Headers is the header row as read, or the field names for headerless
	// and SQL sources.
	Headers []string

	// Sources are the resolved paths or the database tables read.
	Sources []string

	// Bytes is the number of raw bytes read from files.
	Bytes int64

	// Errors are header and source errors. Any error means the table could
	// not be built.
	Errors []report.Error
}

// Reader reads one resource.
type Reader interface {
	Read(ctx context.Context, res *schema.Resource, basePath string) (*Result, error)
}

var (
	registry   = make(map[string]Reader)
	registryMu sync.RWMutex
)

// Register adds a reader for a source kind.
// Panics if a reader for the kind is already registered.
func Register(kind string, r Reader) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := registry[kind]; exists {
		panic(fmt.Sprintf("source already registered: %s", kind))
	}
	registry[kind] = r
}

// Lookup returns the reader for a source kind.
func Lookup(kind string) (Reader, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	r, ok := registry[kind]
	return r, ok
}

// Kinds returns the registered source kinds, sorted.
func Kinds() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	kinds := make([]string, 0, len(registry))
	for k := range registry {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// Kind returns the source kind of a resource: the SQL driver name, or csv
// for file resources.
func Kind(res *schema.Resource) string {
	if res.SQL != nil {
		return res.SQL.Driver
	}
	return KindCSV
}

// Read reads a resource with the reader registered for its kind.
func Read(ctx context.Context, res *schema.Resource, basePath string) (*Result, error) {
	kind := Kind(res)
	r, ok := Lookup(kind)
	if !ok {
		return nil, fmt.Errorf("%w: %q (have %v)", ErrUnknownSource, kind, Kinds())
	}
	return r.Read(ctx, res, basePath)
}
