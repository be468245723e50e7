// Package watch re-validates a package whenever its descriptor or local data
// files change.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/JonMunkholm/tablecheck/internal/report"
	"github.com/JonMunkholm/tablecheck/internal/schema"
)

// DefaultDebounce is the quiet period after the last change before a run.
const DefaultDebounce = 500 * time.Millisecond

// Validator runs one validation. *core.Service implements it.
type Validator interface {
	ValidateFile(ctx context.Context, path string) (*report.Report, error)
}

// Callback receives the outcome of every run.
type Callback func(rep *report.Report, err error)

// Watcher follows one descriptor.
type Watcher struct {
	path      string
	validator Validator
	debounce  time.Duration
	onResult  Callback

	fsw   *fsnotify.Watcher
	files map[string]bool
	dirs  map[string]bool
}

// New creates a watcher for the descriptor at path. Call Run to start it.
func New(path string, v Validator, debounce time.Duration, onResult Callback) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("absolute path: %w", err)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		path:      abs,
		validator: v,
		debounce:  debounce,
		onResult:  onResult,
		files:     make(map[string]bool),
		dirs:      make(map[string]bool),
	}, nil
}

// Run validates once, then again after every burst of changes, until ctx
// is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fsw.Close()
	w.fsw = fsw

	w.validate(ctx)
	slog.Info("watching package for changes", "descriptor", w.path, "files", len(w.files))

	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			slog.Info("watcher stopped", "descriptor", w.path)
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			slog.Debug("package file changed", "file", event.Name, "op", event.Op.String())
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			w.validate(ctx)

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			slog.Error("file watcher error", "error", err)
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	// Atomic saves show up as create or rename in the directory.
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return false
	}
	abs, err := filepath.Abs(event.Name)
	if err != nil {
		return false
	}
	return w.files[abs]
}

// validate runs the validator and refreshes the watched file set, which
// changes when the descriptor adds or drops data files.
func (w *Watcher) validate(ctx context.Context) {
	rep, err := w.validator.ValidateFile(ctx, w.path)
	if w.onResult != nil {
		w.onResult(rep, err)
	}
	w.refresh()
}

func (w *Watcher) refresh() {
	files := map[string]bool{w.path: true}
	if pkg, err := schema.Load(w.path); err == nil {
		for _, p := range localFiles(pkg) {
			files[p] = true
		}
	}
	w.files = files

	for f := range files {
		dir := filepath.Dir(f)
		if w.dirs[dir] {
			continue
		}
		if err := w.fsw.Add(dir); err != nil {
			slog.Warn("cannot watch directory", "dir", dir, "error", err)
			continue
		}
		w.dirs[dir] = true
	}
}

// localFiles returns the absolute paths of the package's file resources.
// URLs and database sources are not watched.
func localFiles(pkg *schema.Package) []string {
	var out []string
	for _, res := range pkg.Resources {
		if res.SQL != nil {
			continue
		}
		for _, p := range res.Path {
			if strings.HasPrefix(p, "http://") || strings.HasPrefix(p, "https://") {
				continue
			}
			if !filepath.IsAbs(p) {
				p = filepath.Join(pkg.BasePath, p)
			}
			out = append(out, filepath.Clean(p))
		}
	}
	return out
}
