// Package watch rebuilds a project when its configuration or sources change.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/zephyrforge/internal/logfields"
)

// DefaultDebounce collapses editor save bursts into one rebuild.
const DefaultDebounce = 2 * time.Second

// ChangeFunc is called with the sorted, de-duplicated paths that changed
// during one debounce window. Calls never overlap.
type ChangeFunc func(ctx context.Context, changed []string) error

// Watcher monitors files and directory trees.
type Watcher struct {
	files    map[string]struct{}
	dirs     []string
	ignore   []string
	debounce time.Duration
	onChange ChangeFunc
	logger   *slog.Logger
	watcher  *fsnotify.Watcher
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce overrides DefaultDebounce.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) { w.debounce = d }
}

// WithIgnore skips events below any of the given paths (build output).
func WithIgnore(paths ...string) Option {
	return func(w *Watcher) {
		for _, p := range paths {
			if abs, err := filepath.Abs(p); err == nil {
				w.ignore = append(w.ignore, abs)
			}
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(w *Watcher) { w.logger = l }
}

// New watches each path: files individually, directories recursively.
// Missing paths are an error.
func New(paths []string, onChange ChangeFunc, opts ...Option) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	w := &Watcher{
		files:    make(map[string]struct{}),
		debounce: DefaultDebounce,
		onChange: onChange,
		logger:   slog.Default(),
		watcher:  fw,
	}
	for _, o := range opts {
		o(w)
	}

	for _, p := range paths {
		if err := w.add(p); err != nil {
			_ = fw.Close()
			return nil, err
		}
	}
	return w, nil
}

func (w *Watcher) add(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return fmt.Errorf("cannot watch %s: %w", path, err)
	}
	if !info.IsDir() {
		// Editors replace files by rename; watching the parent sees that.
		w.files[abs] = struct{}{}
		return w.watcher.Add(filepath.Dir(abs))
	}
	w.dirs = append(w.dirs, abs)
	return w.addTree(abs)
}

func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if w.ignored(p) || (p != root && strings.HasPrefix(d.Name(), ".")) {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(p); err != nil {
			return fmt.Errorf("failed to watch %s: %w", p, err)
		}
		return nil
	})
}

func (w *Watcher) ignored(p string) bool {
	for _, ig := range w.ignore {
		if p == ig || strings.HasPrefix(p, ig+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// relevant reports whether an event path belongs to a watched file or tree.
func (w *Watcher) relevant(p string) bool {
	if w.ignored(p) {
		return false
	}
	if _, ok := w.files[p]; ok {
		return true
	}
	for _, d := range w.dirs {
		if p == d || strings.HasPrefix(p, d+string(filepath.Separator)) {
			return !strings.HasPrefix(filepath.Base(p), ".")
		}
	}
	return false
}

// Run processes events until ctx is cancelled, then closes the watcher.
// Errors from onChange are logged and do not stop watching.
func (w *Watcher) Run(ctx context.Context) error {
	defer func() { _ = w.watcher.Close() }()

	pending := make(map[string]struct{})
	timer := time.NewTimer(w.debounce)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event.Name) || event.Op == fsnotify.Chmod {
				continue
			}
			if event.Op.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addTree(event.Name); err != nil {
						w.logger.Warn("Failed to watch new directory", logfields.Path(event.Name), logfields.Error(err))
					}
				}
			}
			w.logger.Debug("Change detected", logfields.Path(event.Name), slog.String("op", event.Op.String()))
			pending[event.Name] = struct{}{}
			timer.Reset(w.debounce)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("File watcher error", logfields.Error(err))

		case <-timer.C:
			changed := make([]string, 0, len(pending))
			for p := range pending {
				changed = append(changed, p)
			}
			slices.Sort(changed)
			clear(pending)
			if len(changed) == 0 {
				continue
			}
			if err := w.onChange(ctx, changed); err != nil {
				w.logger.Error("Rebuild after change failed", logfields.Error(err))
			}
		}
	}
}
