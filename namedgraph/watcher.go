package namedgraph

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Event describes one reload of a definition file.
type Event struct {
	Path string
	// Names are the graphs loaded from the file, or the graphs dropped
	// when Removed is set.
	Names   []string
	Removed bool
	// Err is the load error. The registry is unchanged when set.
	Err error
}

// Watcher reloads definition files into a registry when they change.
type Watcher struct {
	reg      *Registry
	fsw      *fsnotify.Watcher
	files    map[string]bool
	dirs     map[string]bool
	debounce time.Duration
	logger   *slog.Logger
	onReload func(Event)
}

// WatchOption configures a Watcher.
type WatchOption func(*Watcher)

// WithDebounce sets how long the watcher waits for a file to settle before
// reloading it. Default is 100ms.
func WithDebounce(d time.Duration) WatchOption {
	return func(w *Watcher) {
		w.debounce = d
	}
}

// WithLogger sets the logger of the watcher.
func WithLogger(logger *slog.Logger) WatchOption {
	return func(w *Watcher) {
		w.logger = logger
	}
}

// OnReload sets a function called after every reload.
func OnReload(fn func(Event)) WatchOption {
	return func(w *Watcher) {
		w.onReload = fn
	}
}

// NewWatcher starts watching the given definition files and directories.
// Files of watched directories are picked up when created. Call Run to
// process changes.
func NewWatcher(reg *Registry, paths []string, opts ...WatchOption) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("namedgraph: create watcher: %w", err)
	}
	w := &Watcher{
		reg:      reg,
		fsw:      fsw,
		files:    make(map[string]bool),
		dirs:     make(map[string]bool),
		debounce: 100 * time.Millisecond,
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(w)
	}
	watched := make(map[string]bool)
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			fsw.Close()
			return nil, fmt.Errorf("namedgraph: %w", err)
		}
		info, err := os.Stat(abs)
		if err != nil {
			fsw.Close()
			return nil, fmt.Errorf("namedgraph: watch: %w", err)
		}
		// Watch the directory containing files, so files replaced by
		// editors keep being watched.
		dir := abs
		if info.IsDir() {
			w.dirs[abs] = true
		} else {
			w.files[abs] = true
			dir = filepath.Dir(abs)
		}
		if watched[dir] {
			continue
		}
		if err := fsw.Add(dir); err != nil {
			fsw.Close()
			return nil, fmt.Errorf("namedgraph: watch %s: %w", dir, err)
		}
		watched[dir] = true
	}
	return w, nil
}

// Run processes file changes until ctx is done or Close is called.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fsw.Close()
	w.logger.InfoContext(ctx, "watching graph definitions", "files", len(w.files), "dirs", len(w.dirs))

	var (
		pending = make(map[string]*time.Timer)
		fire    = make(chan string)
		done    = make(chan struct{})
	)
	defer func() {
		close(done)
		for _, t := range pending {
			t.Stop()
		}
	}()
	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			path := filepath.Clean(event.Name)
			if !w.match(path) || event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			// Debounce rapid changes
			if t, ok := pending[path]; ok {
				t.Stop()
			}
			pending[path] = time.AfterFunc(w.debounce, func() {
				select {
				case fire <- path:
				case <-done:
				case <-ctx.Done():
				}
			})
		case path := <-fire:
			delete(pending, path)
			w.reload(ctx, path)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.ErrorContext(ctx, "watch graph definitions", "error", err)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

func (w *Watcher) match(path string) bool {
	return w.files[path] || w.dirs[filepath.Dir(path)] && IsDefinitionFile(path)
}

func (w *Watcher) reload(ctx context.Context, path string) {
	ev := Event{Path: path}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		ev.Removed = true
		ev.Names = w.reg.Unload(path)
		w.logger.InfoContext(ctx, "graph definitions removed", "path", path, "graphs", ev.Names)
	} else {
		ev.Names, ev.Err = w.reg.LoadFile(path)
		if ev.Err != nil {
			w.logger.ErrorContext(ctx, "reload graph definitions", "path", path, "error", ev.Err)
		} else {
			w.logger.InfoContext(ctx, "graph definitions reloaded", "path", path, "graphs", ev.Names)
		}
	}
	if w.onReload != nil {
		w.onReload(ev)
	}
}
