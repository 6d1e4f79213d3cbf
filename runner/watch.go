// Copyright © 2024 The ELPS authors

package runner

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long the watcher waits for changes to settle.
const DefaultDebounce = 200 * time.Millisecond

// Watcher reports batches of changed Python files below a set of roots.
type Watcher struct {
	fs       *fsnotify.Watcher
	filter   Filter
	debounce time.Duration
	logger   *slog.Logger
	onChange func([]string)

	callbackMu sync.Mutex

	pendingMu sync.Mutex
	pending   map[string]bool
	timer     *time.Timer
}

// NewWatcher returns a watcher that calls onChange with the sorted list of
// changed files once no new events arrive for debounce.
func NewWatcher(filter Filter, debounce time.Duration, logger *slog.Logger, onChange func([]string)) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		fs:       fsw,
		filter:   filter,
		debounce: debounce,
		logger:   logger,
		onChange: onChange,
		pending:  make(map[string]bool),
	}, nil
}

// Watch registers paths and delivers events until ctx is done or the
// watcher is closed.
func (w *Watcher) Watch(ctx context.Context, paths []string) error {
	for _, p := range paths {
		if err := w.add(p); err != nil {
			return err
		}
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			w.handle(event)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watcher error", "error", err)
		}
	}
}

func (w *Watcher) add(root string) error {
	info, err := os.Stat(root)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return w.fs.Add(root)
	}
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && w.filter.Excluded(path) {
			return filepath.SkipDir
		}
		return w.fs.Add(path)
	})
}

func (w *Watcher) handle(event fsnotify.Event) {
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if w.filter.Excluded(event.Name) {
				return
			}
			if err := w.add(event.Name); err != nil {
				w.logger.Warn("failed to watch new directory", "path", event.Name, "error", err)
				return
			}
			w.enqueueExisting(event.Name)
			return
		}
	}
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return
	}
	if !w.filter.Included(event.Name) || w.filter.Excluded(event.Name) {
		return
	}
	w.schedule(event.Name)
}

func (w *Watcher) enqueueExisting(root string) {
	files, err := Find([]string{root}, w.filter)
	if err != nil {
		return
	}
	for _, f := range files {
		w.schedule(f)
	}
}

func (w *Watcher) schedule(path string) {
	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()
	w.pending[path] = true
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.flush)
}

func (w *Watcher) flush() {
	w.pendingMu.Lock()
	paths := make([]string, 0, len(w.pending))
	for path := range w.pending {
		paths = append(paths, path)
	}
	w.pending = make(map[string]bool)
	w.pendingMu.Unlock()

	if len(paths) == 0 {
		return
	}
	sort.Strings(paths)
	w.callbackMu.Lock()
	defer w.callbackMu.Unlock()
	w.onChange(paths)
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	w.pendingMu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.pendingMu.Unlock()
	return w.fs.Close()
}
