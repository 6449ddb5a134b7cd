package template

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce collapses the burst of events an editor produces on save.
const DefaultDebounce = 300 * time.Millisecond

// Inspection is the result of re-reading a template after it changed.
type Inspection struct {
	Path   string
	Sheet  string
	Layout *Layout
	Err    error
}

// Watcher re-inspects a template file whenever it changes on disk and logs
// whether the next report can still be generated from it.
type Watcher struct {
	path     string
	logger   *slog.Logger
	debounce time.Duration
	onChange func(Inspection)
}

// WatchOption configures a Watcher.
type WatchOption func(*Watcher)

// WithDebounce sets how long the file must stay quiet before re-inspection.
func WithDebounce(d time.Duration) WatchOption {
	return func(w *Watcher) { w.debounce = d }
}

// OnChange registers a callback run after each re-inspection.
func OnChange(fn func(Inspection)) WatchOption {
	return func(w *Watcher) { w.onChange = fn }
}

// NewWatcher watches the template at path.
func NewWatcher(path string, logger *slog.Logger, opts ...WatchOption) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	w := &Watcher{path: filepath.Clean(path), logger: logger, debounce: DefaultDebounce}
	for _, o := range opts {
		o(w)
	}
	return w
}

// Run blocks until ctx is done. The parent directory is watched rather than
// the file so that save-by-rename is seen. It returns nil on cancellation.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating template watcher: %w", err)
	}
	defer fw.Close()

	dir := filepath.Dir(w.path)
	if err := fw.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}
	w.logger.Debug("watching report template", "path", w.path)

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != w.path || ev.Op == fsnotify.Chmod {
				continue
			}
			timer.Reset(w.debounce)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("template watcher error", "path", w.path, "error", err)
		case <-timer.C:
			w.inspect()
		}
	}
}

func (w *Watcher) inspect() {
	res := Inspection{Path: w.path}
	res.Sheet, res.Layout, res.Err = InspectFile(w.path)
	if res.Err != nil {
		w.logger.Warn("report template unusable", "path", w.path, "error", res.Err)
	} else {
		w.logger.Info("report template reloaded", "path", w.path, "sheet", res.Sheet, "project_row", res.Layout.Row)
	}
	if w.onChange != nil {
		w.onChange(res)
	}
}
