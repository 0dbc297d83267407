// Package watchfolder submits audio files dropped into a directory.
//
// Files are debounced: a dropped file must stay quiet for the settle window
// before it is handed to the submit callback, so half-copied files are not
// analyzed mid-transfer.
package watchfolder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"beatprobe/internal/fileutil"
	"beatprobe/internal/logging"
)

const defaultSettle = 2 * time.Second

// Watcher monitors one directory for new audio files.
type Watcher struct {
	dir    string
	settle time.Duration
	logger *slog.Logger

	mu      sync.Mutex
	pending map[string]*time.Timer
}

// New validates the directory and constructs a watcher. A non-positive
// settle falls back to the default.
func New(dir string, settle time.Duration, logger *slog.Logger) (*Watcher, error) {
	if dir == "" {
		return nil, errors.New("watchfolder: directory required")
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("watchfolder: stat %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("watchfolder: %s is not a directory", dir)
	}
	if settle <= 0 {
		settle = defaultSettle
	}
	if logger == nil {
		logger = logging.Nop()
	}
	return &Watcher{
		dir:     dir,
		settle:  settle,
		logger:  logger.With(slog.String(logging.FieldComponent, "watchfolder")),
		pending: make(map[string]*time.Timer),
	}, nil
}

// Run watches until ctx ends, invoking submit for every audio file whose
// writes have settled. submit is called from timer goroutines and must be
// safe for concurrent use.
func (w *Watcher) Run(ctx context.Context, submit func(path string)) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watchfolder: create watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(w.dir); err != nil {
		return fmt.Errorf("watchfolder: watch %s: %w", w.dir, err)
	}
	w.logger.Info("watching directory", "dir", w.dir, "settle", w.settle)

	for {
		select {
		case <-ctx.Done():
			w.cancelPending()
			return ctx.Err()
		case event, ok := <-fsw.Events:
			if !ok {
				w.cancelPending()
				return nil
			}
			if !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Write) {
				continue
			}
			path := fileutil.NormalizePath(event.Name)
			if !fileutil.IsAudioFile(path) {
				continue
			}
			w.touch(path, submit)
		case err, ok := <-fsw.Errors:
			if !ok {
				w.cancelPending()
				return nil
			}
			w.logger.Warn("watch error", "error", err)
		}
	}
}

// touch resets the settle timer for path. Every write restarts the window;
// the submit fires only once the file has been quiet for the full duration.
func (w *Watcher) touch(path string, submit func(path string)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if timer, ok := w.pending[path]; ok {
		timer.Stop()
	}
	w.pending[path] = time.AfterFunc(w.settle, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()
		w.logger.Info("file settled", "path", path)
		submit(path)
	})
}

func (w *Watcher) cancelPending() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, timer := range w.pending {
		timer.Stop()
		delete(w.pending, path)
	}
}
