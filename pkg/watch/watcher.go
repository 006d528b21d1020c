// Package watch re-analyzes a C source file whenever it is saved.
//
// The watcher observes the file's directory rather than the file, so
// editors that save by writing a temporary file and renaming it over the
// original are still seen. Bursts of events are debounced and identical
// contents are delivered only once.
package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period after the last event before the file
// is read.
const DefaultDebounce = 300 * time.Millisecond

// tick is how often pending changes are checked.
const tick = 50 * time.Millisecond

// Handler receives the new contents of the watched file.
type Handler func(ctx context.Context, path, source string)

// Config configures a Watcher.
type Config struct {
	// Path is the watched file. Required.
	Path string

	// Handler is called from the watcher goroutine. Required.
	Handler Handler

	// Debounce defaults to DefaultDebounce.
	Debounce time.Duration

	// Initial delivers the current contents when Run starts.
	Initial bool

	Logger *slog.Logger
}

// Stats counts watcher activity.
type Stats struct {
	Events     int
	Deliveries int
	Skipped    int
	Errors     int
	LastEvent  time.Time
}

// Watcher watches one file.
type Watcher struct {
	path     string
	dir      string
	handler  Handler
	debounce time.Duration
	initial  bool
	logger   *slog.Logger

	mu          sync.Mutex
	pendingAt   time.Time
	pending     bool
	lastContent string
	delivered   bool
	stats       Stats
}

// New creates a watcher. The file need not exist yet.
func New(cfg Config) (*Watcher, error) {
	if cfg.Path == "" {
		return nil, errors.New("watch: path is required")
	}
	if cfg.Handler == nil {
		return nil, errors.New("watch: handler is required")
	}
	path, err := filepath.Abs(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("watch: %w", err)
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Watcher{
		path:     path,
		dir:      filepath.Dir(path),
		handler:  cfg.Handler,
		debounce: cfg.Debounce,
		initial:  cfg.Initial,
		logger:   logger,
	}, nil
}

// Path returns the absolute path of the watched file.
func (w *Watcher) Path() string {
	return w.path
}

// Stats returns a copy of the counters.
func (w *Watcher) Stats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stats
}

// Run watches until ctx is done. It returns an error only if the watch
// cannot be established.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(w.dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}
	w.logger.Info("watching source file", "path", w.path, "debounce", w.debounce)

	if w.initial {
		w.deliver(ctx)
	}

	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("file watcher error", "error", err)
			w.mu.Lock()
			w.stats.Errors++
			w.mu.Unlock()

		case <-ticker.C:
			if w.due(time.Now()) {
				w.deliver(ctx)
			}
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if filepath.Clean(event.Name) != w.path {
		return
	}
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return
	}

	w.logger.Debug("source file event", "op", event.Op.String(), "path", event.Name)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending = true
	w.pendingAt = time.Now()
	w.stats.Events++
	w.stats.LastEvent = w.pendingAt
}

// due reports whether a pending change has been quiet for the debounce
// period, and clears it if so.
func (w *Watcher) due(now time.Time) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.pending || now.Sub(w.pendingAt) < w.debounce {
		return false
	}
	w.pending = false
	return true
}

func (w *Watcher) deliver(ctx context.Context) {
	data, err := os.ReadFile(w.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			w.logger.Warn("failed to read source file", "path", w.path, "error", err)
		}
		w.mu.Lock()
		w.stats.Errors++
		w.mu.Unlock()
		return
	}
	source := string(data)

	w.mu.Lock()
	if w.delivered && source == w.lastContent {
		w.stats.Skipped++
		w.mu.Unlock()
		return
	}
	w.delivered = true
	w.lastContent = source
	w.stats.Deliveries++
	w.mu.Unlock()

	w.handler(ctx, w.path, source)
}
