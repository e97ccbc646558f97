package storage

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher recounts the storage directory whenever files appear or vanish.
// Rapid event bursts are debounced into a single recount.
type Watcher struct {
	watcher  *fsnotify.Watcher
	dir      string
	logger   *slog.Logger
	debounce *Debouncer

	mu      sync.RWMutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// WatcherConfig configures a Watcher.
type WatcherConfig struct {
	// Directory is the storage directory to watch. Subdirectories are not
	// watched.
	Directory string

	// DebounceInterval is the quiet period before a recount (default: 250ms).
	DebounceInterval time.Duration
}

// NewWatcher creates a watcher for cfg.Directory.
func NewWatcher(cfg WatcherConfig, logger *slog.Logger) (*Watcher, error) {
	if cfg.Directory == "" {
		return nil, fmt.Errorf("watch directory is required")
	}
	if cfg.DebounceInterval <= 0 {
		cfg.DebounceInterval = 250 * time.Millisecond
	}
	if logger == nil {
		logger = slog.Default()
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &Watcher{
		watcher:  w,
		dir:      cfg.Directory,
		logger:   logger.With("component", "storage.watcher"),
		debounce: NewDebouncer(cfg.DebounceInterval),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Watch reports the current file count to onCount, then again after every
// debounced burst of create, remove or rename events. It blocks until ctx is
// cancelled or Stop is called.
func (w *Watcher) Watch(ctx context.Context, onCount func(int)) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("watcher already running")
	}
	w.running = true
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
		close(w.doneCh)
	}()

	if err := w.watcher.Add(w.dir); err != nil {
		return fmt.Errorf("failed to watch %q: %w", w.dir, err)
	}

	recount := func() {
		n, err := countFiles(w.dir)
		if err != nil {
			w.logger.Error("failed to count stored files", "error", err)
			return
		}
		onCount(n)
	}
	recount()

	w.logger.Info("storage watcher started", "directory", w.dir)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("storage watcher stopped (context cancelled)")
			return nil

		case <-w.stopCh:
			w.logger.Info("storage watcher stopped")
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if !relevant(event) {
				continue
			}
			w.logger.Debug("storage event", "path", event.Name, "op", event.Op.String())
			w.debounce.Trigger(recount)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			w.logger.Error("storage watcher error", "error", err)
		}
	}
}

// Stop stops watching and releases the fsnotify handle. It is safe to call
// whether or not Watch is running.
func (w *Watcher) Stop() error {
	w.mu.RLock()
	running := w.running
	w.mu.RUnlock()

	if running {
		close(w.stopCh)
		<-w.doneCh
	}

	w.debounce.Stop()

	if err := w.watcher.Close(); err != nil {
		return fmt.Errorf("failed to close watcher: %w", err)
	}
	return nil
}

func relevant(event fsnotify.Event) bool {
	return event.Has(fsnotify.Create) || event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename)
}

// Debouncer collapses rapid triggers into one callback after a quiet period.
type Debouncer struct {
	interval time.Duration
	timer    *time.Timer
	mu       sync.Mutex
	callback func()
	stopped  bool
}

// NewDebouncer creates a debouncer with the given quiet period.
func NewDebouncer(interval time.Duration) *Debouncer {
	return &Debouncer{interval: interval}
}

// Trigger schedules callback, replacing any pending one.
func (d *Debouncer) Trigger(callback func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	d.callback = callback
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.interval, func() {
		d.mu.Lock()
		cb := d.callback
		stopped := d.stopped
		d.mu.Unlock()

		if cb != nil && !stopped {
			cb()
		}
	})
}

// Stop cancels any pending callback. Further triggers are ignored.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.callback = nil
}
