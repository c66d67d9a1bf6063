package confloader

import (
	"context"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/yndnr/sesskeep-go/internal/telemetry/logger"
)

// DefaultDebounce coalesces the burst of events an editor save produces.
const DefaultDebounce = 100 * time.Millisecond

// Watcher reports changes to configuration files.
type Watcher struct {
	fs       *fsnotify.Watcher
	debounce time.Duration
	log      logger.Logger

	mu       sync.Mutex
	files    map[string]struct{}
	handlers []func(string)
	timers   map[string]*time.Timer
	closed   bool
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithWatcherLogger sets the logger for the watcher.
func WithWatcherLogger(l logger.Logger) WatcherOption {
	return func(w *Watcher) {
		if l != nil {
			w.log = l
		}
	}
}

// WithDebounce sets how long a file must stay quiet before handlers run.
// Zero runs handlers for every event.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) { w.debounce = d }
}

// NewWatcher creates a watcher. Call Run to start delivering events.
func NewWatcher(opts ...WatcherOption) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		fs:       fw,
		debounce: DefaultDebounce,
		log:      logger.Nop(),
		files:    make(map[string]struct{}),
		timers:   make(map[string]*time.Timer),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Watch adds path. Its parent directory is what gets watched, so files
// replaced by rename still report, but only events for path itself reach
// the handlers.
func (w *Watcher) Watch(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := w.fs.Add(filepath.Dir(abs)); err != nil {
		return err
	}

	w.mu.Lock()
	w.files[abs] = struct{}{}
	w.mu.Unlock()

	w.log.Debug("watching config file", "path", abs)
	return nil
}

// OnChange registers a handler called with the absolute path of a changed
// file.
func (w *Watcher) OnChange(fn func(string)) {
	w.mu.Lock()
	w.handlers = append(w.handlers, fn)
	w.mu.Unlock()
}

// Run delivers events until ctx is done or Stop is called.
func (w *Watcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) {
				w.schedule(ev.Name)
			}
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.log.Warn("config watcher error", "error", err)
		}
	}
}

// Stop closes the watcher and drops pending notifications. It is safe to
// call more than once.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	for _, t := range w.timers {
		t.Stop()
	}
	w.mu.Unlock()
	return w.fs.Close()
}

func (w *Watcher) schedule(name string) {
	abs, err := filepath.Abs(name)
	if err != nil {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.files[abs]; !ok || w.closed {
		return
	}
	if w.debounce <= 0 {
		go w.notify(abs)
		return
	}
	if t, ok := w.timers[abs]; ok {
		t.Reset(w.debounce)
		return
	}
	w.timers[abs] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.timers, abs)
		closed := w.closed
		w.mu.Unlock()
		if !closed {
			w.notify(abs)
		}
	})
}

func (w *Watcher) notify(path string) {
	w.mu.Lock()
	handlers := slices.Clone(w.handlers)
	w.mu.Unlock()

	w.log.Debug("config file changed", "path", path)
	for _, fn := range handlers {
		fn(path)
	}
}
