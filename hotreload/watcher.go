package hotreload

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/deevus/livefrag/clock"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long the watcher waits for a burst of file events to
// settle before bumping the version.
const DefaultDebounce = 200 * time.Millisecond

// ErrNoPaths is returned by Watch when there is nothing to watch.
var ErrNoPaths = errors.New("no paths to watch")

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithDebounce sets the debounce duration.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		w.debounce = d
	}
}

// WithClock sets the clock used for debouncing.
func WithClock(c clock.Clock) WatcherOption {
	return func(w *Watcher) {
		w.clock = c
	}
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) WatcherOption {
	return func(w *Watcher) {
		w.logger = l
	}
}

// Watcher bumps a Server's version when files under the watched paths
// change.
type Watcher struct {
	paths    []string
	onChange func()
	debounce time.Duration
	clock    clock.Clock
	logger   *log.Logger

	mu      sync.Mutex
	pending clock.Timer
	gen     int
}

// NewWatcher creates a Watcher calling onChange after changes settle.
func NewWatcher(paths []string, onChange func(), opts ...WatcherOption) *Watcher {
	w := &Watcher{
		paths:    paths,
		onChange: onChange,
		debounce: DefaultDebounce,
		clock:    clock.Real{},
		logger:   log.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Watch blocks until ctx is cancelled or the underlying watcher fails.
func (w *Watcher) Watch(ctx context.Context) error {
	if len(w.paths) == 0 {
		return ErrNoPaths
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer fsw.Close()

	for _, p := range w.paths {
		if err := fsw.Add(p); err != nil {
			return fmt.Errorf("watching %s: %w", p, err)
		}
	}
	w.logger.Printf("[hotreload] watching %v", w.paths)

	for {
		select {
		case <-ctx.Done():
			w.cancelPending()
			return ctx.Err()
		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			w.Handle(ev)
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Printf("[hotreload] watch error: %v", err)
		}
	}
}

// Handle debounces one file event.
func (w *Watcher) Handle(ev fsnotify.Event) {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.pending != nil {
		w.pending.Stop()
	}
	w.gen++
	gen := w.gen
	w.pending = w.clock.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		if gen != w.gen {
			w.mu.Unlock()
			return
		}
		w.pending = nil
		w.mu.Unlock()
		w.onChange()
	})
}

func (w *Watcher) cancelPending() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.gen++
	if w.pending != nil {
		w.pending.Stop()
		w.pending = nil
	}
}
