package watch

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher monitors the source and buffer files and emits a Change for each
// modification, debounced so one logical save produces one event.
//
// It watches the parent directories rather than the files themselves:
// editors commonly replace a file via rename, which would silently detach a
// file-level watch.
type Watcher struct {
	watcher  *fsnotify.Watcher
	changes  chan Change
	errors   chan error
	done     chan struct{}
	wg       sync.WaitGroup
	mu       sync.Mutex
	running  bool
	debounce time.Duration

	// canonical maps absolute file paths back to the configured paths, so
	// consumers always see the exact strings they were built with.
	canonical map[string]string
}

// NewWatcher creates a watcher for the given files. The watcher must be
// started with Start() before it will emit events. A non-positive debounce
// falls back to 100ms.
func NewWatcher(files []string, debounce time.Duration) (*Watcher, error) {
	if debounce <= 0 {
		debounce = 100 * time.Millisecond
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	canonical := make(map[string]string, len(files))
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			_ = fsw.Close()
			return nil, fmt.Errorf("failed to resolve %s: %w", f, err)
		}
		canonical[abs] = f
	}

	return &Watcher{
		watcher:   fsw,
		changes:   make(chan Change, 100),
		errors:    make(chan error, 10),
		done:      make(chan struct{}),
		debounce:  debounce,
		canonical: canonical,
	}, nil
}

// Start begins watching the parent directories of the configured files.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return fmt.Errorf("watcher already running")
	}

	added := make(map[string]bool)
	for abs := range w.canonical {
		dir := filepath.Dir(abs)
		if added[dir] {
			continue
		}
		if err := w.watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch directory %s: %w", dir, err)
		}
		added[dir] = true
	}

	w.running = true
	w.wg.Add(1)
	go w.processEvents()

	return nil
}

// Stop stops watching and cleans up. It blocks until the event processing
// goroutine has exited; the Changes and Errors channels are closed.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = false
	w.mu.Unlock()

	close(w.done)

	if err := w.watcher.Close(); err != nil {
		return fmt.Errorf("failed to close watcher: %w", err)
	}

	w.wg.Wait()

	close(w.changes)
	close(w.errors)

	return nil
}

// Changes returns the channel of debounced change events.
// It is closed when the watcher is stopped.
func (w *Watcher) Changes() <-chan Change {
	return w.changes
}

// Errors returns the channel of watcher errors.
// It is closed when the watcher is stopped.
func (w *Watcher) Errors() <-chan error {
	return w.errors
}

// IsRunning reports whether the watcher is currently running.
func (w *Watcher) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

// processEvents converts raw fsnotify events into debounced Change values.
// Pending paths are flushed once no further event has arrived on them for a
// full debounce interval, so a burst of writes from one save collapses into
// a single Change.
func (w *Watcher) processEvents() {
	defer w.wg.Done()

	pending := make(map[string]time.Time)
	ticker := time.NewTicker(w.debounce)
	defer ticker.Stop()

	for {
		select {
		case <-w.done:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if path, match := w.match(event); match {
				pending[path] = time.Now()
			}

		case now := <-ticker.C:
			for path, last := range pending {
				if now.Sub(last) < w.debounce {
					continue
				}
				delete(pending, path)
				select {
				case w.changes <- Change{Path: path}:
				case <-w.done:
					return
				}
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			select {
			case w.errors <- err:
			case <-w.done:
				return
			}
		}
	}
}

// match filters an event down to one of the watched files and maps it back
// to its canonical path. Write covers in-place saves; Create covers editors
// that replace the file via rename. Chmod, remove, and rename-away are
// ignored.
func (w *Watcher) match(event fsnotify.Event) (string, bool) {
	if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
		return "", false
	}

	abs, err := filepath.Abs(event.Name)
	if err != nil {
		return "", false
	}

	path, ok := w.canonical[abs]
	return path, ok
}
