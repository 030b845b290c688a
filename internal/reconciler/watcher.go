package reconciler

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"mcphost/pkg/logging"
)

// DefaultDebounce is how long the watcher waits for further writes before
// reporting a change.
const DefaultDebounce = 500 * time.Millisecond

// ConfigWatcher reports changes of the servers file.
//
// It watches the directory holding the file rather than the file itself, since
// the file is replaced by rename on every save. Bursts of events are collapsed
// into a single callback.
type ConfigWatcher struct {
	mu sync.Mutex

	// path is the watched servers file
	path string

	// debounce is how long to wait for additional changes
	debounce time.Duration

	// onChange runs once per settled burst of changes
	onChange func()

	watcher *fsnotify.Watcher
	timer   *time.Timer
	stopCh  chan struct{}
	running bool
}

// NewConfigWatcher creates a watcher for the servers file at path.
func NewConfigWatcher(path string, debounce time.Duration, onChange func()) *ConfigWatcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &ConfigWatcher{
		path:     filepath.Clean(path),
		debounce: debounce,
		onChange: onChange,
	}
}

// Start begins watching. It returns once the watch is in place.
func (w *ConfigWatcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	dir := filepath.Dir(w.path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return err
	}

	w.watcher = watcher
	w.stopCh = make(chan struct{})
	w.running = true

	go w.processEvents(ctx, watcher, w.stopCh)

	logging.Info("ConfigWatcher", "Watching %s for changes", w.path)
	return nil
}

func (w *ConfigWatcher) processEvents(ctx context.Context, watcher *fsnotify.Watcher, stopCh chan struct{}) {
	for {
		select {
		case <-ctx.Done():
			w.cancelPending()
			return

		case <-stopCh:
			w.cancelPending()
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			w.handleFsEvent(event)

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logging.Error("ConfigWatcher", err, "Filesystem watcher error")
		}
	}
}

func (w *ConfigWatcher) handleFsEvent(event fsnotify.Event) {
	if filepath.Clean(event.Name) != w.path {
		return
	}
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) && !event.Has(fsnotify.Remove) {
		return
	}

	logging.Debug("ConfigWatcher", "Servers file event: %s", event.Op)
	w.schedule()
}

// schedule (re)arms the debounce timer.
func (w *ConfigWatcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		w.timer = nil
		running := w.running
		w.mu.Unlock()

		if running && w.onChange != nil {
			logging.Debug("ConfigWatcher", "Servers file changed")
			w.onChange()
		}
	})
}

func (w *ConfigWatcher) cancelPending() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
}

// Stop ends the watch. Pending changes are dropped.
func (w *ConfigWatcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return nil
	}

	w.running = false
	close(w.stopCh)
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}

	var err error
	if w.watcher != nil {
		err = w.watcher.Close()
		w.watcher = nil
	}

	logging.Info("ConfigWatcher", "Stopped watching %s", w.path)
	return err
}
