// Package watcher monitors an inbox directory for new recordings. Files are
// debounced until their size and mtime stop changing, so a recording still
// being copied in is never picked up half-written.
package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Event is a settled recording detected in the inbox.
type Event struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// Watcher monitors an inbox for new audio files.
type Watcher struct {
	logger *slog.Logger
	opts   Options
	fs     *fsnotify.Watcher

	pending map[string]*pendingFile // path -> settling state
	mu      sync.Mutex              // protects pending map

	events chan Event
	errors chan error
	done   chan struct{}
	wg     sync.WaitGroup
}

// pendingFile tracks a file that may still be changing.
type pendingFile struct {
	size    int64
	modTime time.Time
	timer   *time.Timer
}

// New creates an inbox watcher.
func New(logger *slog.Logger, opts Options) (*Watcher, error) {
	opts.setDefaults()

	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &Watcher{
		logger:  logger,
		opts:    opts,
		fs:      fs,
		pending: make(map[string]*pendingFile),
		events:  make(chan Event, 100),
		errors:  make(chan error, 10),
		done:    make(chan struct{}),
	}, nil
}

// Watch adds a directory to be monitored recursively.
func (w *Watcher) Watch(path string) error {
	path = filepath.Clean(path)

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to stat path: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("watch path %q is not a directory", path)
	}

	return w.watchDir(path)
}

// watchDir recursively watches a directory tree.
func (w *Watcher) watchDir(path string) error {
	return filepath.Walk(path, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			w.logger.Warn("failed to access path", "path", p, "error", err)
			return nil
		}

		if w.opts.shouldIgnore(p) {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if !info.IsDir() {
			return nil
		}

		if err := w.fs.Add(p); err != nil {
			w.logger.Error("failed to add watch", "path", p, "error", err)
			return nil
		}

		w.logger.Debug("added watch", "path", p)
		return nil
	})
}

// Start begins watching for events. It blocks until the context is cancelled.
func (w *Watcher) Start(ctx context.Context) error {
	w.wg.Add(1)
	go w.processEvents(ctx)

	<-ctx.Done()
	return nil
}

// processEvents consumes fsnotify events.
func (w *Watcher) processEvents(ctx context.Context) {
	defer w.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			w.handleFsnotifyEvent(event)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.errors <- err
		}
	}
}

// handleFsnotifyEvent debounces writes and tracks new subdirectories.
func (w *Watcher) handleFsnotifyEvent(event fsnotify.Event) {
	path := event.Name

	if w.opts.shouldIgnore(path) {
		return
	}

	// New subdirectories join the watch.
	if event.Op&fsnotify.Create != 0 {
		info, err := os.Stat(path)
		if err == nil && info.IsDir() {
			w.watchDir(path)
			return
		}
	}

	if event.Op&fsnotify.Remove != 0 {
		w.cancelPending(path)
		return
	}

	if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
		if !w.opts.isAudio(path) {
			return
		}
		w.startSettling(path)
	}
}

// startSettling begins or restarts the settling process for a file.
func (w *Watcher) startSettling(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if pending, exists := w.pending[path]; exists {
		pending.timer.Stop()
	}

	info, err := os.Stat(path)
	if err != nil {
		w.logger.Warn("failed to stat file", "path", path, "error", err)
		delete(w.pending, path)
		return
	}
	if info.IsDir() {
		return
	}

	pending := &pendingFile{
		size:    info.Size(),
		modTime: info.ModTime(),
	}
	pending.timer = time.AfterFunc(w.opts.SettleDelay, func() {
		w.checkSettled(path)
	})

	w.pending[path] = pending
}

// checkSettled emits an event once a file stops changing.
func (w *Watcher) checkSettled(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	pending, exists := w.pending[path]
	if !exists {
		return
	}

	info, err := os.Stat(path)
	if err != nil {
		// File was deleted mid-copy
		delete(w.pending, path)
		return
	}

	if info.Size() != pending.size || info.ModTime() != pending.modTime {
		// Still changing, restart timer
		pending.size = info.Size()
		pending.modTime = info.ModTime()
		pending.timer = time.AfterFunc(w.opts.SettleDelay, func() {
			w.checkSettled(path)
		})
		return
	}

	delete(w.pending, path)

	w.emitEvent(Event{
		Path:    path,
		Size:    info.Size(),
		ModTime: info.ModTime(),
	})
}

// cancelPending drops the settling state for a removed file.
func (w *Watcher) cancelPending(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if pending, exists := w.pending[path]; exists {
		pending.timer.Stop()
		delete(w.pending, path)
	}
}

// emitEvent sends an event to the events channel.
func (w *Watcher) emitEvent(event Event) {
	select {
	case w.events <- event:
	case <-w.done:
	}
}

// Events returns the channel of settled recordings.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Errors returns the channel for receiving errors.
func (w *Watcher) Errors() <-chan error {
	return w.errors
}

// Stop stops the watcher and releases resources.
func (w *Watcher) Stop() error {
	close(w.done)

	w.mu.Lock()
	for _, pending := range w.pending {
		pending.timer.Stop()
	}
	clear(w.pending)
	w.mu.Unlock()

	w.fs.Close()
	w.wg.Wait()

	close(w.events)
	close(w.errors)

	return nil
}
