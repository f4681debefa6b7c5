package watcher

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// FSWatcher implements Watcher on top of fsnotify.
type FSWatcher struct {
	mu sync.RWMutex

	inner  *fsnotify.Watcher
	config Config
	logger *log.Logger

	// paths holds every directory registered with fsnotify.
	paths map[string]bool

	// roots holds the recursive watch roots; directories created under
	// a root are added as they appear.
	roots map[string]bool

	events chan Event
	errs   chan error

	closed  bool
	closeCh chan struct{}
	loopWg  sync.WaitGroup
}

// New creates an fsnotify-backed watcher.
func New(logger *log.Logger, opts ...Option) (*FSWatcher, error) {
	config := DefaultConfig()
	for _, opt := range opts {
		opt(&config)
	}
	if logger == nil {
		logger = log.Default()
	}

	inner, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &FSWatcher{
		inner:   inner,
		config:  config,
		logger:  logger,
		paths:   make(map[string]bool),
		roots:   make(map[string]bool),
		events:  make(chan Event, config.BufferSize),
		errs:    make(chan error, config.BufferSize),
		closeCh: make(chan struct{}),
	}

	w.loopWg.Add(1)
	go w.processLoop()

	return w, nil
}

// Watch starts watching a single file or directory.
func (w *FSWatcher) Watch(path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if _, err := os.Stat(absPath); err != nil {
		if os.IsNotExist(err) {
			return ErrPathNotExist
		}
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrWatcherClosed
	}
	if w.paths[absPath] {
		return ErrAlreadyWatching
	}
	if err := w.inner.Add(absPath); err != nil {
		return err
	}
	w.paths[absPath] = true
	return nil
}

// WatchRecursive watches a directory and all its subdirectories.
func (w *FSWatcher) WatchRecursive(path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	info, err := os.Stat(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return ErrPathNotExist
		}
		return err
	}
	if !info.IsDir() {
		return w.Watch(absPath)
	}

	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return ErrWatcherClosed
	}
	w.roots[absPath] = true
	w.mu.Unlock()

	return w.addTree(absPath)
}

// addTree registers every non-ignored directory under root.
func (w *FSWatcher) addTree(root string) error {
	return filepath.WalkDir(root, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if w.ignored(p) {
			return filepath.SkipDir
		}
		if watchErr := w.Watch(p); watchErr != nil && watchErr != ErrAlreadyWatching {
			w.logger.Debug("watch failed during tree walk", "path", p, "error", watchErr)
		}
		return nil
	})
}

// Unwatch stops watching a path.
func (w *FSWatcher) Unwatch(path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrWatcherClosed
	}
	if !w.paths[absPath] {
		return ErrNotWatching
	}
	if err := w.inner.Remove(absPath); err != nil {
		return err
	}
	delete(w.paths, absPath)
	delete(w.roots, absPath)
	return nil
}

// Events returns the event channel.
func (w *FSWatcher) Events() <-chan Event {
	return w.events
}

// Errors returns the error channel.
func (w *FSWatcher) Errors() <-chan error {
	return w.errs
}

// IsWatching reports whether the path is registered.
func (w *FSWatcher) IsWatching(path string) bool {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.paths[absPath]
}

// Close stops the watcher and closes both channels.
func (w *FSWatcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	close(w.closeCh)
	w.mu.Unlock()

	err := w.inner.Close()
	w.loopWg.Wait()
	close(w.events)
	close(w.errs)
	return err
}

// processLoop translates fsnotify events until Close.
func (w *FSWatcher) processLoop() {
	defer w.loopWg.Done()

	for {
		select {
		case <-w.closeCh:
			return

		case fsEvent, ok := <-w.inner.Events:
			if !ok {
				return
			}
			w.handle(fsEvent)

		case err, ok := <-w.inner.Errors:
			if !ok {
				return
			}
			w.sendError(err)
		}
	}
}

// handle converts one fsnotify event, maintaining recursive watches.
func (w *FSWatcher) handle(fsEvent fsnotify.Event) {
	op := convertOp(fsEvent.Op)
	if op == 0 {
		return
	}
	if w.ignored(fsEvent.Name) {
		return
	}

	// A directory created under a recursive root joins the watch set.
	if op.Has(OpCreate) && w.underRoot(fsEvent.Name) {
		if info, err := os.Stat(fsEvent.Name); err == nil && info.IsDir() {
			if err := w.addTree(fsEvent.Name); err != nil {
				w.logger.Debug("recursive add failed", "path", fsEvent.Name, "error", err)
			}
		}
	}

	select {
	case w.events <- Event{Path: fsEvent.Name, Op: op, Timestamp: time.Now()}:
	case <-w.closeCh:
	default:
		w.logger.Warn("event channel full, dropping event", "path", fsEvent.Name, "op", op)
	}
}

// ignored applies the configured ignore function.
func (w *FSWatcher) ignored(path string) bool {
	return w.config.Ignore != nil && w.config.Ignore(path)
}

// underRoot reports whether path sits inside a recursive watch root.
func (w *FSWatcher) underRoot(path string) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	for root := range w.roots {
		if path == root || strings.HasPrefix(path, root+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// sendError forwards a watcher error without blocking.
func (w *FSWatcher) sendError(err error) {
	select {
	case w.errs <- err:
	case <-w.closeCh:
	default:
	}
}

// convertOp maps fsnotify operations onto the package Op bitmask.
func convertOp(op fsnotify.Op) Op {
	var out Op
	if op.Has(fsnotify.Create) {
		out |= OpCreate
	}
	if op.Has(fsnotify.Write) {
		out |= OpWrite
	}
	if op.Has(fsnotify.Remove) {
		out |= OpRemove
	}
	if op.Has(fsnotify.Rename) {
		out |= OpRename
	}
	if op.Has(fsnotify.Chmod) {
		out |= OpChmod
	}
	return out
}
