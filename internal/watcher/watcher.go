// Package watcher detects filesystem changes under repository roots.
//
// It wraps fsnotify with recursive directory tracking and per-path
// debouncing. The engine points one watcher at each working copy
// (including its .git directory) and turns the debounced events into
// refresh triggers. Paths whose churn carries no repository state, such
// as lock files and the object database, are ignored at the source.
package watcher

import (
	"errors"
	"path/filepath"
	"strings"
	"time"
)

// Common errors returned by watcher operations.
var (
	ErrWatcherClosed   = errors.New("watcher is closed")
	ErrAlreadyWatching = errors.New("path is already being watched")
	ErrNotWatching     = errors.New("path is not being watched")
	ErrPathNotExist    = errors.New("path does not exist")
)

// Op represents the type of filesystem operation.
type Op uint32

const (
	// OpCreate indicates a file or directory was created.
	OpCreate Op = 1 << iota
	// OpWrite indicates a file was written to.
	OpWrite
	// OpRemove indicates a file or directory was removed.
	OpRemove
	// OpRename indicates a file or directory was renamed.
	OpRename
	// OpChmod indicates file permissions were changed.
	OpChmod
)

// String returns a human-readable representation of the operation.
func (op Op) String() string {
	switch op {
	case OpCreate:
		return "CREATE"
	case OpWrite:
		return "WRITE"
	case OpRemove:
		return "REMOVE"
	case OpRename:
		return "RENAME"
	case OpChmod:
		return "CHMOD"
	default:
		return "UNKNOWN"
	}
}

// Has returns true if the operation includes the given op.
func (op Op) Has(o Op) bool {
	return op&o == o
}

// Event represents a filesystem change.
type Event struct {
	// Path is the absolute path of the affected file or directory.
	Path string

	// Op is the operation that occurred. Debounced events may carry
	// several ops combined.
	Op Op

	// Timestamp is when the event occurred.
	Timestamp time.Time
}

// IgnoreFunc reports whether a path should be dropped at the source.
type IgnoreFunc func(path string) bool

// IgnoreGitNoise drops lock files and the .git object database: their
// churn carries no state a status refresh can observe.
func IgnoreGitNoise(path string) bool {
	if strings.HasSuffix(filepath.Base(path), ".lock") {
		return true
	}
	sep := string(filepath.Separator)
	marker := sep + ".git" + sep
	i := strings.Index(path, marker)
	if i < 0 {
		return false
	}
	rest := path[i+len(marker):]
	return rest == "objects" || strings.HasPrefix(rest, "objects"+sep)
}

// Config holds watcher configuration.
type Config struct {
	// DebounceDelay is the coalescing window for NewDebounced.
	// Default: 100ms.
	DebounceDelay time.Duration

	// BufferSize is the capacity of the event and error channels.
	// Default: 100.
	BufferSize int

	// Ignore drops matching paths before they reach the event channel.
	// Default: IgnoreGitNoise.
	Ignore IgnoreFunc
}

// DefaultConfig returns a Config with defaults applied.
func DefaultConfig() Config {
	return Config{
		DebounceDelay: 100 * time.Millisecond,
		BufferSize:    100,
		Ignore:        IgnoreGitNoise,
	}
}

// Option configures a watcher.
type Option func(*Config)

// WithDebounceDelay sets the debounce coalescing window.
func WithDebounceDelay(d time.Duration) Option {
	return func(c *Config) {
		if d > 0 {
			c.DebounceDelay = d
		}
	}
}

// WithBufferSize sets the channel buffer size.
func WithBufferSize(size int) Option {
	return func(c *Config) {
		if size > 0 {
			c.BufferSize = size
		}
	}
}

// WithIgnore sets the path ignore function. A nil func keeps every
// path.
func WithIgnore(fn IgnoreFunc) Option {
	return func(c *Config) {
		c.Ignore = fn
	}
}

// Watcher monitors filesystem changes.
type Watcher interface {
	// Watch starts watching a single file or directory.
	// Returns ErrAlreadyWatching if the path is already watched.
	Watch(path string) error

	// WatchRecursive watches a directory tree. Directories created
	// later under the tree are picked up automatically.
	WatchRecursive(path string) error

	// Unwatch stops watching a path.
	// Returns ErrNotWatching if the path is not being watched.
	Unwatch(path string) error

	// Events returns the event channel. It is closed by Close.
	Events() <-chan Event

	// Errors returns the error channel. It is closed by Close.
	Errors() <-chan error

	// IsWatching reports whether the path is currently watched.
	IsWatching(path string) bool

	// Close stops the watcher and releases resources.
	Close() error
}
