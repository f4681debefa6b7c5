package config

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// Config is the engine configuration.
type Config struct {
	Git     GitConfig     `toml:"git" yaml:"git"`
	Refresh RefreshConfig `toml:"refresh" yaml:"refresh"`
	Log     LogConfig     `toml:"log" yaml:"log"`
}

// GitConfig controls how the git binary is located and run.
type GitConfig struct {
	// Path is the git binary to use. Empty means discover via
	// GITSTATE_GIT and then $PATH.
	Path string `toml:"path" yaml:"path"`

	// TimeoutSeconds bounds a single invocation. 0 means no timeout.
	TimeoutSeconds int `toml:"timeout_seconds" yaml:"timeout_seconds"`

	// MaxProcesses caps concurrent git child processes. 0 means
	// unlimited.
	MaxProcesses int `toml:"max_processes" yaml:"max_processes"`

	// SpawnRetries bounds retries of transient spawn failures.
	SpawnRetries int `toml:"spawn_retries" yaml:"spawn_retries"`
}

// RefreshConfig controls snapshot refresh behavior.
type RefreshConfig struct {
	// DebounceMS is the filesystem event coalescing window in
	// milliseconds.
	DebounceMS int `toml:"debounce_ms" yaml:"debounce_ms"`

	// Watch enables the filesystem watcher on opened repositories.
	Watch bool `toml:"watch" yaml:"watch"`
}

// LogConfig controls engine logging.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `toml:"level" yaml:"level"`

	// Format is text or json.
	Format string `toml:"format" yaml:"format"`
}

// Default returns the compiled-in configuration.
func Default() Config {
	return Config{
		Git: GitConfig{
			SpawnRetries: 2,
		},
		Refresh: RefreshConfig{
			DebounceMS: 100,
			Watch:      true,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Validate checks field ranges and enumerations.
func (c *Config) Validate() error {
	if c.Git.TimeoutSeconds < 0 {
		return fmt.Errorf("git.timeout_seconds must be >= 0, got %d", c.Git.TimeoutSeconds)
	}
	if c.Git.MaxProcesses < 0 {
		return fmt.Errorf("git.max_processes must be >= 0, got %d", c.Git.MaxProcesses)
	}
	if c.Git.SpawnRetries < 0 {
		return fmt.Errorf("git.spawn_retries must be >= 0, got %d", c.Git.SpawnRetries)
	}
	if c.Refresh.DebounceMS < 0 {
		return fmt.Errorf("refresh.debounce_ms must be >= 0, got %d", c.Refresh.DebounceMS)
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	return nil
}

// CommandTimeout returns the per-invocation timeout as a duration.
func (c *Config) CommandTimeout() time.Duration {
	return time.Duration(c.Git.TimeoutSeconds) * time.Second
}

// DebounceInterval returns the watcher coalescing window as a duration.
func (c *Config) DebounceInterval() time.Duration {
	return time.Duration(c.Refresh.DebounceMS) * time.Millisecond
}

// NewLogger builds a logger honoring the Log section.
func (c *Config) NewLogger(w io.Writer) *log.Logger {
	level, err := log.ParseLevel(c.Log.Level)
	if err != nil {
		level = log.InfoLevel
	}
	opts := log.Options{
		Level:           level,
		ReportTimestamp: true,
	}
	if strings.EqualFold(c.Log.Format, "json") {
		opts.Formatter = log.JSONFormatter
	}
	return log.NewWithOptions(w, opts)
}

// Load resolves configuration from defaults, an optional file, and the
// process environment. An empty path skips the file layer.
func Load(path string) (Config, error) {
	return LoadWithFS(DefaultFS(), path, nil)
}

// LoadWithFS is Load with an injectable filesystem and environment
// lookup.
func LoadWithFS(fsys FileSystem, path string, lookup LookupFunc) (Config, error) {
	cfg := Default()

	if path != "" {
		loader, err := loaderFor(fsys, path)
		if err != nil {
			return cfg, err
		}
		if _, err := loader.Load(path, &cfg); err != nil {
			return cfg, err
		}
	}

	if err := ApplyEnv(&cfg, lookup); err != nil {
		return cfg, err
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// loaderFor picks a file loader by extension.
func loaderFor(fsys FileSystem, path string) (FileLoader, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return NewTOMLLoader(fsys), nil
	case ".yaml", ".yml":
		return NewYAMLLoader(fsys), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}
