package config

import (
	"errors"
	"io/fs"
	"strings"
	"testing"
	"time"
)

// memFS is an in-memory FileSystem for loader tests.
type memFS map[string][]byte

func (m memFS) Open(name string) (fs.File, error) {
	return nil, fs.ErrNotExist
}

func (m memFS) ReadFile(path string) ([]byte, error) {
	if data, ok := m[path]; ok {
		return data, nil
	}
	return nil, fs.ErrNotExist
}

func (m memFS) Stat(path string) (fs.FileInfo, error) {
	return nil, fs.ErrNotExist
}

// noEnv is a LookupFunc with nothing set.
func noEnv(string) (string, bool) { return "", false }

func envOf(vars map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		v, ok := vars[key]
		return v, ok
	}
}

func TestDefaultValidates(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config must validate: %v", err)
	}
	if cfg.Refresh.DebounceMS != 100 {
		t.Errorf("expected debounce 100ms, got %d", cfg.Refresh.DebounceMS)
	}
	if !cfg.Refresh.Watch {
		t.Error("expected watching enabled by default")
	}
	if cfg.Git.SpawnRetries != 2 {
		t.Errorf("expected 2 spawn retries, got %d", cfg.Git.SpawnRetries)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative timeout", func(c *Config) { c.Git.TimeoutSeconds = -1 }},
		{"negative max processes", func(c *Config) { c.Git.MaxProcesses = -2 }},
		{"negative retries", func(c *Config) { c.Git.SpawnRetries = -1 }},
		{"negative debounce", func(c *Config) { c.Refresh.DebounceMS = -5 }},
		{"bad level", func(c *Config) { c.Log.Level = "chatty" }},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestLoadTOML(t *testing.T) {
	fsys := memFS{
		"gitstate.toml": []byte(`
[git]
path = "/usr/local/bin/git"
timeout_seconds = 30

[refresh]
debounce_ms = 250
watch = false

[log]
level = "debug"
format = "json"
`),
	}

	cfg, err := LoadWithFS(fsys, "gitstate.toml", noEnv)
	if err != nil {
		t.Fatalf("LoadWithFS: %v", err)
	}

	if cfg.Git.Path != "/usr/local/bin/git" {
		t.Errorf("expected git path override, got %q", cfg.Git.Path)
	}
	if cfg.CommandTimeout() != 30*time.Second {
		t.Errorf("expected 30s timeout, got %v", cfg.CommandTimeout())
	}
	if cfg.DebounceInterval() != 250*time.Millisecond {
		t.Errorf("expected 250ms debounce, got %v", cfg.DebounceInterval())
	}
	if cfg.Refresh.Watch {
		t.Error("expected watch disabled")
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "json" {
		t.Errorf("expected debug/json logging, got %s/%s", cfg.Log.Level, cfg.Log.Format)
	}
}

func TestLoadYAML(t *testing.T) {
	fsys := memFS{
		"gitstate.yaml": []byte(`
git:
  timeout_seconds: 5
refresh:
  debounce_ms: 50
log:
  level: warn
`),
	}

	cfg, err := LoadWithFS(fsys, "gitstate.yaml", noEnv)
	if err != nil {
		t.Fatalf("LoadWithFS: %v", err)
	}

	if cfg.Git.TimeoutSeconds != 5 {
		t.Errorf("expected 5s timeout, got %d", cfg.Git.TimeoutSeconds)
	}
	if cfg.Refresh.DebounceMS != 50 {
		t.Errorf("expected 50ms debounce, got %d", cfg.Refresh.DebounceMS)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("expected warn level, got %q", cfg.Log.Level)
	}
	// Untouched sections keep defaults.
	if cfg.Log.Format != "text" {
		t.Errorf("expected default text format, got %q", cfg.Log.Format)
	}
}

func TestLoadMissingFileKeepsDefaults(t *testing.T) {
	cfg, err := LoadWithFS(memFS{}, "absent.toml", noEnv)
	if err != nil {
		t.Fatalf("LoadWithFS: %v", err)
	}
	if cfg != Default() {
		t.Errorf("expected defaults for missing file, got %+v", cfg)
	}
}

func TestLoadUnsupportedExtension(t *testing.T) {
	_, err := LoadWithFS(memFS{}, "gitstate.ini", noEnv)
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestLoadParseError(t *testing.T) {
	fsys := memFS{"bad.toml": []byte("git = {{{")}

	_, err := LoadWithFS(fsys, "bad.toml", noEnv)
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected ParseError, got %v", err)
	}
	if parseErr.Path != "bad.toml" {
		t.Errorf("expected path in error, got %q", parseErr.Path)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	fsys := memFS{
		"gitstate.toml": []byte("[log]\nlevel = \"debug\"\n"),
	}
	env := envOf(map[string]string{
		EnvLogLevel:      "error",
		EnvGitPath:       "/opt/git/bin/git",
		EnvGitTimeout:    "12",
		EnvRefreshWatch:  "false",
		EnvRefreshBounce: "75",
	})

	cfg, err := LoadWithFS(fsys, "gitstate.toml", env)
	if err != nil {
		t.Fatalf("LoadWithFS: %v", err)
	}

	if cfg.Log.Level != "error" {
		t.Errorf("expected env to win over file, got %q", cfg.Log.Level)
	}
	if cfg.Git.Path != "/opt/git/bin/git" {
		t.Errorf("expected env git path, got %q", cfg.Git.Path)
	}
	if cfg.Git.TimeoutSeconds != 12 {
		t.Errorf("expected 12s timeout, got %d", cfg.Git.TimeoutSeconds)
	}
	if cfg.Refresh.Watch {
		t.Error("expected watch disabled via env")
	}
	if cfg.Refresh.DebounceMS != 75 {
		t.Errorf("expected 75ms debounce, got %d", cfg.Refresh.DebounceMS)
	}
}

func TestApplyEnvRejectsMalformedValues(t *testing.T) {
	tests := []struct {
		name string
		vars map[string]string
	}{
		{"bad int", map[string]string{EnvGitTimeout: "soon"}},
		{"bad bool", map[string]string{EnvRefreshWatch: "sometimes"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			if err := ApplyEnv(&cfg, envOf(tt.vars)); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestApplyEnvIgnoresEmptyValues(t *testing.T) {
	cfg := Default()
	if err := ApplyEnv(&cfg, envOf(map[string]string{EnvLogLevel: ""})); err != nil {
		t.Fatalf("ApplyEnv: %v", err)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("expected empty var ignored, got %q", cfg.Log.Level)
	}
}

func TestNewLoggerHonorsLevel(t *testing.T) {
	cfg := Default()
	cfg.Log.Level = "debug"
	logger := cfg.NewLogger(&strings.Builder{})
	if logger == nil {
		t.Fatal("expected logger")
	}
}
