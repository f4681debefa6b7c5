package config

import (
	"fmt"
	"os"
	"strconv"
)

// Environment variable names recognized by ApplyEnv.
const (
	EnvGitPath       = "GITSTATE_GIT_PATH"
	EnvGitTimeout    = "GITSTATE_GIT_TIMEOUT_SECONDS"
	EnvGitMaxProcs   = "GITSTATE_GIT_MAX_PROCESSES"
	EnvGitRetries    = "GITSTATE_GIT_SPAWN_RETRIES"
	EnvRefreshBounce = "GITSTATE_REFRESH_DEBOUNCE_MS"
	EnvRefreshWatch  = "GITSTATE_REFRESH_WATCH"
	EnvLogLevel      = "GITSTATE_LOG_LEVEL"
	EnvLogFormat     = "GITSTATE_LOG_FORMAT"
)

// LookupFunc resolves an environment variable, reporting presence.
type LookupFunc func(key string) (string, bool)

// ApplyEnv overlays GITSTATE_* environment variables onto cfg.
// A nil lookup uses the process environment. Variables set to the
// empty string are treated as absent.
func ApplyEnv(cfg *Config, lookup LookupFunc) error {
	if lookup == nil {
		lookup = os.LookupEnv
	}

	if v, ok := lookup(EnvGitPath); ok && v != "" {
		cfg.Git.Path = v
	}
	if err := applyInt(lookup, EnvGitTimeout, &cfg.Git.TimeoutSeconds); err != nil {
		return err
	}
	if err := applyInt(lookup, EnvGitMaxProcs, &cfg.Git.MaxProcesses); err != nil {
		return err
	}
	if err := applyInt(lookup, EnvGitRetries, &cfg.Git.SpawnRetries); err != nil {
		return err
	}
	if err := applyInt(lookup, EnvRefreshBounce, &cfg.Refresh.DebounceMS); err != nil {
		return err
	}
	if v, ok := lookup(EnvRefreshWatch); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvRefreshWatch, err)
		}
		cfg.Refresh.Watch = b
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		cfg.Log.Level = v
	}
	if v, ok := lookup(EnvLogFormat); ok && v != "" {
		cfg.Log.Format = v
	}
	return nil
}

// applyInt overlays one integer-valued variable onto dst.
func applyInt(lookup LookupFunc, key string, dst *int) error {
	v, ok := lookup(key)
	if !ok || v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = n
	return nil
}
