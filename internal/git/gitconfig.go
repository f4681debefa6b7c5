package git

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/dshills/gitstate/internal/process"
)

// ConfigScope selects which configuration file an operation targets.
type ConfigScope int

const (
	// ConfigLocal targets the repository's own configuration.
	ConfigLocal ConfigScope = iota
	// ConfigGlobal targets the user-wide configuration.
	ConfigGlobal
)

func (s ConfigScope) args() []string {
	if s == ConfigGlobal {
		return []string{"config", "--global"}
	}
	return []string{"config"}
}

// ConfigEntry is one key/value pair from a configuration listing.
// Multi-valued keys repeat.
type ConfigEntry struct {
	Key   string
	Value string
}

// GetConfig reads one configuration value. A missing key yields the
// empty string, not an error.
func (g *Git) GetConfig(ctx context.Context, dir string, scope ConfigScope, key string) (string, error) {
	args := append(scope.args(), "--get", key)
	res, err := g.run(ctx, "config", process.Invocation{Args: args, Dir: dir}, 1)
	if err != nil {
		return "", err
	}
	if res.ExitCode == 1 {
		return "", nil
	}
	return strings.TrimSpace(res.Stdout), nil
}

// ListConfig returns every configuration entry in the scope, in the
// order the tool reports them.
func (g *Git) ListConfig(ctx context.Context, dir string, scope ConfigScope) ([]ConfigEntry, error) {
	args := append(scope.args(), "-l", "-z")
	res, err := g.run(ctx, "config", process.Invocation{Args: args, Dir: dir})
	if err != nil {
		return nil, err
	}
	return parseConfigList(res.Stdout), nil
}

// SetConfig writes one configuration value.
func (g *Git) SetConfig(ctx context.Context, dir string, scope ConfigScope, key, value string) error {
	args := append(scope.args(), key, value)
	_, err := g.run(ctx, "config", process.Invocation{Args: args, Dir: dir})
	return err
}

// parseConfigList decodes `config -l -z` output. Each NUL-terminated
// record is "key\nvalue"; the value may contain further newlines.
func parseConfigList(out string) []ConfigEntry {
	var entries []ConfigEntry
	for _, record := range splitNul(out) {
		key, value, _ := strings.Cut(record, "\n")
		if key == "" {
			continue
		}
		entries = append(entries, ConfigEntry{Key: key, Value: value})
	}
	return entries
}

// GetSubmodules lists the submodules recorded in .gitmodules. A
// repository without the file has no submodules and costs no process
// spawn.
func (g *Git) GetSubmodules(ctx context.Context, root string) ([]Submodule, error) {
	modfile := filepath.Join(root, ".gitmodules")
	if _, err := os.Stat(modfile); err != nil {
		return nil, nil
	}
	res, err := g.run(ctx, "submodules", process.Invocation{
		Args: []string{"config", "-f", modfile, "-l", "-z"},
		Dir:  root,
	})
	if err != nil {
		return nil, err
	}
	return parseSubmodules(res.Stdout, g.logger), nil
}

// parseSubmodules folds "submodule.<name>.<prop>" entries into
// records, preserving first-appearance order. Names may contain dots,
// so the property is split off the final dot.
func parseSubmodules(out string, logger *log.Logger) []Submodule {
	const prefix = "submodule."
	byName := make(map[string]*Submodule)
	var order []string

	for _, entry := range parseConfigList(out) {
		if !strings.HasPrefix(entry.Key, prefix) {
			continue
		}
		rest := entry.Key[len(prefix):]
		dot := strings.LastIndexByte(rest, '.')
		if dot <= 0 {
			logger.Warn("skipping malformed submodule key", "key", entry.Key)
			continue
		}
		name, prop := rest[:dot], rest[dot+1:]
		sub, ok := byName[name]
		if !ok {
			sub = &Submodule{Name: name}
			byName[name] = sub
			order = append(order, name)
		}
		switch prop {
		case "path":
			sub.Path = entry.Value
		case "url":
			sub.URL = entry.Value
		}
	}

	subs := make([]Submodule, 0, len(order))
	for _, name := range order {
		subs = append(subs, *byName[name])
	}
	return subs
}
