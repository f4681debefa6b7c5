package config

import (
	"fmt"

	"github.com/pelletier/go-toml/v2"
)

// TOMLLoader loads configuration from TOML files.
type TOMLLoader struct {
	fs FileSystem
}

// NewTOMLLoader creates a TOML loader over the given file system.
func NewTOMLLoader(fsys FileSystem) *TOMLLoader {
	if fsys == nil {
		fsys = DefaultFS()
	}
	return &TOMLLoader{fs: fsys}
}

// Load decodes the TOML file at path over cfg.
func (l *TOMLLoader) Load(path string, cfg *Config) (bool, error) {
	data, found, err := readConfigFile(l.fs, path)
	if err != nil {
		return false, fmt.Errorf("reading config file %s: %w", path, err)
	}
	if !found {
		return false, nil
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return false, &ParseError{Path: path, Message: err.Error(), Err: err}
	}
	return true, nil
}
