package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// YAMLLoader loads configuration from YAML files.
type YAMLLoader struct {
	fs FileSystem
}

// NewYAMLLoader creates a YAML loader over the given file system.
func NewYAMLLoader(fsys FileSystem) *YAMLLoader {
	if fsys == nil {
		fsys = DefaultFS()
	}
	return &YAMLLoader{fs: fsys}
}

// Load decodes the YAML file at path over cfg.
func (l *YAMLLoader) Load(path string, cfg *Config) (bool, error) {
	data, found, err := readConfigFile(l.fs, path)
	if err != nil {
		return false, fmt.Errorf("reading config file %s: %w", path, err)
	}
	if !found {
		return false, nil
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return false, &ParseError{Path: path, Message: err.Error(), Err: err}
	}
	return true, nil
}
