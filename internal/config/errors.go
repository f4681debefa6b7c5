package config

import (
	"errors"
	"fmt"
)

// ErrUnsupportedFormat is returned for config files whose extension is
// neither TOML nor YAML.
var ErrUnsupportedFormat = errors.New("unsupported config format")

// ParseError reports a malformed configuration file.
type ParseError struct {
	Path    string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing %s: %s", e.Path, e.Message)
}

// Unwrap returns the underlying decode error.
func (e *ParseError) Unwrap() error {
	return e.Err
}
