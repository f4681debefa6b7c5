// Package config holds engine configuration.
//
// Configuration is resolved in three layers: compiled-in defaults, an
// optional TOML or YAML file (chosen by extension), and GITSTATE_*
// environment variables, applied in that order so later layers win.
// A missing file is not an error.
package config
