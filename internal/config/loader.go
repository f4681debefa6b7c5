package config

import (
	"io/fs"
	"os"
)

// FileLoader decodes a configuration file into a Config overlay.
type FileLoader interface {
	// Load decodes the file at path over cfg. A missing file is not an
	// error: Load returns (false, nil) and leaves cfg untouched.
	Load(path string, cfg *Config) (bool, error)
}

// FileSystem abstracts file access so loaders can be tested against an
// in-memory tree.
type FileSystem interface {
	fs.FS
	// ReadFile reads the entire file at path.
	ReadFile(path string) ([]byte, error)
	// Stat returns file info for path.
	Stat(path string) (fs.FileInfo, error)
}

// OSFS implements FileSystem using the real OS file system.
type OSFS struct{}

// Open implements fs.FS.
func (OSFS) Open(name string) (fs.File, error) {
	return os.Open(name)
}

// ReadFile reads the entire file at path.
func (OSFS) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// Stat returns file info for path.
func (OSFS) Stat(path string) (fs.FileInfo, error) {
	return os.Stat(path)
}

// DefaultFS returns the OS-backed file system.
func DefaultFS() FileSystem {
	return OSFS{}
}

// readConfigFile loads file bytes with missing-file-is-absent
// semantics shared by every loader.
func readConfigFile(fsys FileSystem, path string) ([]byte, bool, error) {
	data, err := fsys.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return data, true, nil
}
