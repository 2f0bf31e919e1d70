// Package config holds storage adapter settings.
package config

// StorageConfig holds configuration for a single storage connection.
type StorageConfig struct {
	Type    string `yaml:"type"`     // Type of storage. Only "local" is implemented.
	BaseDir string `yaml:"base_dir"` // Root directory for local file system operations.
	// CreateBaseDir creates BaseDir (and its parents) when it does not exist.
	// Without it a missing BaseDir is an error.
	CreateBaseDir bool `yaml:"create_base_dir"`
}
