// Package config handles global qido configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config represents the global qido configuration.
type Config struct {
	// DefaultArchive is the name of the default archive (from Archives map).
	DefaultArchive string `toml:"default_archive"`

	// Archives is a map of archive names to database paths.
	Archives map[string]string `toml:"archives"`

	// Project is the archive project stamped onto query results as the
	// retrieve AE title and project identifier.
	Project string `toml:"project"`

	// Query controls matching behavior and paging defaults.
	Query QueryConfig `toml:"query"`

	// Log controls log output.
	Log LogConfig `toml:"log"`
}

// QueryConfig represents matching and paging options.
type QueryConfig struct {
	// DefaultLimit is the page size used when a search does not ask for one.
	DefaultLimit int `toml:"default_limit"`

	// MaxLimit caps the page size a search may ask for. 0 means no cap.
	MaxLimit int `toml:"max_limit"`

	// CombinedDatetimeMatching matches a date range and a time range as one
	// combined interval instead of two independent column filters.
	CombinedDatetimeMatching bool `toml:"combined_datetime_matching"`

	// OnlyWithStudies hides patients without studies from patient-level
	// searches.
	OnlyWithStudies bool `toml:"only_with_studies"`
}

// LogConfig represents log output options.
type LogConfig struct {
	// Level is the minimum level to emit: debug, info, warn, error.
	Level string `toml:"level"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Query: QueryConfig{
			DefaultLimit:             100,
			CombinedDatetimeMatching: true,
			OnlyWithStudies:          true,
		},
		Log: LogConfig{Level: "info"},
	}
}

// ArchivePath returns the database path for a named archive.
// If name is empty, returns the default archive path.
func (c *Config) ArchivePath(name string) (string, error) {
	if name == "" {
		name = c.DefaultArchive
	}
	if c.Archives != nil {
		if path, ok := c.Archives[name]; ok {
			return path, nil
		}
	}
	if name == "" {
		return "", fmt.Errorf("no default archive configured")
	}
	return "", fmt.Errorf("archive '%s' not found in config", name)
}

// EffectiveLimit clamps a requested page size to the configured bounds.
func (c *Config) EffectiveLimit(requested int) int {
	if requested <= 0 {
		requested = c.Query.DefaultLimit
	}
	if c.Query.MaxLimit > 0 && requested > c.Query.MaxLimit {
		return c.Query.MaxLimit
	}
	return requested
}

// Load loads the configuration from the default location.
// Returns the built-in defaults if the file doesn't exist.
func Load() (*Config, error) {
	configPath := DefaultPath()
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return Default(), nil
	}
	return LoadFrom(configPath)
}

// LoadFrom loads the configuration from a specific path.
func LoadFrom(path string) (*Config, error) {
	config := Default()
	if _, err := toml.DecodeFile(path, config); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return config, nil
}

// DefaultPath returns the default config file path.
// Checks ~/.config/qido/config.toml first (XDG style),
// then falls back to OS-specific location.
func DefaultPath() string {
	if home, err := os.UserHomeDir(); err == nil {
		xdgPath := filepath.Join(home, ".config", "qido", "config.toml")
		if _, err := os.Stat(xdgPath); err == nil {
			return xdgPath
		}
	}
	if configDir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(configDir, "qido", "config.toml")
	}
	return filepath.Join(".", "config.toml")
}

// CreateDefault creates a default config file if it doesn't exist.
func CreateDefault() (string, error) {
	configPath := DefaultPath()
	if _, err := os.Stat(configPath); err == nil {
		return configPath, nil
	}
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	defaultConfig := `# qido configuration

# Default archive name (must exist in [archives] below)
# default_archive = "main"

# Named archives
# [archives]
# main = "/var/lib/qido/archive.db"

# Project stamped onto query results
# project = "RESEARCH01"

# [query]
# default_limit = 100
# max_limit = 1000
# combined_datetime_matching = true
# only_with_studies = true

# [log]
# level = "info"
`
	if err := os.WriteFile(configPath, []byte(defaultConfig), 0644); err != nil {
		return "", fmt.Errorf("failed to write config file: %w", err)
	}
	return configPath, nil
}
