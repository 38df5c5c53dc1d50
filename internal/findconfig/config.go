// Package findconfig provides unified configuration loading for
// skyfind.
//
// It supports two configuration formats:
//   - config.skyfind / skyfind.star: Dynamic Starlark configuration
//   - skyfind.toml: Simple, declarative TOML configuration
//
// Configuration files are discovered by walking up the directory tree
// from the current directory, stopping at the git root. A path can also
// be forced via the SKYFIND_CONFIG environment variable or the --config
// flag on the tool.
package findconfig

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Config file names in priority order.
const (
	// ConfigStarlark is the canonical Starlark config filename.
	ConfigStarlark = "config.skyfind"
	// ConfigStarLegacy is the legacy Starlark config filename.
	ConfigStarLegacy = "skyfind.star"
	// ConfigTOML is the TOML config filename.
	ConfigTOML = "skyfind.toml"
)

// EnvConfig is the environment variable for specifying config file path.
const EnvConfig = "SKYFIND_CONFIG"

// ErrConflict is returned when multiple config files exist in the same directory.
var ErrConflict = errors.New("multiple config files found in the same directory; use only one")

// Config represents the unified skyfind configuration.
type Config struct {
	// Search configures the module search path.
	Search SearchConfig `json:"search" toml:"search"`

	// Native configures native symbol lookup.
	Native NativeConfig `json:"native" toml:"native"`

	// Workspace is the root for label-form module names.
	Workspace string `json:"workspace" toml:"workspace"`
}

// SearchConfig configures the module search path.
type SearchConfig struct {
	// Path is the ordered list of directories searched for modules.
	Path []string `json:"path" toml:"path"`

	// Suffixes is the ordered suffix list tried when expanding bare
	// module names. An empty string entry means the bare name itself.
	Suffixes []string `json:"suffixes" toml:"suffixes"`
}

// NativeConfig configures native symbol lookup.
type NativeConfig struct {
	// DocsIndex is the builtins documentation index file.
	DocsIndex string `json:"docs_index" toml:"docs_index"`

	// SourceRoot is the runtime source tree root.
	SourceRoot string `json:"source_root" toml:"source_root"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Search: SearchConfig{
			Suffixes: []string{".star", ".starc", ""},
		},
	}
}

// LoadConfig loads configuration from the specified path.
// The format is auto-detected based on file extension.
func LoadConfig(path string) (*Config, error) {
	switch {
	case strings.HasSuffix(path, ".toml"):
		return LoadTOMLConfig(path)
	case strings.HasSuffix(path, ".skyfind"), strings.HasSuffix(path, ".star"):
		return LoadStarlarkConfig(path, DefaultStarlarkTimeout)
	default:
		return nil, fmt.Errorf("unsupported config file extension: %s (expected .skyfind, .star, or .toml)", filepath.Ext(path))
	}
}

// DiscoverConfig searches for a configuration file.
//
// Resolution order:
//  1. If SKYFIND_CONFIG env var is set, use that path
//  2. Walk up from startDir looking for config files
//
// In each directory, config files are checked in priority order; if
// multiple exist in the same directory, an error is returned. Returns
// the loaded config, the path of the file, and any error. If no config
// is found, returns (DefaultConfig(), "", nil).
func DiscoverConfig(startDir string) (*Config, string, error) {
	if envPath := os.Getenv(EnvConfig); envPath != "" {
		cfg, err := LoadConfig(envPath)
		if err != nil {
			return nil, "", fmt.Errorf("loading config from %s: %w", EnvConfig, err)
		}
		return cfg, envPath, nil
	}

	if startDir == "" {
		var err error
		startDir, err = os.Getwd()
		if err != nil {
			return nil, "", fmt.Errorf("getting working directory: %w", err)
		}
	}

	absDir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, "", fmt.Errorf("resolving path: %w", err)
	}

	gitRoot := findGitRoot(absDir)

	dir := absDir
	for {
		configPath, err := findConfigInDir(dir)
		if err != nil {
			return nil, "", err
		}
		if configPath != "" {
			cfg, err := LoadConfig(configPath)
			if err != nil {
				return nil, "", err
			}
			return cfg, configPath, nil
		}

		if gitRoot != "" && dir == gitRoot {
			break
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break // reached filesystem root
		}
		dir = parent
	}

	return DefaultConfig(), "", nil
}

// findConfigInDir looks for config files in a directory.
// Returns the path if exactly one is found, an error if multiple exist,
// and ("", nil) if none exist.
func findConfigInDir(dir string) (string, error) {
	names := []string{ConfigStarlark, ConfigStarLegacy, ConfigTOML}

	var found []string
	for _, name := range names {
		if fileExists(filepath.Join(dir, name)) {
			found = append(found, name)
		}
	}
	if len(found) > 1 {
		return "", fmt.Errorf("%w: found %s in %s", ErrConflict, strings.Join(found, ", "), dir)
	}
	if len(found) == 1 {
		return filepath.Join(dir, found[0]), nil
	}
	return "", nil
}

// fileExists returns true if the file exists.
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// findGitRoot finds the git repository root from a starting directory.
// Returns empty string if not in a git repository.
func findGitRoot(startDir string) string {
	dir := startDir
	for {
		if fileExists(filepath.Join(dir, ".git")) {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// Merge merges the other config into this one.
// Non-zero values from other override values in c.
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	if len(other.Search.Path) > 0 {
		c.Search.Path = append(c.Search.Path, other.Search.Path...)
	}
	if len(other.Search.Suffixes) > 0 {
		c.Search.Suffixes = other.Search.Suffixes
	}
	if other.Native.DocsIndex != "" {
		c.Native.DocsIndex = other.Native.DocsIndex
	}
	if other.Native.SourceRoot != "" {
		c.Native.SourceRoot = other.Native.SourceRoot
	}
	if other.Workspace != "" {
		c.Workspace = other.Workspace
	}
}
