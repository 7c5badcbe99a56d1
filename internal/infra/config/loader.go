// Package config provides configuration loading functionality.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/taskprobe/taskprobe/internal/domain"
)

// extensions lists the accepted config file extensions in lookup order.
var extensions = []string{".toml", ".yaml", ".yml"}

// Loader loads configuration from TOML or YAML files.
type Loader struct {
	workDir       string // Directory searched for a project-local config
	globalConfDir string // Global config directory (e.g. ~/.config/taskprobe)
}

// NewLoader creates a new Loader rooted at the given working directory.
func NewLoader(workDir string) *Loader {
	return &Loader{
		workDir:       workDir,
		globalConfDir: defaultGlobalConfigDir(),
	}
}

// NewLoaderWithGlobalDir creates a new Loader with a custom global config
// directory. This is useful for testing.
func NewLoaderWithGlobalDir(workDir, globalConfDir string) *Loader {
	return &Loader{
		workDir:       workDir,
		globalConfDir: globalConfDir,
	}
}

// defaultGlobalConfigDir returns the default global config directory.
func defaultGlobalConfigDir() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "taskprobe")
}

// Load returns the merged configuration. The project-local file takes
// precedence over the global one, which takes precedence over defaults.
// Missing files are not an error.
func (l *Loader) Load() (*domain.Config, error) {
	cfg := domain.NewDefaultConfig()

	if l.globalConfDir != "" {
		if err := decodeInto(cfg, l.globalConfDir); err != nil {
			return nil, err
		}
	}
	if l.workDir != "" {
		if err := decodeInto(cfg, l.workDir); err != nil {
			return nil, err
		}
	}

	if err := cfg.Registry.Validate(); err != nil {
		return nil, fmt.Errorf("config registry layout: %w", err)
	}
	return cfg, nil
}

// decodeInto finds a config file in dir and decodes it over cfg, so keys the
// file omits keep their current values.
func decodeInto(cfg *domain.Config, dir string) error {
	path, ok := findFile(dir)
	if !ok {
		return nil
	}
	data, err := os.ReadFile(path) //nolint:gosec // Path is derived from config dirs
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config %s: %w", path, err)
	}

	switch filepath.Ext(path) {
	case ".toml":
		if err := toml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("parse config %s: %w", path, err)
		}
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	return nil
}

// findFile returns the first existing config file in dir.
func findFile(dir string) (string, bool) {
	for _, ext := range extensions {
		path := filepath.Join(dir, domain.ConfigFileName+ext)
		if _, err := os.Stat(path); err == nil {
			return path, true
		}
	}
	return "", false
}
