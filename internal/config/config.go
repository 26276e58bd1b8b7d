// Package config handles repository configuration stored under .refmine/.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config represents repository configuration stored in .refmine/config.yml.
type Config struct {
	Owner          string `yaml:"owner"`                     // Name written on annotation comment fields
	ContextBefore  int    `yaml:"context_before"`            // Sentences of context before a marker
	ContextAfter   int    `yaml:"context_after"`             // Sentences of context after a marker
	CrossrefMailto string `yaml:"crossref_mailto,omitempty"` // Contact address for Crossref's polite pool
}

const (
	RefmineDir  = ".refmine"
	ConfigFile  = "config.yml"
	LibraryFile = "library.db"

	// DefaultContextWindow is the sentence window on each side of a marker.
	DefaultContextWindow = 1
)

// RefminePath returns the path to the .refmine directory from a root path.
func RefminePath(root string) string {
	return filepath.Join(root, RefmineDir)
}

// ConfigPath returns the path to config.yml from a root path.
func ConfigPath(root string) string {
	return filepath.Join(root, RefmineDir, ConfigFile)
}

// LibraryPath returns the path to library.db from a root path.
func LibraryPath(root string) string {
	return filepath.Join(root, RefmineDir, LibraryFile)
}

// IsRepository checks if the given path contains a refmine repository.
func IsRepository(root string) bool {
	info, err := os.Stat(RefminePath(root))
	return err == nil && info.IsDir()
}

// FindRepository walks up from the given path to find a refmine repository.
// Returns the repository root path or an error if not found.
func FindRepository(start string) (string, error) {
	abs, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}

	for {
		if IsRepository(abs) {
			return abs, nil
		}

		parent := filepath.Dir(abs)
		if parent == abs {
			return "", fmt.Errorf("not in a refmine repository (no .refmine directory found)")
		}
		abs = parent
	}
}

// Default returns the configuration used when no config file exists. The
// owner falls back to the OS username.
func Default() *Config {
	owner := os.Getenv("REFMINE_OWNER")
	if owner == "" {
		owner = os.Getenv("USER")
	}
	if owner == "" {
		owner = "refmine"
	}
	return &Config{
		Owner:         owner,
		ContextBefore: DefaultContextWindow,
		ContextAfter:  DefaultContextWindow,
	}
}

// Load reads configuration from the repository at the given root. A
// missing config file yields defaults, not an error.
func Load(root string) (*Config, error) {
	data, err := os.ReadFile(ConfigPath(root))
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if strings.TrimSpace(cfg.Owner) == "" {
		return nil, fmt.Errorf("config owner must not be blank")
	}
	if cfg.ContextBefore < 0 || cfg.ContextAfter < 0 {
		return nil, fmt.Errorf("context window sizes must not be negative")
	}

	return cfg, nil
}

// Save writes configuration to the repository at the given root.
func (c *Config) Save(root string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.WriteFile(ConfigPath(root), data, 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// Init creates the .refmine directory and default config at root. Fails
// when the repository already exists.
func Init(root string) (*Config, error) {
	dir := RefminePath(root)
	if IsRepository(root) {
		return nil, fmt.Errorf("refmine repository already exists at %s", dir)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating %s: %w", dir, err)
	}

	cfg := Default()
	if err := cfg.Save(root); err != nil {
		return nil, err
	}
	return cfg, nil
}
