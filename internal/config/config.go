// Package config handles Haven configuration loading.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultSearchPaths returns the config file search order.
// An explicit path (from -config flag) is checked first.
// Then: ./config.yaml, ~/.config/haven/config.yaml, /etc/haven/config.yaml.
func DefaultSearchPaths() []string {
	paths := []string{"config.yaml"}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "haven", "config.yaml"))
	}

	paths = append(paths, "/etc/haven/config.yaml")
	return paths
}

// FindConfig locates a config file. If explicit is non-empty, it must exist.
// Otherwise, searches DefaultSearchPaths and returns the first that exists.
// Returns the path found, or an error if nothing was found.
func FindConfig(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	for _, p := range DefaultSearchPaths() {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", fmt.Errorf("no config file found (searched: %v)", DefaultSearchPaths())
}

// Config holds all Haven configuration.
type Config struct {
	Listen    ListenConfig `yaml:"listen"`
	Gemini    GeminiConfig `yaml:"gemini"`
	Search    SearchConfig `yaml:"search"`
	Store     StoreConfig  `yaml:"store"`
	LogLevel  string       `yaml:"log_level"`
	LogFormat string       `yaml:"log_format"` // "text" (default) or "json"
}

// ListenConfig defines the API server settings.
type ListenConfig struct {
	Address string `yaml:"address"` // Bind address (default: "" = all interfaces)
	Port    int    `yaml:"port"`
}

// GeminiConfig defines Gemini API settings.
type GeminiConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
	// Timeout bounds a single model call. Zero means DefaultModelTimeout.
	Timeout time.Duration `yaml:"timeout"`
}

// Configured reports whether a Gemini API key is set.
func (c GeminiConfig) Configured() bool {
	return c.APIKey != ""
}

// SearchConfig defines the web search and geocoding settings.
type SearchConfig struct {
	// Provider selects the search backend (default "duckduckgo").
	Provider string `yaml:"provider"`
	// GeocodeTimeout bounds a reverse-geocoding call (default 5s).
	GeocodeTimeout time.Duration `yaml:"geocode_timeout"`
	// SearchTimeout bounds a search backend call (default 10s).
	SearchTimeout time.Duration `yaml:"search_timeout"`
}

// StoreConfig defines conversation persistence settings.
type StoreConfig struct {
	// Path is the SQLite database file. Empty means in-memory only.
	Path string `yaml:"path"`
}

// Default timeouts for external dependencies. A single slow dependency
// must never stall a conversation channel indefinitely.
const (
	DefaultGeocodeTimeout = 5 * time.Second
	DefaultSearchTimeout  = 10 * time.Second
	DefaultModelTimeout   = 60 * time.Second
)

// Load reads configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Default returns a default configuration.
func Default() *Config {
	return &Config{
		Listen: ListenConfig{Port: 8080},
		Gemini: GeminiConfig{
			Model:   "gemini-2.0-flash-exp",
			Timeout: DefaultModelTimeout,
		},
		Search: SearchConfig{
			Provider:       "duckduckgo",
			GeocodeTimeout: DefaultGeocodeTimeout,
			SearchTimeout:  DefaultSearchTimeout,
		},
		Store: StoreConfig{Path: "haven.db"},
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.Listen.Port <= 0 || c.Listen.Port > 65535 {
		return fmt.Errorf("invalid listen port: %d", c.Listen.Port)
	}
	if c.LogLevel != "" {
		if _, err := ParseLogLevel(c.LogLevel); err != nil {
			return err
		}
	}
	if c.LogFormat != "" && c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("unknown log format %q (valid: text, json)", c.LogFormat)
	}
	if c.Search.GeocodeTimeout < 0 || c.Search.SearchTimeout < 0 {
		return fmt.Errorf("search timeouts must not be negative")
	}
	return nil
}
