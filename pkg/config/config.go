// Package config loads server configuration from YAML files with
// environment-variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config is the server configuration.
type Config struct {
	// Port the composite server listens on.
	Port int `yaml:"port"`

	// DataDir holds registry.json and the asset directory.
	DataDir string `yaml:"dataDir"`

	// APIKey guards the admin API. Empty disables admin auth.
	APIKey string `yaml:"apiKey"`

	// SeedFile, when set, is a YAML or JSON endpoints file loaded into
	// an empty registry at startup.
	SeedFile string `yaml:"seedFile"`

	// WatchRegistry follows the registry document for external edits.
	WatchRegistry bool `yaml:"watchRegistry"`

	Log LogConfig `yaml:"log"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Port:          8080,
		DataDir:       defaultDataDir(),
		WatchRegistry: true,
		Log:           LogConfig{Level: "info", Format: "text"},
	}
}

func defaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return dir + "/stubd"
	}
	return ".stubd"
}

// Load reads the configuration file at path, falling back to defaults
// when path is empty, then applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("config: invalid port %d", cfg.Port)
	}
	return cfg, nil
}

// applyEnv applies STUBD_* environment overrides.
func (c *Config) applyEnv() {
	if v := os.Getenv("STUBD_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Port = port
		}
	}
	if v := os.Getenv("STUBD_DATA_DIR"); v != "" {
		c.DataDir = v
	}
	if v := os.Getenv("STUBD_API_KEY"); v != "" {
		c.APIKey = v
	}
	if v := os.Getenv("STUBD_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("STUBD_LOG_FORMAT"); v != "" {
		c.Log.Format = v
	}
}
