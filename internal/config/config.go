// Package config loads the planloom.yaml configuration file. All
// settings have working defaults so the file is optional; there is no
// global config state — callers pass the loaded Config down.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultPath is where Load looks when no path is given.
const DefaultPath = "planloom.yaml"

// Config is the full CLI configuration.
type Config struct {
	// DatabasePath locates the SQLite snapshot database.
	DatabasePath string `yaml:"database_path"`

	// DefaultProject is used when --project is omitted.
	DefaultProject string `yaml:"default_project"`

	// LogLevel is one of trace, debug, info, warn, error.
	LogLevel string `yaml:"log_level"`

	// UtilizationWindowDays bounds the report window, starting at the
	// project start date.
	UtilizationWindowDays int `yaml:"utilization_window_days"`

	Narrative NarrativeConfig `yaml:"narrative"`
}

// NarrativeConfig configures the AI summary generator.
type NarrativeConfig struct {
	Model string `yaml:"model"`
	// APIKey overrides ANTHROPIC_API_KEY. Leave empty to use the env.
	APIKey string `yaml:"api_key"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		DatabasePath:          "planloom.db",
		LogLevel:              "info",
		UtilizationWindowDays: 30,
	}
}

// Load reads the YAML file at path, falling back to defaults when the
// file does not exist. Unknown keys are rejected to catch typos.
func Load(path string) (Config, error) {
	if path == "" {
		path = DefaultPath
	}

	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}

	if cfg.UtilizationWindowDays <= 0 {
		return cfg, fmt.Errorf("utilization_window_days must be positive, got %d", cfg.UtilizationWindowDays)
	}
	return cfg, nil
}
