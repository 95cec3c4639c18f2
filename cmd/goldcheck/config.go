package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/m-kadula/ml2024-25/internal/tolerance"
)

// Config represents the goldcheck configuration file
// ($XDG_CONFIG_HOME/goldcheck/config.yaml). Pointer fields distinguish
// "not set" from zero values.
type Config struct {
	// Store is the default golden store for compare and inspect.
	Store string `yaml:"store"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	// Default tolerance of keys without an override.
	RTol *float64 `yaml:"rtol"`
	ATol *float64 `yaml:"atol"`
	// Tolerances overrides by key or key prefix, e.g. "linear_regression"
	// or "logistic_regression/classification_2d".
	Tolerances tolerance.Table `yaml:"tolerances"`

	// Report is the default path of the canonical JSON report.
	Report string `yaml:"report"`
}

func defaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "goldcheck", "config.yaml")
}

// LoadConfig reads the config file at path. A missing file yields a zero
// Config unless required is set; a malformed file is always an error.
func LoadConfig(path string, required bool) (Config, error) {
	if path == "" {
		return Config{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !required {
			return Config{}, nil
		}
		return Config{}, fmt.Errorf("config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	if err := cfg.Tolerances.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	if err := cfg.Default().Validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Default is tolerance.Default with the configured bounds applied.
func (c Config) Default() tolerance.Tolerance {
	return tolerance.Default.With(c.RTol, c.ATol)
}
