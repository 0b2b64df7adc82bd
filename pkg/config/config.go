// Package config provides configuration loading and management for
// meshpoint. It handles loading configuration from YAML files and
// provides default values.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"meshpoint/pkg/basis"
	"meshpoint/pkg/interp"
)

// Config represents the application configuration loaded from YAML.
type Config struct {
	// Query parameters
	Query struct {
		// Variable names the scalar field to reduce (e.g. zeta)
		Variable string `yaml:"variable"`

		// Neighbors is the candidate element count per query point
		Neighbors int `yaml:"neighbors"`

		// Tolerance is the basis containment tolerance
		Tolerance float64 `yaml:"tolerance"`
	} `yaml:"query"`

	// Source parameters
	Source struct {
		// URLTemplate is a printf-style annual dataset directory URL
		// with a %d slot for the year
		URLTemplate string `yaml:"urlTemplate"`

		// Filename is the dataset filename appended to the expanded
		// directory URL
		Filename string `yaml:"filename"`
	} `yaml:"source"`

	// Output parameters
	Output struct {
		// Dir is the directory output tables are written to
		Dir string `yaml:"dir"`
	} `yaml:"output"`
}

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Query.Variable = "zeta"
	cfg.Query.Neighbors = interp.DefaultNeighbors
	cfg.Query.Tolerance = basis.Tolerance

	cfg.Source.Filename = "fort.63.json"

	cfg.Output.Dir = "."

	return cfg
}

// LoadConfig loads configuration from a YAML file.
// If the file doesn't exist, it returns the default configuration.
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file.
func SaveConfig(cfg *Config, configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}
