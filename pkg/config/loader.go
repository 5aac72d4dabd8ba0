package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads, expands, decodes, and validates a YAML config file.
// Environment variables are expanded in the raw document before decoding,
// so any field can be written as ${VAR} or ${VAR:-default}.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML config document.
func Parse(data []byte) (*Config, error) {
	expanded := ExpandEnvVars(string(data))

	cfg := &Config{}
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.SetDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Default returns a usable configuration without a config file: in-memory
// stores, quota enabled with the stock limit, auth disabled.
func Default() *Config {
	cfg := &Config{}
	cfg.SetDefaults()
	return cfg
}
