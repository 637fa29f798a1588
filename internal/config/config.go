// Package config holds all remedy configuration. The Config struct is
// constructed once at process start (Load or DefaultConfig), passed by
// reference into each component's constructor, and never mutated afterwards.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all remedy configuration.
type Config struct {
	// Core settings
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// Policy gate rules
	Policy PolicyConfig `yaml:"policy"`

	// Command execution settings
	Execution ExecutionConfig `yaml:"execution"`

	// Self-healing loop settings
	Healing HealingConfig `yaml:"healing"`

	// Research providers
	Research ResearchConfig `yaml:"research"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:    "remedy",
		Version: "0.3.0",

		Policy:    DefaultPolicyConfig(),
		Execution: DefaultExecutionConfig(),
		Healing:   DefaultHealingConfig(),
		Research:  DefaultResearchConfig(),

		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Return defaults if config file doesn't exist
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// Override with environment variables
	cfg.applyEnvOverrides()

	return cfg, nil
}

// LoadFromWorkspace loads .remedy/config.yaml relative to a workspace root.
func LoadFromWorkspace(workspace string) (*Config, error) {
	return Load(filepath.Join(workspace, ".remedy", "config.yaml"))
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("REMEDY_MAX_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Healing.MaxAttempts = n
		}
	}
	if v := os.Getenv("REMEDY_ATTEMPT_TIMEOUT"); v != "" {
		if _, err := time.ParseDuration(v); err == nil {
			c.Healing.AttemptTimeout = v
		}
	}
	if v := os.Getenv("REMEDY_RESEARCH_PROVIDER"); v != "" {
		c.Research.Provider = v
	}
	if v := os.Getenv("REMEDY_WORKDIR"); v != "" {
		c.Execution.WorkingDirectory = v
	}
	if v := os.Getenv("REMEDY_DEBUG"); v == "1" || v == "true" {
		c.Logging.DebugMode = true
		c.Logging.Level = "debug"
	}
}

// parseDuration parses a duration string with a fallback default.
func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}
