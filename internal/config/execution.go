package config

import "time"

// ExecutionConfig configures the command runner.
type ExecutionConfig struct {
	// Default timeout for commands
	DefaultTimeout string `yaml:"default_timeout"`

	// Working directory
	WorkingDirectory string `yaml:"working_directory"`

	// Environment variables to pass through to commands
	AllowedEnvVars []string `yaml:"allowed_env_vars"`

	// Maximum captured stdout+stderr size in bytes
	MaxOutputBytes int64 `yaml:"max_output_bytes"`
}

// DefaultExecutionConfig returns sensible runner defaults.
func DefaultExecutionConfig() ExecutionConfig {
	return ExecutionConfig{
		DefaultTimeout:   "60s",
		WorkingDirectory: ".",
		AllowedEnvVars:   []string{"PATH", "HOME", "GOPATH", "GOROOT", "USER", "LANG", "LC_ALL"},
		MaxOutputBytes:   10 * 1024 * 1024, // 10MB
	}
}

// GetDefaultTimeout returns the command timeout as a duration.
func (c ExecutionConfig) GetDefaultTimeout() time.Duration {
	return parseDuration(c.DefaultTimeout, 60*time.Second)
}
