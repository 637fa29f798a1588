package config

// LoggingConfig configures categorized file logging.
// The logging package reads this section directly from .remedy/config.yaml
// to avoid a circular import.
type LoggingConfig struct {
	// DebugMode enables file logging; when false no logs are written.
	DebugMode bool `yaml:"debug_mode"`

	// Categories toggles individual log categories. Empty means all enabled.
	Categories map[string]bool `yaml:"categories"`

	// Level is the minimum level written: debug, info, warn, error.
	Level string `yaml:"level"`

	// JSONFormat emits structured JSON entries for host-side parsing.
	JSONFormat bool `yaml:"json_format"`
}
