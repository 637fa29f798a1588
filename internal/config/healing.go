package config

import "time"

// HealingConfig configures the self-healing loop.
type HealingConfig struct {
	// MaxAttempts bounds the execute/classify/correct/retry cycle.
	MaxAttempts int `yaml:"max_attempts"`

	// AttemptTimeout bounds each command execution.
	AttemptTimeout string `yaml:"attempt_timeout"`

	// ConsultResearch enables a research lookup before the fallback tier
	// comments out a line.
	ConsultResearch bool `yaml:"consult_research"`

	// BackupSuffix is appended to a file path to derive its backup location.
	BackupSuffix string `yaml:"backup_suffix"`
}

// DefaultHealingConfig returns the default loop settings.
func DefaultHealingConfig() HealingConfig {
	return HealingConfig{
		MaxAttempts:     3,
		AttemptTimeout:  "60s",
		ConsultResearch: false,
		BackupSuffix:    ".remedy-backup",
	}
}

// GetAttemptTimeout returns the per-attempt timeout as a duration.
func (c HealingConfig) GetAttemptTimeout() time.Duration {
	return parseDuration(c.AttemptTimeout, 60*time.Second)
}
