package runner

import "remedy/internal/config"

// ConfigFrom builds a runner Config from the loaded application config.
func ConfigFrom(cfg *config.Config) Config {
	rc := DefaultRunnerConfig()
	rc.DefaultTimeout = cfg.Execution.GetDefaultTimeout()
	if cfg.Execution.WorkingDirectory != "" {
		rc.DefaultWorkingDir = cfg.Execution.WorkingDirectory
	}
	if len(cfg.Execution.AllowedEnvVars) > 0 {
		rc.AllowedEnvironment = cfg.Execution.AllowedEnvVars
	}
	if cfg.Execution.MaxOutputBytes > 0 {
		rc.MaxOutputBytes = cfg.Execution.MaxOutputBytes
	}
	return rc
}
