package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "remedy", cfg.Name)
	assert.Equal(t, 3, cfg.Healing.MaxAttempts)
	assert.Equal(t, 60*time.Second, cfg.Healing.GetAttemptTimeout())
	assert.Equal(t, "static", cfg.Research.Provider)
	assert.NotEmpty(t, cfg.Policy.DestructiveCommands)
	assert.NotEmpty(t, cfg.Policy.SensitivePaths)
	assert.Contains(t, cfg.Execution.AllowedEnvVars, "PATH")
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Healing.MaxAttempts, cfg.Healing.MaxAttempts)
}

func TestLoad_ParsesYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := []byte("healing:\n  max_attempts: 7\n  attempt_timeout: 5s\nresearch:\n  provider: duckduckgo\n")
	require.NoError(t, os.WriteFile(path, data, 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Healing.MaxAttempts)
	assert.Equal(t, 5*time.Second, cfg.Healing.GetAttemptTimeout())
	assert.Equal(t, "duckduckgo", cfg.Research.Provider)
	// Sections absent from the file keep their defaults.
	assert.NotEmpty(t, cfg.Policy.DestructiveCommands)
}

func TestLoad_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("healing: ["), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Run("REMEDY_MAX_ATTEMPTS overrides", func(t *testing.T) {
		t.Setenv("REMEDY_MAX_ATTEMPTS", "9")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()

		assert.Equal(t, 9, cfg.Healing.MaxAttempts)
	})

	t.Run("invalid REMEDY_MAX_ATTEMPTS ignored", func(t *testing.T) {
		t.Setenv("REMEDY_MAX_ATTEMPTS", "zero")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()

		assert.Equal(t, 3, cfg.Healing.MaxAttempts)
	})

	t.Run("REMEDY_ATTEMPT_TIMEOUT must parse", func(t *testing.T) {
		t.Setenv("REMEDY_ATTEMPT_TIMEOUT", "90s")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()

		assert.Equal(t, 90*time.Second, cfg.Healing.GetAttemptTimeout())
	})

	t.Run("REMEDY_DEBUG enables debug logging", func(t *testing.T) {
		t.Setenv("REMEDY_DEBUG", "true")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()

		assert.True(t, cfg.Logging.DebugMode)
		assert.Equal(t, "debug", cfg.Logging.Level)
	})
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".remedy", "config.yaml")

	cfg := DefaultConfig()
	cfg.Healing.MaxAttempts = 5
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 5, loaded.Healing.MaxAttempts)
	assert.Equal(t, cfg.Policy.WhitelistPrefixes, loaded.Policy.WhitelistPrefixes)
}
