package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func unsetEnv(t *testing.T, key string) {
	t.Helper()
	original, existed := os.LookupEnv(key)
	if existed {
		t.Cleanup(func() {
			_ = os.Setenv(key, original)
		})
	} else {
		t.Cleanup(func() {
			_ = os.Unsetenv(key)
		})
	}
	_ = os.Unsetenv(key)
}

func writeTestConfig(t *testing.T, home string, contents string) {
	t.Helper()
	configDir := filepath.Join(home, ".config", "tally")
	require.NoError(t, os.MkdirAll(configDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(configDir, "tally.toml"), []byte(contents), 0o644))
}

func TestLoadDefaultsWhenNoConfigSources(t *testing.T) {
	tmpHome := t.TempDir()
	t.Setenv("HOME", tmpHome)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpHome, ".config"))
	unsetEnv(t, "PORT")
	unsetEnv(t, "DATA_DIR")
	unsetEnv(t, "TEST_LEAD_TTL")

	cfg, err := Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "3000", cfg.Port)
	assert.Equal(t, "./data", cfg.DataDir)
	assert.Equal(t, 60*time.Second, cfg.TestLeadTTL)
	assert.Equal(t, 5*time.Second, cfg.HealthCheckTimeout)
}

func TestLoadUsesEnvironmentVariables(t *testing.T) {
	tmpHome := t.TempDir()
	t.Setenv("HOME", tmpHome)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpHome, ".config"))
	t.Setenv("PORT", "4321")
	t.Setenv("DATA_DIR", "/tmp/env-data")
	t.Setenv("TEST_LEAD_TTL", "90s")

	cfg, err := Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "4321", cfg.Port)
	assert.Equal(t, "/tmp/env-data", cfg.DataDir)
	assert.Equal(t, 90*time.Second, cfg.TestLeadTTL)
}

func TestLoadConfigFileBeatsEnvironment(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	t.Setenv("PORT", "4321")
	writeTestConfig(t, home, `
port = "4000"
data_dir = "./config-data"
test_lead_ttl = "2m"
`)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "4000", cfg.Port)
	assert.Equal(t, "./config-data", cfg.DataDir)
	assert.Equal(t, 2*time.Minute, cfg.TestLeadTTL)
}

func TestLoadWithOverridesPriority(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	writeTestConfig(t, home, `
port = "4000"
data_dir = "./config-data"
`)

	cfg, err := LoadWithOverrides("5000", "/flag-data")
	require.NoError(t, err)

	assert.Equal(t, "5000", cfg.Port)
	assert.Equal(t, "/flag-data", cfg.DataDir)
}

func TestStatsFilePath(t *testing.T) {
	cfg := &Config{DataDir: "/var/lib/tally"}
	assert.Equal(t, filepath.Join("/var/lib/tally", "stats.json"), cfg.StatsFile())
}
