package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// StatsFileName is the primary persisted-store file inside DataDir.
// A ".backup" sibling holds the previous version.
const StatsFileName = "stats.json"

// Config holds application configuration
type Config struct {
	Port               string
	DataDir            string
	TestLeadTTL        time.Duration
	HealthCheckTimeout time.Duration
}

// Load loads configuration from multiple sources with priority:
// 1. Command flags (passed as overrides)
// 2. Config file (./tally.toml or $XDG_CONFIG_HOME/tally/tally.toml)
// 3. Environment variables
// 4. Built-in defaults
func Load() (*Config, error) {
	return LoadWithOverrides("", "")
}

// LoadWithOverrides loads config and applies flag overrides
func LoadWithOverrides(port, dataDir string) (*Config, error) {
	v := newBaseViper()
	_ = v.ReadInConfig()
	return buildConfig(v, port, dataDir), nil
}

func newBaseViper() *viper.Viper {
	v := viper.New()
	v.SetConfigName("tally")
	v.SetConfigType("toml")
	v.AddConfigPath(".")

	// XDG Base Directory lookup, resolved manually so tests can override HOME.
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		if home, err := os.UserHomeDir(); err == nil {
			configHome = filepath.Join(home, ".config")
		}
	}
	if configHome != "" {
		v.AddConfigPath(filepath.Join(configHome, "tally"))
	}

	return v
}

func buildConfig(v *viper.Viper, overridePort, overrideDataDir string) *Config {
	cfg := &Config{
		Port:               "3000",
		DataDir:            "./data",
		TestLeadTTL:        60 * time.Second,
		HealthCheckTimeout: 5 * time.Second,
	}

	// Config file values
	if v.IsSet("port") {
		cfg.Port = v.GetString("port")
	}
	if v.IsSet("data_dir") {
		cfg.DataDir = v.GetString("data_dir")
	}
	if v.IsSet("test_lead_ttl") {
		cfg.TestLeadTTL = v.GetDuration("test_lead_ttl")
	}
	if v.IsSet("health_check_timeout") {
		cfg.HealthCheckTimeout = v.GetDuration("health_check_timeout")
	}

	// Environment fallback (only if not configured)
	if !v.IsSet("port") {
		if envPort := os.Getenv("PORT"); envPort != "" {
			cfg.Port = envPort
		}
	}
	if !v.IsSet("data_dir") {
		if envDataDir := os.Getenv("DATA_DIR"); envDataDir != "" {
			cfg.DataDir = envDataDir
		}
	}
	if !v.IsSet("test_lead_ttl") {
		if envTTL := os.Getenv("TEST_LEAD_TTL"); envTTL != "" {
			if d, err := time.ParseDuration(envTTL); err == nil {
				cfg.TestLeadTTL = d
			}
		}
	}

	// Apply overrides (flags) last
	if overridePort != "" {
		cfg.Port = overridePort
	}
	if overrideDataDir != "" {
		cfg.DataDir = overrideDataDir
	}

	return cfg
}

// StatsFile returns the path of the persisted aggregate store.
func (c *Config) StatsFile() string {
	return filepath.Join(c.DataDir, StatsFileName)
}
