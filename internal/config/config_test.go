package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:3000", cfg.API.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.API.Timeout)
	assert.Equal(t, 5*time.Second, cfg.Refresh.Interval)
	assert.Equal(t, "cpu", cfg.Filters.SortBy)
	assert.Equal(t, 100, cfg.Filters.Limit)
	assert.True(t, cfg.Session.Persist)
	assert.NoError(t, cfg.Validate())
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")

	yaml := `
api:
  base_url: "https://admin.internal:3443"
  timeout: 3s
refresh:
  interval: 2s
  auto_start: true
filters:
  sort_by: mem
  limit: 25
log:
  level: debug
services:
  logs: [nginx, redis]
devserver:
  allowed_services: [nginx]
`
	require.NoError(t, os.WriteFile(cfgPath, []byte(yaml), 0o644))

	cfg, err := Load(cfgPath)
	require.NoError(t, err)

	assert.Equal(t, "https://admin.internal:3443", cfg.API.BaseURL)
	assert.Equal(t, 3*time.Second, cfg.API.Timeout)
	assert.Equal(t, 2*time.Second, cfg.Refresh.Interval)
	assert.True(t, cfg.Refresh.AutoStart)
	assert.Equal(t, "mem", cfg.Filters.SortBy)
	assert.Equal(t, 25, cfg.Filters.Limit)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, []string{"nginx", "redis"}, cfg.Services.Logs)
	assert.Equal(t, []string{"nginx"}, cfg.DevServer.AllowedServices)

	// Unspecified sections keep their defaults.
	assert.True(t, cfg.Session.Persist)
	assert.NotEmpty(t, cfg.DevServer.Users)
	assert.Equal(t, []string{"nginx", "postgresql", "redis"}, cfg.Services.Restartable)
}

func TestLoadInvalidYAML(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("api: [unterminated"), 0o644))

	_, err := Load(cfgPath)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("SYSDASH_BASE_URL", "http://10.0.0.5:8080")
	t.Setenv("SYSDASH_REFRESH_INTERVAL", "750ms")
	t.Setenv("SYSDASH_LOG_LEVEL", "warn")
	t.Setenv("SYSDASH_STATE_DIR", "/var/lib/sysdash")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "http://10.0.0.5:8080", cfg.API.BaseURL)
	assert.Equal(t, 750*time.Millisecond, cfg.Refresh.Interval)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "/var/lib/sysdash", cfg.Session.StateDir)
	// Not overridden.
	assert.Equal(t, 10*time.Second, cfg.API.Timeout)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"defaults", func(*Config) {}, true},
		{"https", func(c *Config) { c.API.BaseURL = "https://example.com" }, true},
		{"bad scheme", func(c *Config) { c.API.BaseURL = "ftp://example.com" }, false},
		{"no host", func(c *Config) { c.API.BaseURL = "http://" }, false},
		{"zero timeout", func(c *Config) { c.API.Timeout = 0 }, false},
		{"negative interval", func(c *Config) { c.Refresh.Interval = -time.Second }, false},
		{"unknown sort", func(c *Config) { c.Filters.SortBy = "name" }, false},
		{"limit too high", func(c *Config) { c.Filters.Limit = 1001 }, false},
		{"limit zero", func(c *Config) { c.Filters.Limit = 0 }, false},
		{"max limit", func(c *Config) { c.Filters.Limit = 1000 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestDefaultStateDirRespectsXDG(t *testing.T) {
	t.Setenv("XDG_STATE_HOME", "/tmp/state-home")
	assert.Equal(t, "/tmp/state-home/sysdash", DefaultStateDir())
}

func TestDefaultPathRespectsXDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/config-home")
	assert.Equal(t, "/tmp/config-home/sysdash/config.yaml", DefaultPath())
}
