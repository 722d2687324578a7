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
	require.NotNil(t, cfg)

	assert.Equal(t, DefaultCachePath, cfg.Cache.Path)
	assert.Equal(t, Duration(12*time.Hour), cfg.Cache.DefaultTTL)
	assert.Equal(t, DefaultPerfFlushOps, cfg.Cache.PerfFlushOps)
	assert.Equal(t, Duration(DefaultPerfFlushInterval), cfg.Cache.PerfFlushInterval)
	assert.Equal(t, DefaultUpstreamBaseURL, cfg.Upstream.BaseURL)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig(t *testing.T) {
	tempDir := t.TempDir()
	path := filepath.Join(tempDir, "server.yml")

	content := `
version: "1.0"
cache:
  path: /tmp/cache-test.db
  default_ttl: 1h
  perf_flush_ops: 50
  perf_flush_interval: 2m
http:
  enabled: false
logging:
  level: debug
  console: true
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/cache-test.db", cfg.Cache.Path)
	assert.Equal(t, Duration(time.Hour), cfg.Cache.DefaultTTL)
	assert.Equal(t, 50, cfg.Cache.PerfFlushOps)
	assert.Equal(t, Duration(2*time.Minute), cfg.Cache.PerfFlushInterval)
	assert.False(t, cfg.HTTP.Enabled)
	assert.Equal(t, "debug", cfg.Log.Level)

	// Defaults survive for unset sections
	assert.Equal(t, DefaultUpstreamBaseURL, cfg.Upstream.BaseURL)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig("/nonexistent/server.yml")
	assert.Error(t, err)
}

func TestLoadConfigInvalidYAML(t *testing.T) {
	tempDir := t.TempDir()
	path := filepath.Join(tempDir, "bad.yml")
	require.NoError(t, os.WriteFile(path, []byte("cache: ["), 0644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid default", func(c *Config) {}, false},
		{"missing cache path", func(c *Config) { c.Cache.Path = "" }, true},
		{"zero ttl", func(c *Config) { c.Cache.DefaultTTL = 0 }, true},
		{"zero flush ops", func(c *Config) { c.Cache.PerfFlushOps = 0 }, true},
		{"zero flush interval", func(c *Config) { c.Cache.PerfFlushInterval = 0 }, true},
		{"bad http port", func(c *Config) { c.HTTP.Port = 70000 }, true},
		{"http disabled ignores port", func(c *Config) { c.HTTP.Enabled = false; c.HTTP.Port = 0 }, false},
		{"missing upstream url", func(c *Config) { c.Upstream.BaseURL = "" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("SMARTSUITE_API_KEY", "key-123")
	t.Setenv("SMARTSUITE_ACCOUNT_ID", "acct-456")
	t.Setenv("SMARTSUITE_TIMEZONE", "America/New_York")

	cfg := LoadDefaultConfig()
	assert.Equal(t, "key-123", cfg.Upstream.APIKey)
	assert.Equal(t, "acct-456", cfg.Upstream.AccountID)
	assert.Equal(t, "America/New_York", cfg.Cache.Timezone)
}

func TestSaveConfig(t *testing.T) {
	tempDir := t.TempDir()
	path := filepath.Join(tempDir, "out.yml")

	cfg := DefaultConfig()
	cfg.Cache.Path = "/tmp/custom.db"
	require.NoError(t, SaveConfig(cfg, path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/custom.db", loaded.Cache.Path)
}
