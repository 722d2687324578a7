package config

import (
	"os"
	"time"

	"github.com/Grupo-AFAL/smartsuite-mcp-server-sub002/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config represents the server configuration
type Config struct {
	Version  string         `yaml:"version"`
	HTTP     HTTPConfig     `yaml:"http"`
	Upstream UpstreamConfig `yaml:"upstream"`
	Cache    CacheConfig    `yaml:"cache"`
	Log      LogConfig      `yaml:"logging"`
}

// HTTPConfig holds the health/metrics HTTP endpoint configuration
type HTTPConfig struct {
	Enabled bool   `yaml:"enabled"`
	Address string `yaml:"address"`
	Port    int    `yaml:"port"`
}

// UpstreamConfig holds the SmartSuite API client configuration.
// Credentials never live in the config file; they are read from the
// environment at load time.
type UpstreamConfig struct {
	BaseURL        string   `yaml:"base_url"`
	RequestTimeout Duration `yaml:"request_timeout"`
	MaxRetries     int      `yaml:"max_retries"`

	// Populated from SMARTSUITE_API_KEY / SMARTSUITE_ACCOUNT_ID
	APIKey    string `yaml:"-"`
	AccountID string `yaml:"-"`
}

// CacheConfig holds the local cache configuration
type CacheConfig struct {
	Path              string   `yaml:"path"`
	DefaultTTL        Duration `yaml:"default_ttl"`
	PerfFlushOps      int      `yaml:"perf_flush_ops"`
	PerfFlushInterval Duration `yaml:"perf_flush_interval"`
	WarmCount         int      `yaml:"warm_count"`

	// Populated from SMARTSUITE_TIMEZONE
	Timezone string `yaml:"-"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level      string `yaml:"level"`
	Console    bool   `yaml:"console"`
	FilePath   string `yaml:"file_path,omitempty"`
	Cleanup    bool   `yaml:"cleanup"`
	MaxSize    int    `yaml:"max_size"`    // MB per log file before rotation
	MaxBackups int    `yaml:"max_backups"` // rotated files to keep
	MaxAge     int    `yaml:"max_age"`     // days to keep rotated files
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Version: "1.0",
		HTTP: HTTPConfig{
			Enabled: true,
			Address: LocalhostAddress,
			Port:    HTTPServerPort,
		},
		Upstream: UpstreamConfig{
			BaseURL:        DefaultUpstreamBaseURL,
			RequestTimeout: Duration(30 * time.Second),
			MaxRetries:     3,
		},
		Cache: CacheConfig{
			Path:              DefaultCachePath,
			DefaultTTL:        Duration(DefaultCacheTTL),
			PerfFlushOps:      DefaultPerfFlushOps,
			PerfFlushInterval: Duration(DefaultPerfFlushInterval),
			WarmCount:         DefaultWarmCount,
		},
		Log: LogConfig{
			Level:      "info",
			Console:    true,
			MaxSize:    50,
			MaxBackups: 3,
			MaxAge:     7,
		},
	}
}

// LoadConfig loads configuration from a yaml file, applies defaults for
// unset values and pulls credentials from the environment.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New(ErrConfigFileReadFailed, "failed to read config file", err).AddContext("path", path)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.New(ErrConfigFileParseFailed, "failed to parse config file", err).AddContext("path", path)
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDefaultConfig returns the default configuration with environment
// overrides applied.
func LoadDefaultConfig() *Config {
	cfg := DefaultConfig()
	cfg.applyEnv()
	return cfg
}

func (c *Config) applyEnv() {
	if v := os.Getenv("SMARTSUITE_API_KEY"); v != "" {
		c.Upstream.APIKey = v
	}
	if v := os.Getenv("SMARTSUITE_ACCOUNT_ID"); v != "" {
		c.Upstream.AccountID = v
	}
	if v := os.Getenv("SMARTSUITE_TIMEZONE"); v != "" {
		c.Cache.Timezone = v
	}
}

// Validate checks the configuration for inconsistencies
func (c *Config) Validate() error {
	if c.Cache.Path == "" {
		return errors.New(ErrCachePathRequired, "cache path is required", nil)
	}
	if c.Cache.DefaultTTL <= 0 {
		return errors.New(ErrConfigValidationFailed, "cache default_ttl must be positive", nil)
	}
	if c.Cache.PerfFlushOps <= 0 {
		return errors.New(ErrConfigValidationFailed, "cache perf_flush_ops must be positive", nil)
	}
	if c.Cache.PerfFlushInterval <= 0 {
		return errors.New(ErrConfigValidationFailed, "cache perf_flush_interval must be positive", nil)
	}
	if c.HTTP.Enabled && (c.HTTP.Port <= 0 || c.HTTP.Port > 65535) {
		return errors.New(ErrConfigValidationFailed, "http port out of range", nil).AddContext("port", c.HTTP.Port)
	}
	if c.Upstream.BaseURL == "" {
		return errors.New(ErrUpstreamURLRequired, "upstream base_url is required", nil)
	}
	return nil
}

// SaveConfig writes the configuration to a yaml file
func SaveConfig(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.New(ErrConfigFileMarshalFailed, "failed to marshal config", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New(ErrConfigFileWriteFailed, "failed to write config file", err).AddContext("path", path)
	}
	return nil
}
