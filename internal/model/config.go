package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Config holds the full rollcall configuration
type Config struct {
	Store       StoreConfig       `yaml:"store" mapstructure:"store"`
	Oracle      OracleConfig      `yaml:"oracle" mapstructure:"oracle"`
	Cache       CacheConfig       `yaml:"cache" mapstructure:"cache"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
	Match       MatchConfig       `yaml:"match" mapstructure:"match"`
	Output      OutputConfig      `yaml:"output" mapstructure:"output"`
	Log         LogConfig         `yaml:"log" mapstructure:"log"`
}

// StoreConfig locates the persistent store
type StoreConfig struct {
	Path string `yaml:"path" mapstructure:"path"` // SQLite database file
}

// OracleConfig configures the disambiguation oracle
type OracleConfig struct {
	Provider string `yaml:"provider" mapstructure:"provider"` // openai, gemini, anthropic, ollama, "" (disabled)
	Model    string `yaml:"model" mapstructure:"model"`
	APIKey   string `yaml:"api_key,omitempty" mapstructure:"api_key"`
	BaseURL  string `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout  int    `yaml:"timeout" mapstructure:"timeout"` // seconds per call

	MaxAttempts       uint          `yaml:"max_attempts" mapstructure:"max_attempts"`
	RetryDelay        time.Duration `yaml:"retry_delay" mapstructure:"retry_delay"`
	RetryMaxJitter    time.Duration `yaml:"retry_max_jitter" mapstructure:"retry_max_jitter"`
	RequestsPerSecond float64       `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize         int           `yaml:"burst_size" mapstructure:"burst_size"`

	HTTPProxy  string `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy string `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy    string `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
}

// CacheConfig configures the oracle decision cache
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir" mapstructure:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// ConcurrencyConfig sizes the resolution worker pool
type ConcurrencyConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// MatchConfig tunes candidate pooling
type MatchConfig struct {
	IncludeKnownProfiles bool `yaml:"include_known_profiles" mapstructure:"include_known_profiles"`
}

// OutputConfig controls report output
type OutputConfig struct {
	Dir     string `yaml:"dir" mapstructure:"dir"`
	Verbose bool   `yaml:"verbose" mapstructure:"verbose"`
}

// LogConfig controls structured logging
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`   // trace, debug, info, warn, error
	Format string `yaml:"format" mapstructure:"format"` // console, json, auto
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Store: StoreConfig{
			Path: "rollcall.db",
		},
		Oracle: OracleConfig{
			Provider:          "", // Disabled until an API key is configured
			Model:             "", // Backend default
			Timeout:           30,
			MaxAttempts:       3,
			RetryDelay:        500 * time.Millisecond,
			RetryMaxJitter:    250 * time.Millisecond,
			RequestsPerSecond: 1,
			BurstSize:         2,
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       ".rollcall-cache",
			MemoryTTL: time.Hour,
			DiskTTL:   30 * 24 * time.Hour,
		},
		Concurrency: ConcurrencyConfig{
			Workers: 4,
		},
		Match: MatchConfig{
			IncludeKnownProfiles: true,
		},
		Output: OutputConfig{
			Dir: "./rollcall-reports",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "auto",
		},
	}
}

// OracleProviders lists the accepted oracle provider names, aliases included
var OracleProviders = []string{"openai", "gemini", "google", "anthropic", "claude", "ollama"}

// Validate reports every setting that would make a run fail part way through
func (c *Config) Validate() error {
	var errs []error
	bad := func(key, format string, a ...any) {
		errs = append(errs, fmt.Errorf("%s: %s", key, fmt.Sprintf(format, a...)))
	}

	if strings.TrimSpace(c.Store.Path) == "" {
		bad("store.path", "must not be empty")
	}

	if p := strings.ToLower(strings.TrimSpace(c.Oracle.Provider)); p != "" && !contains(OracleProviders, p) {
		bad("oracle.provider", "unknown provider %q", c.Oracle.Provider)
	}
	if c.Oracle.Timeout <= 0 {
		bad("oracle.timeout", "must be at least 1 second, got %d", c.Oracle.Timeout)
	}
	if c.Oracle.MaxAttempts == 0 {
		bad("oracle.max_attempts", "must be at least 1")
	}
	if c.Oracle.RequestsPerSecond < 0 {
		bad("oracle.requests_per_second", "must not be negative")
	}

	if c.Cache.Enabled {
		if strings.TrimSpace(c.Cache.Dir) == "" {
			bad("cache.dir", "must be set when the cache is enabled")
		}
		if c.Cache.DiskTTL <= 0 {
			bad("cache.disk_ttl", "must be positive, got %s", c.Cache.DiskTTL)
		}
	}

	if c.Concurrency.Workers < 1 {
		bad("concurrency.workers", "must be at least 1, got %d", c.Concurrency.Workers)
	}

	switch strings.ToLower(c.Log.Format) {
	case "", "auto", "console", "json":
	default:
		bad("log.format", "unknown format %q", c.Log.Format)
	}

	return errors.Join(errs...)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
