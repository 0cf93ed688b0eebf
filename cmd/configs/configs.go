// Package configs loads runtime settings from an optional .env file and the
// environment. Environment variables win over the file.
package configs

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	ServerPort string `mapstructure:"SERVER_PORT"`
	LogLevel   string `mapstructure:"LOG_LEVEL"`
	LogFormat  string `mapstructure:"LOG_FORMAT"`

	RateLimiterBackend       string `mapstructure:"RATE_LIMITER_BACKEND"`
	RateLimiterRedisAddr     string `mapstructure:"RATE_LIMITER_REDIS_ADDR"`
	RateLimiterSQLitePath    string `mapstructure:"RATE_LIMITER_SQLITE_PATH"`
	RateLimiterSweepInterval string `mapstructure:"RATE_LIMITER_SWEEP_INTERVAL"`
	RateLimiterCleanupWorker bool   `mapstructure:"RATE_LIMITER_CLEANUP_WORKER"`
	RateLimiterAllowlist     string `mapstructure:"RATE_LIMITER_ALLOWLIST"`
	RateLimiterFormPreset    string `mapstructure:"RATE_LIMITER_FORM_PRESET"`

	DatabasePath    string `mapstructure:"DATABASE_PATH"`
	DefaultLanguage string `mapstructure:"DEFAULT_LANGUAGE"`
}

var defaults = map[string]any{
	"SERVER_PORT":                 "8080",
	"LOG_LEVEL":                   "info",
	"LOG_FORMAT":                  "json",
	"RATE_LIMITER_BACKEND":        "memory",
	"RATE_LIMITER_REDIS_ADDR":     "localhost:6379",
	"RATE_LIMITER_SQLITE_PATH":    "ratelimit.db",
	"RATE_LIMITER_SWEEP_INTERVAL": "1m",
	"RATE_LIMITER_CLEANUP_WORKER": false,
	"RATE_LIMITER_ALLOWLIST":      "",
	"RATE_LIMITER_FORM_PRESET":    "form",
	"DATABASE_PATH":               "",
	"DEFAULT_LANGUAGE":            "hr",
}

// LoadConfig reads path/.env when present, then the environment.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("env")
	v.SetConfigFile(filepath.Join(path, ".env"))
	v.AutomaticEnv()

	for key, value := range defaults {
		v.SetDefault(key, value)
		// AutomaticEnv alone does not reach Unmarshal.
		_ = v.BindEnv(key)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) Validate() error {
	switch c.RateLimiterBackend {
	case "memory", "redis", "sqlite":
	default:
		return fmt.Errorf("invalid RATE_LIMITER_BACKEND %q: want memory, redis or sqlite", c.RateLimiterBackend)
	}
	if _, err := c.SweepInterval(); err != nil {
		return err
	}
	return nil
}

// SweepInterval parses RATE_LIMITER_SWEEP_INTERVAL. Valid units are "ns",
// "us" (or "µs"), "ms", "s", "m", "h".
func (c *Config) SweepInterval() (time.Duration, error) {
	d, err := time.ParseDuration(c.RateLimiterSweepInterval)
	if err != nil {
		return 0, fmt.Errorf("invalid duration for RATE_LIMITER_SWEEP_INTERVAL %q: %w", c.RateLimiterSweepInterval, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("RATE_LIMITER_SWEEP_INTERVAL must be positive, got %s", d)
	}
	return d, nil
}

// Allowlist splits RATE_LIMITER_ALLOWLIST on commas.
func (c *Config) Allowlist() []string {
	var out []string
	for _, entry := range strings.Split(c.RateLimiterAllowlist, ",") {
		if entry = strings.TrimSpace(entry); entry != "" {
			out = append(out, entry)
		}
	}
	return out
}

func (c *Config) Addr() string {
	if strings.Contains(c.ServerPort, ":") {
		return c.ServerPort
	}
	return ":" + c.ServerPort
}
