// Package config loads engine configuration from an optional YAML file
// overridden by environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/goccy/go-yaml"
	"github.com/kelseyhightower/envconfig"

	"github.com/blipk/worksetsd/internal/shared/paths"
)

// Config holds all engine configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Session   SessionConfig   `yaml:"session"`
	Logging   LogConfig       `yaml:"logging"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host string `yaml:"host" envconfig:"WORKSETS_HOST"`
	Port string `yaml:"port" envconfig:"WORKSETS_PORT"`
}

// SessionConfig holds session persistence configuration.
type SessionConfig struct {
	// ConfigDir is where session.json and its backups live.
	ConfigDir string `yaml:"config_dir" envconfig:"WORKSETS_CONFIG_DIR"`
	// DesktopNotifications routes user feedback through notify-send
	// instead of the structured log.
	DesktopNotifications bool `yaml:"desktop_notifications" envconfig:"WORKSETS_DESKTOP_NOTIFICATIONS"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `yaml:"level" envconfig:"WORKSETS_LOG_LEVEL"`
	Development bool   `yaml:"development" envconfig:"WORKSETS_LOG_DEV"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `yaml:"requests_per_second" envconfig:"WORKSETS_RATE_LIMIT_RPS"`
	Burst             int  `yaml:"burst" envconfig:"WORKSETS_RATE_LIMIT_BURST"`
	Enabled           bool `yaml:"enabled" envconfig:"WORKSETS_RATE_LIMIT_ENABLED"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: "7077",
		},
		Session: SessionConfig{
			ConfigDir: paths.DefaultConfigDir(),
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 50,
			Burst:             100,
			Enabled:           true,
		},
	}
}

// Load builds the configuration: defaults, then the YAML file at
// filePath if it exists, then environment variable overrides.
func Load(filePath string) (*Config, error) {
	cfg := Default()

	if filePath != "" {
		data, err := os.ReadFile(filePath)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file %s: %w", filePath, err)
			}
		case errors.Is(err, fs.ErrNotExist):
			// Optional file; fall through to env overrides.
		default:
			return nil, fmt.Errorf("failed to read config file %s: %w", filePath, err)
		}
	}

	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from environment: %w", err)
	}
	return cfg, nil
}

// LoadOrDefault loads configuration or returns defaults on failure.
func LoadOrDefault(filePath string) *Config {
	cfg, err := Load(filePath)
	if err != nil {
		return Default()
	}
	return cfg
}
