package config

import (
	"time"

	redisclient "github.com/vietddude/predictdash/internal/infra/redis"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Server   ServerConfig       `yaml:"server"`
	Upstream UpstreamConfig     `yaml:"upstream"`
	Cache    redisclient.Config `yaml:"cache"`
	Logging  LoggingConfig      `yaml:"logging"`

	// Environment values that failed to parse; surfaced by Validate.
	envViolations []Violation
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// UpstreamConfig holds settings for the prediction API.
type UpstreamConfig struct {
	BaseURL          string `yaml:"base_url"`
	TimeoutMS        int    `yaml:"timeout_ms"`
	RetryAttempts    int    `yaml:"retry_attempts"`
	RetryBaseDelayMS int    `yaml:"retry_base_delay_ms"`
}

// Timeout returns the per-request deadline as a duration.
func (u UpstreamConfig) Timeout() time.Duration {
	return time.Duration(u.TimeoutMS) * time.Millisecond
}

// RetryBaseDelay returns the first backoff delay as a duration.
func (u UpstreamConfig) RetryBaseDelay() time.Duration {
	return time.Duration(u.RetryBaseDelayMS) * time.Millisecond
}
