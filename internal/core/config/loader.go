package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v2"
)

// Defaults for anything the file and environment leave unset.
const (
	DefaultBaseURL          = "http://localhost:3000"
	DefaultPort             = 8080
	DefaultTimeoutMS        = 10_000
	DefaultRetryAttempts    = 3
	DefaultRetryBaseDelayMS = 1_000
	DefaultLogLevel         = "info"
	DefaultCacheTTLMS       = 300_000
)

// Load reads configuration from a YAML file, then applies PREDICTDASH_*
// environment overrides on top. A missing file is not an error: the
// environment alone can configure everything.
func Load(path string) (*AppConfig, error) {
	var cfg AppConfig

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// Env-only mode.
		case err != nil:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		default:
			// Expand environment variables in the YAML content
			expanded := os.ExpandEnv(string(data))
			if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	applyEnvOverrides(&cfg)
	applyDefaults(&cfg)

	return &cfg, nil
}

func applyEnvOverrides(cfg *AppConfig) {
	envString("PREDICTDASH_API_URL", &cfg.Upstream.BaseURL)
	envString("PREDICTDASH_LOG_LEVEL", &cfg.Logging.Level)
	envString("PREDICTDASH_REDIS_URL", &cfg.Cache.URL)
	envString("PREDICTDASH_REDIS_PASSWORD", &cfg.Cache.Password)

	envInt("PREDICTDASH_PORT", &cfg.Server.Port, &cfg.envViolations)
	envInt("PREDICTDASH_TIMEOUT_MS", &cfg.Upstream.TimeoutMS, &cfg.envViolations)
	envInt("PREDICTDASH_RETRY_ATTEMPTS", &cfg.Upstream.RetryAttempts, &cfg.envViolations)
	envInt("PREDICTDASH_RETRY_BASE_DELAY_MS", &cfg.Upstream.RetryBaseDelayMS, &cfg.envViolations)
	envInt("PREDICTDASH_CACHE_TTL_MS", &cfg.Cache.TTLMS, &cfg.envViolations)
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultPort
	}
	if cfg.Upstream.BaseURL == "" {
		cfg.Upstream.BaseURL = DefaultBaseURL
	}
	if cfg.Upstream.TimeoutMS == 0 {
		cfg.Upstream.TimeoutMS = DefaultTimeoutMS
	}
	if cfg.Upstream.RetryAttempts == 0 {
		cfg.Upstream.RetryAttempts = DefaultRetryAttempts
	}
	if cfg.Upstream.RetryBaseDelayMS == 0 {
		cfg.Upstream.RetryBaseDelayMS = DefaultRetryBaseDelayMS
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = DefaultLogLevel
	}
	if cfg.Cache.TTLMS == 0 {
		cfg.Cache.TTLMS = DefaultCacheTTLMS
	}
}

func envString(name string, dst *string) {
	if v := os.Getenv(name); v != "" {
		*dst = v
	}
}

func envInt(name string, dst *int, violations *[]Violation) {
	raw := os.Getenv(name)
	if raw == "" {
		return
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		*violations = append(*violations, Violation{Field: name, Constraint: "must be an integer", Value: raw})
		return
	}
	*dst = n
}
