package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Violation describes one configuration value that failed validation.
type Violation struct {
	Field      string
	Constraint string
	Value      string
}

func (v Violation) String() string {
	return fmt.Sprintf("%s %s (got %q)", v.Field, v.Constraint, v.Value)
}

var validLevels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}

// Validate checks every setting and returns all violations at once, so a
// broken deployment reports its full list of problems in a single run.
func (c *AppConfig) Validate() []Violation {
	var out []Violation
	out = append(out, c.envViolations...)

	if !validBaseURL(c.Upstream.BaseURL) {
		out = append(out, Violation{"upstream.base_url", "must be an absolute http(s) URL", c.Upstream.BaseURL})
	}
	if c.Upstream.TimeoutMS < 1000 {
		out = append(out, Violation{"upstream.timeout_ms", "must be at least 1000", strconv.Itoa(c.Upstream.TimeoutMS)})
	}
	if c.Upstream.RetryAttempts < 1 || c.Upstream.RetryAttempts > 10 {
		out = append(out, Violation{"upstream.retry_attempts", "must be between 1 and 10", strconv.Itoa(c.Upstream.RetryAttempts)})
	}
	if c.Upstream.RetryBaseDelayMS < 100 {
		out = append(out, Violation{"upstream.retry_base_delay_ms", "must be at least 100", strconv.Itoa(c.Upstream.RetryBaseDelayMS)})
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		out = append(out, Violation{"server.port", "must be a valid TCP port", strconv.Itoa(c.Server.Port)})
	}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		out = append(out, Violation{"logging.level", "must be one of debug, info, warn, error", c.Logging.Level})
	}
	if c.Cache.TTLMS < 1000 {
		out = append(out, Violation{"cache.ttl_ms", "must be at least 1000", strconv.Itoa(c.Cache.TTLMS)})
	}

	return out
}

// Sanitize resets every violated setting to its default and returns the
// violations, so callers can report them. Bad configuration degrades to
// defaults instead of killing the process.
func (c *AppConfig) Sanitize() []Violation {
	violations := c.Validate()
	for _, v := range violations {
		// Env parse failures never reached the field, so only the
		// range checks below need a reset.
		switch v.Field {
		case "upstream.base_url":
			c.Upstream.BaseURL = DefaultBaseURL
		case "upstream.timeout_ms":
			c.Upstream.TimeoutMS = DefaultTimeoutMS
		case "upstream.retry_attempts":
			c.Upstream.RetryAttempts = DefaultRetryAttempts
		case "upstream.retry_base_delay_ms":
			c.Upstream.RetryBaseDelayMS = DefaultRetryBaseDelayMS
		case "server.port":
			c.Server.Port = DefaultPort
		case "logging.level":
			c.Logging.Level = DefaultLogLevel
		case "cache.ttl_ms":
			c.Cache.TTLMS = DefaultCacheTTLMS
		}
	}
	return violations
}

func validBaseURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
