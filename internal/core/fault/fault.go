// Package fault is the single error taxonomy for the data-access layer.
// Every failure that crosses a package boundary is normalized into a
// Classified value so callers branch on kind and code, never on error text.
package fault

import (
	"fmt"
	"net/http"
	"time"
)

// Kind is the coarse failure category.
type Kind string

const (
	KindNetwork    Kind = "NETWORK"
	KindAPI        Kind = "API"
	KindValidation Kind = "VALIDATION"
	KindTimeout    Kind = "TIMEOUT"
	KindCancelled  Kind = "CANCELLED"
	KindUnknown    Kind = "UNKNOWN"
)

// Stable machine-readable codes carried by Classified errors. Validation
// codes come from the domain package.
const (
	CodeNetworkError    = "NETWORK_ERROR"
	CodeTimeout         = "TIMEOUT"
	CodeCancelled       = "CANCELLED"
	CodeTickerNotFound  = "TICKER_NOT_FOUND"
	CodeRateLimited     = "RATE_LIMITED"
	CodeServerError     = "SERVER_ERROR"
	CodeHTTPError       = "HTTP_ERROR"
	CodeInvalidResponse = "INVALID_RESPONSE"
	CodeUnknown         = "UNKNOWN_ERROR"
)

// Classified is a normalized failure. Context is never mutated after
// creation; Normalize copies it when merging.
type Classified struct {
	Kind       Kind
	Code       string
	Message    string
	HTTPStatus int // 0 when no HTTP response was involved
	Retryable  bool
	Timestamp  time.Time
	Context    map[string]any
	cause      error
}

func (c *Classified) Error() string {
	if c.Code != "" {
		return fmt.Sprintf("%s [%s]: %s", c.Kind, c.Code, c.Message)
	}
	return fmt.Sprintf("%s: %s", c.Kind, c.Message)
}

// Unwrap exposes the original cause for errors.Is / errors.As.
func (c *Classified) Unwrap() error { return c.cause }

// StatusError is a pre-classified upstream failure: the HTTP layer already
// knows the status and code, Normalize only has to map it onto the taxonomy.
type StatusError struct {
	Status  int
	Code    string
	Message string
	Context map[string]any
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream %d [%s]: %s", e.Status, e.Code, e.Message)
}

// RetryableStatus is the single place the status retry rules live. Rate
// limiting (429) and server faults (5xx) are transient; everything else,
// including 404 for an unknown ticker, must not burn retry attempts.
func RetryableStatus(status int) bool {
	return status == http.StatusTooManyRequests || status >= http.StatusInternalServerError
}
