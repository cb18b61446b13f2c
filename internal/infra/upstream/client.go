// Package upstream is the resilient HTTP client for the prediction API.
// Every call validates its ticker, enforces a per-attempt deadline, retries
// transient failures with exponential backoff, and reports failures as
// classified errors.
package upstream

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vietddude/predictdash/internal/core/domain"
	"github.com/vietddude/predictdash/internal/core/fault"
	"github.com/vietddude/predictdash/internal/core/retry"
	"github.com/vietddude/predictdash/internal/metrics"
)

// maxContextPayload bounds how much of a bad response body travels inside
// error context.
const maxContextPayload = 2048

// Config holds settings for the upstream prediction API.
type Config struct {
	BaseURL string
	Timeout time.Duration // per-attempt deadline
	Policy  retry.Policy
}

// Client performs resilient GETs against the prediction API. Construct one
// per consumer: CancelPendingRequests only aborts calls issued through the
// same client, so each state machine can own its cancellation scope.
type Client struct {
	baseURL string
	timeout time.Duration
	policy  retry.Policy
	http    *http.Client
	tokens  *tokenRegistry
	log     *slog.Logger
}

// NewClient creates a client for the configured base URL.
func NewClient(cfg Config, log *slog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	policy := cfg.Policy
	if policy.MaxAttempts <= 0 {
		policy = retry.DefaultPolicy
	}
	if log == nil {
		log = slog.Default()
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		timeout: timeout,
		policy:  policy,
		http: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		tokens: newTokenRegistry(),
		log:    log,
	}
}

// Prediction fetches the current prediction for a ticker.
func (c *Client) Prediction(ctx context.Context, rawTicker string) (domain.Prediction, error) {
	var zero domain.Prediction

	ticker, err := domain.ParseTicker(rawTicker)
	if err != nil {
		return zero, fault.Normalize(err, map[string]any{"ticker": rawTicker})
	}

	body, cerr := c.fetch(ctx, "predict", "/predict/"+ticker.String())
	if cerr != nil {
		return zero, cerr
	}

	payload, err := decodePrediction(body)
	if err != nil {
		return zero, c.invalidResponse("predict", ticker, err, body)
	}
	return toPrediction(payload), nil
}

// History fetches past predictions for a ticker, newest first.
func (c *Client) History(ctx context.Context, rawTicker string) (domain.History, error) {
	ticker, err := domain.ParseTicker(rawTicker)
	if err != nil {
		return nil, fault.Normalize(err, map[string]any{"ticker": rawTicker})
	}

	body, cerr := c.fetch(ctx, "history", "/get-history/"+ticker.String())
	if cerr != nil {
		return nil, cerr
	}

	rows, err := decodeHistory(body)
	if err != nil {
		return nil, c.invalidResponse("history", ticker, err, body)
	}
	history, err := toHistory(rows)
	if err != nil {
		return nil, c.invalidResponse("history", ticker, err, body)
	}
	return history, nil
}

// CancelPendingRequests aborts every request in flight through this client.
// Their callers observe a CANCELLED classification. Idempotent.
func (c *Client) CancelPendingRequests() {
	c.tokens.CancelAll()
}

// InFlight reports how many requests this client currently has running.
func (c *Client) InFlight() int {
	return c.tokens.Len()
}

// Close aborts in-flight requests and releases idle connections.
func (c *Client) Close() error {
	c.tokens.CancelAll()
	c.http.CloseIdleConnections()
	return nil
}

// fetch runs the bounded retry loop for one GET and returns the body of the
// first successful attempt. Failures come back already classified.
func (c *Client) fetch(ctx context.Context, endpoint, path string) ([]byte, *fault.Classified) {
	reqCtx, token := c.tokens.Register(ctx)
	defer c.tokens.Release(token)

	requestID := uuid.New().String()
	log := c.log.With("endpoint", endpoint, "request_id", requestID)

	for attempt := 1; ; attempt++ {
		metrics.UpstreamAttempts.WithLabelValues(endpoint).Inc()

		body, err := c.attempt(reqCtx, endpoint, path, requestID)
		if err == nil {
			metrics.UpstreamRequests.WithLabelValues(endpoint, "success").Inc()
			return body, nil
		}

		cerr := fault.Normalize(err, map[string]any{"endpoint": endpoint, "attempt": attempt})
		if !c.policy.ShouldRetry(cerr, attempt) {
			metrics.UpstreamRequests.WithLabelValues(endpoint, "failure").Inc()
			metrics.Failures.WithLabelValues(string(cerr.Kind)).Inc()
			log.Warn("Upstream request failed",
				"kind", cerr.Kind, "code", cerr.Code, "attempt", attempt, "error", err)
			return nil, cerr
		}

		delay := c.policy.BackoffDelay(attempt)
		metrics.UpstreamRetries.WithLabelValues(endpoint).Inc()
		log.Debug("Retrying upstream request", "attempt", attempt, "delay", delay, "code", cerr.Code)

		if err := retry.Sleep(reqCtx, delay); err != nil {
			cancelled := fault.Normalize(err, map[string]any{"endpoint": endpoint, "attempt": attempt})
			metrics.UpstreamRequests.WithLabelValues(endpoint, "failure").Inc()
			metrics.Failures.WithLabelValues(string(cancelled.Kind)).Inc()
			return nil, cancelled
		}
	}
}

// attempt makes a single GET under the per-attempt deadline.
func (c *Client) attempt(ctx context.Context, endpoint, path, requestID string) ([]byte, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)

	start := time.Now()
	resp, err := c.http.Do(req)
	metrics.UpstreamLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("upstream call: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, statusError(resp, body)
	}
	return body, nil
}

// statusError maps a non-2xx response onto the taxonomy. Whether each
// status is retryable is decided in fault.RetryableStatus; this only picks
// the code and message.
func statusError(resp *http.Response, body []byte) error {
	errCtx := map[string]any{}
	if ra := resp.Header.Get("Retry-After"); ra != "" {
		errCtx["retry_after"] = ra
	}
	if len(body) > 0 {
		errCtx["payload"] = truncate(body)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return &fault.StatusError{
			Status:  resp.StatusCode,
			Code:    fault.CodeTickerNotFound,
			Message: "ticker not found",
			Context: errCtx,
		}
	case resp.StatusCode == http.StatusTooManyRequests:
		return &fault.StatusError{
			Status:  resp.StatusCode,
			Code:    fault.CodeRateLimited,
			Message: "rate limited",
			Context: errCtx,
		}
	case resp.StatusCode >= http.StatusInternalServerError:
		return &fault.StatusError{
			Status:  resp.StatusCode,
			Code:    fault.CodeServerError,
			Message: fmt.Sprintf("upstream server error (%d)", resp.StatusCode),
			Context: errCtx,
		}
	default:
		return &fault.StatusError{
			Status:  resp.StatusCode,
			Code:    fault.CodeHTTPError,
			Message: fmt.Sprintf("unexpected status %d", resp.StatusCode),
			Context: errCtx,
		}
	}
}

// invalidResponse classifies a 2xx payload that failed shape validation.
// Non-retryable: the upstream answered, its answer is just unusable, and
// retrying would burn attempts on the same bad payload.
func (c *Client) invalidResponse(endpoint string, ticker domain.Ticker, err error, body []byte) *fault.Classified {
	cerr := fault.Normalize(&fault.StatusError{
		Status:  http.StatusOK,
		Code:    fault.CodeInvalidResponse,
		Message: err.Error(),
		Context: map[string]any{"payload": truncate(body)},
	}, map[string]any{"endpoint": endpoint, "ticker": ticker.String()})

	metrics.Failures.WithLabelValues(string(cerr.Kind)).Inc()
	c.log.Warn("Upstream response failed validation",
		"endpoint", endpoint, "ticker", ticker, "error", err)

	return cerr
}

func truncate(body []byte) string {
	if len(body) > maxContextPayload {
		return string(body[:maxContextPayload]) + "...(truncated)"
	}
	return string(body)
}
