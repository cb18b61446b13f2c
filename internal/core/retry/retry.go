// Package retry implements the bounded exponential backoff policy used by
// the upstream client.
package retry

import (
	"context"
	"math"
	"math/rand/v2"
	"time"

	"github.com/vietddude/predictdash/internal/core/fault"
)

// MaxBackoff caps a single backoff delay regardless of attempt count.
const MaxBackoff = 30 * time.Second

// Policy defines retry behavior. Attempts are 1-based: attempt 1 is the
// initial request, so MaxAttempts=3 means at most two retries.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

// DefaultPolicy provides sensible defaults.
var DefaultPolicy = Policy{
	MaxAttempts: 3,
	BaseDelay:   1 * time.Second,
}

// ShouldRetry reports whether another attempt is allowed after the given
// attempt failed with the given classification.
func (p Policy) ShouldRetry(c *fault.Classified, attempt int) bool {
	if c == nil || !c.Retryable {
		return false
	}
	return attempt < p.MaxAttempts
}

// BackoffDelay computes the pause after attempt n fails. Delays double per
// attempt with up to 10% positive jitter and never exceed MaxBackoff.
func (p Policy) BackoffDelay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	base := p.BaseDelay
	if base <= 0 {
		base = DefaultPolicy.BaseDelay
	}

	delay := float64(base) * math.Pow(2, float64(attempt-1))
	delay *= 1 + rand.Float64()*0.1
	if delay > float64(MaxBackoff) {
		return MaxBackoff
	}
	return time.Duration(delay)
}

// Sleep waits for the given delay unless the context ends first.
func Sleep(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
