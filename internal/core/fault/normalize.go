package fault

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"time"

	"github.com/vietddude/predictdash/internal/core/domain"
)

// Normalize converts any failure into a Classified value. It is total: nil
// and unrecognized causes still produce a usable result. extra is merged
// over whatever context the cause carried.
//
// Classification order matters. Cancellation wins over everything because a
// cancelled request aborts its transport mid-flight and would otherwise look
// like a network failure; deadline expiry is checked next for the same
// reason.
func Normalize(cause error, extra map[string]any) *Classified {
	now := time.Now().UTC()

	if cause == nil {
		return &Classified{
			Kind:      KindUnknown,
			Code:      CodeUnknown,
			Message:   "unknown failure",
			Timestamp: now,
			Context:   mergeContext(nil, extra),
		}
	}

	// Already classified: keep it, merging any new context.
	var classified *Classified
	if errors.As(cause, &classified) {
		if len(extra) == 0 {
			return classified
		}
		merged := *classified
		merged.Context = mergeContext(classified.Context, extra)
		return &merged
	}

	if errors.Is(cause, context.Canceled) {
		return &Classified{
			Kind:      KindCancelled,
			Code:      CodeCancelled,
			Message:   "request cancelled",
			Timestamp: now,
			Context:   mergeContext(nil, extra),
			cause:     cause,
		}
	}

	if errors.Is(cause, context.DeadlineExceeded) {
		return &Classified{
			Kind:      KindTimeout,
			Code:      CodeTimeout,
			Message:   "request timed out",
			Retryable: true,
			Timestamp: now,
			Context:   mergeContext(nil, extra),
			cause:     cause,
		}
	}

	var validation *domain.ValidationError
	if errors.As(cause, &validation) {
		return &Classified{
			Kind:      KindValidation,
			Code:      validation.Code,
			Message:   validation.Message,
			Timestamp: now,
			Context:   mergeContext(nil, extra),
			cause:     cause,
		}
	}

	var status *StatusError
	if errors.As(cause, &status) {
		return &Classified{
			Kind:       KindAPI,
			Code:       status.Code,
			Message:    status.Message,
			HTTPStatus: status.Status,
			Retryable:  RetryableStatus(status.Status),
			Timestamp:  now,
			Context:    mergeContext(status.Context, extra),
			cause:      cause,
		}
	}

	var urlErr *url.Error
	var netErr net.Error
	if errors.As(cause, &urlErr) || errors.As(cause, &netErr) {
		return &Classified{
			Kind:      KindNetwork,
			Code:      CodeNetworkError,
			Message:   "network request failed",
			Retryable: true,
			Timestamp: now,
			Context:   mergeContext(nil, extra),
			cause:     cause,
		}
	}

	return &Classified{
		Kind:      KindUnknown,
		Code:      CodeUnknown,
		Message:   cause.Error(),
		Timestamp: now,
		Context:   mergeContext(nil, extra),
		cause:     cause,
	}
}

// NormalizeValue classifies a recovered panic value or any other non-error
// failure. String values keep their text as the message.
func NormalizeValue(v any, extra map[string]any) *Classified {
	switch val := v.(type) {
	case nil:
		return Normalize(nil, extra)
	case error:
		return Normalize(val, extra)
	case string:
		return Normalize(errors.New(val), extra)
	default:
		return Normalize(fmt.Errorf("%v", val), extra)
	}
}

func mergeContext(base, extra map[string]any) map[string]any {
	if len(base) == 0 && len(extra) == 0 {
		return nil
	}
	merged := make(map[string]any, len(base)+len(extra))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range extra {
		merged[k] = v
	}
	return merged
}
