package dashboard

import (
	"time"

	"github.com/vietddude/predictdash/internal/core/domain"
	"github.com/vietddude/predictdash/internal/core/fault"
	"github.com/vietddude/predictdash/internal/core/fetch"
)

// errorView is the wire form of a classified failure. Message carries the
// user-facing text; kind, code and context are there for diagnostics.
type errorView struct {
	Kind       string         `json:"kind"`
	Code       string         `json:"code"`
	Message    string         `json:"message"`
	HTTPStatus int            `json:"http_status,omitempty"`
	Retryable  bool           `json:"retryable"`
	Context    map[string]any `json:"context,omitempty"`
}

// stateView is the wire form of one machine's state.
type stateView[T any] struct {
	Phase     string     `json:"phase"`
	Ticker    string     `json:"ticker,omitempty"`
	Data      *T         `json:"data,omitempty"`
	Error     *errorView `json:"error,omitempty"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// snapshotView bundles the prediction and history machine states.
type snapshotView struct {
	Prediction stateView[domain.Prediction] `json:"prediction"`
	History    stateView[domain.History]    `json:"history"`
}

func viewOf[T any](st fetch.State[T]) stateView[T] {
	v := stateView[T]{
		Phase:     string(st.Phase),
		Ticker:    st.Ticker.String(),
		Data:      st.Data,
		UpdatedAt: st.UpdatedAt,
	}
	if st.Err != nil {
		v.Error = errorViewOf(st.Err, st.ErrMessage)
	}
	return v
}

func errorViewOf(c *fault.Classified, message string) *errorView {
	return &errorView{
		Kind:       string(c.Kind),
		Code:       c.Code,
		Message:    message,
		HTTPStatus: c.HTTPStatus,
		Retryable:  c.Retryable,
		Context:    c.Context,
	}
}
