package fetch

import (
	"time"

	"github.com/vietddude/predictdash/internal/core/domain"
	"github.com/vietddude/predictdash/internal/core/fault"
)

// Phase is the lifecycle phase of a fetch machine.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseLoading    Phase = "loading"    // fetching with nothing to show yet
	PhaseRefreshing Phase = "refreshing" // fetching while prior data stays visible
	PhaseError      Phase = "error"
)

// State is a snapshot of a machine. Data survives failed refreshes so
// consumers can render stale values next to the error banner.
type State[T any] struct {
	Phase      Phase
	Data       *T
	Err        *fault.Classified
	ErrMessage string        // user-facing rendering of Err
	Ticker     domain.Ticker // normalized ticker of the last issued fetch
	UpdatedAt  time.Time
}

// Loading reports whether a fetch is in flight.
func (s State[T]) Loading() bool {
	return s.Phase == PhaseLoading || s.Phase == PhaseRefreshing
}
