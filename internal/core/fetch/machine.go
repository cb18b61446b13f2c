// Package fetch drives the load/refresh/error lifecycle for one kind of
// dashboard data. The prediction and history views each run one Machine
// instance; the type is generic so both share a single implementation.
package fetch

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/vietddude/predictdash/internal/core/domain"
	"github.com/vietddude/predictdash/internal/core/fault"
	"github.com/vietddude/predictdash/internal/metrics"
)

// FetchFunc loads the value for a raw ticker. Failures should already be
// classified; anything else is normalized on the way in.
type FetchFunc[T any] func(ctx context.Context, ticker string) (T, error)

// Machine owns the fetch lifecycle state.
//
// All state lives behind one mutex. Every fetch runs in its own goroutine
// and reports back through apply, which drops results whose issue number is
// no longer current: the newest issued fetch wins regardless of response
// arrival order. Close flips a terminal flag, after which no state mutation
// is possible.
type Machine[T any] struct {
	name      string
	fetch     FetchFunc[T]
	cancelAll func()
	log       *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu         sync.Mutex
	state      State[T]
	seq        uint64
	lastTicker string
	closed     bool
	watchers   map[int]chan State[T]
	nextWatch  int
}

// NewMachine creates an idle machine. cancelAll runs on Close to abort the
// owning client's in-flight requests; pass nil when there is nothing to
// cancel.
func NewMachine[T any](name string, fetchFn FetchFunc[T], cancelAll func(), log *slog.Logger) *Machine[T] {
	if cancelAll == nil {
		cancelAll = func() {}
	}
	if log == nil {
		log = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Machine[T]{
		name:      name,
		fetch:     fetchFn,
		cancelAll: cancelAll,
		log:       log,
		ctx:       ctx,
		cancel:    cancel,
		state:     State[T]{Phase: PhaseIdle, UpdatedAt: time.Now().UTC()},
		watchers:  make(map[int]chan State[T]),
	}
}

// Fetch starts loading data for a ticker. Any visible error is dismissed
// immediately, and results of earlier fetches can no longer win.
func (m *Machine[T]) Fetch(rawTicker string) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}

	m.seq++
	issue := m.seq
	m.lastTicker = rawTicker

	m.state.Err = nil
	m.state.ErrMessage = ""
	m.state.Ticker = domain.Ticker(domain.NormalizeSymbol(rawTicker))
	if m.state.Data == nil {
		m.setPhaseLocked(PhaseLoading)
	} else {
		m.setPhaseLocked(PhaseRefreshing)
	}
	m.notifyLocked()
	m.mu.Unlock()

	go m.run(issue, rawTicker)
}

// Retry re-issues the most recent fetch. No-op before the first Fetch.
func (m *Machine[T]) Retry() {
	m.mu.Lock()
	ticker := m.lastTicker
	closed := m.closed
	m.mu.Unlock()

	if closed || ticker == "" {
		return
	}
	m.Fetch(ticker)
}

// ClearError dismisses the visible error without fetching. Prior data is
// untouched.
func (m *Machine[T]) ClearError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}

	m.state.Err = nil
	m.state.ErrMessage = ""
	if m.state.Phase == PhaseError {
		m.setPhaseLocked(PhaseIdle)
	}
	m.notifyLocked()
}

// Snapshot returns a copy of the current state.
func (m *Machine[T]) Snapshot() State[T] {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Subscribe registers a watcher channel that receives state snapshots.
// Sends never block: a slow consumer misses intermediate states rather
// than stalling the machine. The returned func unsubscribes.
func (m *Machine[T]) Subscribe() (<-chan State[T], func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextWatch
	m.nextWatch++
	ch := make(chan State[T], 8)
	if m.closed {
		close(ch)
		return ch, func() {}
	}
	m.watchers[id] = ch

	return ch, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if _, ok := m.watchers[id]; ok {
			delete(m.watchers, id)
			close(ch)
		}
	}
}

// Close tears the machine down: in-flight requests are aborted, watcher
// channels close, and no state mutation can happen afterwards. Idempotent.
func (m *Machine[T]) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	for id, ch := range m.watchers {
		delete(m.watchers, id)
		close(ch)
	}
	m.mu.Unlock()

	m.cancel()
	m.cancelAll()
}

func (m *Machine[T]) run(issue uint64, rawTicker string) {
	defer func() {
		if r := recover(); r != nil {
			m.apply(issue, nil, fault.NormalizeValue(r, map[string]any{"machine": m.name}))
		}
	}()

	value, err := m.fetch(m.ctx, rawTicker)
	if err != nil {
		m.apply(issue, nil, fault.Normalize(err, nil))
		return
	}
	m.apply(issue, &value, nil)
}

// apply merges one fetch outcome into state. Outcomes of superseded fetches
// and outcomes arriving after Close are dropped.
func (m *Machine[T]) apply(issue uint64, value *T, cerr *fault.Classified) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed || issue != m.seq {
		m.log.Debug("Discarding stale fetch result",
			"machine", m.name, "issue", issue, "current", m.seq, "closed", m.closed)
		return
	}

	switch {
	case cerr == nil:
		m.state.Data = value
		m.state.Err = nil
		m.state.ErrMessage = ""
		m.setPhaseLocked(PhaseIdle)

	case cerr.Kind == fault.KindCancelled:
		// A cancelled fetch resolves quietly: no error banner, data as-is.
		m.state.Err = nil
		m.state.ErrMessage = ""
		m.setPhaseLocked(PhaseIdle)

	default:
		m.state.Err = cerr
		m.state.ErrMessage = fault.UserMessage(cerr)
		m.setPhaseLocked(PhaseError)
		m.log.Warn("Fetch failed",
			"machine", m.name, "ticker", m.state.Ticker, "kind", cerr.Kind, "code", cerr.Code, "error", cerr)
	}

	m.notifyLocked()
}

func (m *Machine[T]) setPhaseLocked(p Phase) {
	if m.state.Phase != p {
		metrics.FetchTransitions.WithLabelValues(m.name, string(p)).Inc()
	}
	m.state.Phase = p
	m.state.UpdatedAt = time.Now().UTC()
}

func (m *Machine[T]) notifyLocked() {
	for _, ch := range m.watchers {
		select {
		case ch <- m.state:
		default:
		}
	}
}
