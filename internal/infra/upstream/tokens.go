package upstream

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// tokenRegistry tracks the cancel function of every in-flight request so
// the whole set can be aborted at once.
type tokenRegistry struct {
	mu     sync.Mutex
	tokens map[string]context.CancelFunc
}

func newTokenRegistry() *tokenRegistry {
	return &tokenRegistry{tokens: make(map[string]context.CancelFunc)}
}

// Register derives a cancellable context and tracks its cancel function
// under a fresh token.
func (r *tokenRegistry) Register(ctx context.Context) (context.Context, string) {
	ctx, cancel := context.WithCancel(ctx)
	token := uuid.New().String()

	r.mu.Lock()
	r.tokens[token] = cancel
	r.mu.Unlock()

	return ctx, token
}

// Release drops a token once its request finished, cancelling the derived
// context to free its resources. Safe to call after CancelAll.
func (r *tokenRegistry) Release(token string) {
	r.mu.Lock()
	cancel, ok := r.tokens[token]
	delete(r.tokens, token)
	r.mu.Unlock()

	if ok {
		cancel()
	}
}

// CancelAll aborts every in-flight request. Idempotent: an empty registry
// is a no-op.
func (r *tokenRegistry) CancelAll() {
	r.mu.Lock()
	cancels := make([]context.CancelFunc, 0, len(r.tokens))
	for token, cancel := range r.tokens {
		cancels = append(cancels, cancel)
		delete(r.tokens, token)
	}
	r.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
	}
}

// Len reports how many requests are in flight.
func (r *tokenRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tokens)
}
