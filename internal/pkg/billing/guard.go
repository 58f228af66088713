package billing

import (
	"sync"
	"time"
)

// DefaultStaleAfter bounds how long a session may sit in the in-flight map
// before a fresh verification attempt is allowed to take over.
const DefaultStaleAfter = 30 * time.Second

// Clock returns the current time; injected so guard behavior is testable.
type Clock func() time.Time

// ProcessGuard tracks checkout sessions handled within this process: a set of
// fully processed sessions and a map of sessions currently being verified.
//
// This is a latency optimization, not the source of truth. Correctness holds
// with the guard empty (fresh process, or a second instance behind a load
// balancer) because the payment ledger enforces uniqueness at the storage
// layer.
type ProcessGuard struct {
	mu         sync.Mutex
	completed  map[string]struct{}
	inFlight   map[string]time.Time
	staleAfter time.Duration
	now        Clock
}

// NewProcessGuard creates a guard with the given staleness threshold and clock.
func NewProcessGuard(staleAfter time.Duration, now Clock) *ProcessGuard {
	if staleAfter <= 0 {
		staleAfter = DefaultStaleAfter
	}
	if now == nil {
		now = time.Now
	}
	return &ProcessGuard{
		completed:  make(map[string]struct{}),
		inFlight:   make(map[string]time.Time),
		staleAfter: staleAfter,
		now:        now,
	}
}

// IsCompleted reports whether this process already fully handled the session.
func (g *ProcessGuard) IsCompleted(sessionID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.completed[sessionID]
	return ok
}

// TryBeginProcessing registers the session as in flight. If another attempt is
// already running and not yet stale, it returns ok=false together with that
// attempt's start time. A stale entry is treated as abandoned: the start time
// is reset and ok=true is returned so the caller may retry.
func (g *ProcessGuard) TryBeginProcessing(sessionID string) (bool, time.Time) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	if startedAt, ok := g.inFlight[sessionID]; ok {
		if now.Sub(startedAt) < g.staleAfter {
			return false, startedAt
		}
		// Previous attempt appears stuck; allow this caller to proceed.
	}
	g.inFlight[sessionID] = now
	return true, now
}

// FinishProcessing removes the in-flight marker and, on success, records the
// session as completed.
func (g *ProcessGuard) FinishProcessing(sessionID string, succeeded bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	delete(g.inFlight, sessionID)
	if succeeded {
		g.completed[sessionID] = struct{}{}
	}
}
