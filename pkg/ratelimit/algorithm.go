package ratelimit

import (
	"time"
)

// Algorithm turns counter state into an admission decision for one key.
//
// Implementations must be safe for concurrent use; every request on the hot
// path calls Allow. The error return exists for the failure policy: an
// algorithm that cannot evaluate (corrupted registry, exhausted resources)
// returns a non-nil error and the scope's FailMode decides what happens.
type Algorithm interface {
	// Allow checks and records one request for key under the given policy
	// values. The returned Decision has Key, Allowed, Limit, Remaining,
	// ResetAt and RetryAfter populated; Scope is filled in by the caller.
	Allow(key string, limit int, window time.Duration) (*Decision, error)

	// ActiveKeys reports how many keys the algorithm currently tracks.
	ActiveKeys() int

	// Cleanup evicts state not touched since cutoff and returns the number
	// of entries removed.
	Cleanup(cutoff time.Time) int
}

// FixedWindow is the contractual rate limiting algorithm: a per-key counter
// that hard-resets at each window boundary.
type FixedWindow struct {
	store *WindowStore
	clock Clock
}

// NewFixedWindow creates a fixed-window algorithm over the given store.
// A nil clock falls back to the system clock.
func NewFixedWindow(store *WindowStore, clock Clock) *FixedWindow {
	if store == nil {
		store = NewWindowStore(0)
	}
	if clock == nil {
		clock = &SystemClock{}
	}
	return &FixedWindow{store: store, clock: clock}
}

// Allow admits the request if fewer than limit requests have been counted in
// the window containing now, incrementing the counter on admission.
func (a *FixedWindow) Allow(key string, limit int, window time.Duration) (*Decision, error) {
	now := a.clock.Now()

	allowed, count, windowStart := a.store.Check(key, now, window, limit)
	resetAt := windowStart.Add(window)

	if !allowed {
		return newDeniedDecision(key, limit, now, resetAt), nil
	}
	return newAllowedDecision(key, limit, limit-count, resetAt), nil
}

// ActiveKeys reports the number of tracked counters.
func (a *FixedWindow) ActiveKeys() int {
	return a.store.KeyCount()
}

// Cleanup evicts counters idle since cutoff.
func (a *FixedWindow) Cleanup(cutoff time.Time) int {
	return a.store.Cleanup(cutoff)
}
