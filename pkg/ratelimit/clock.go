// Package ratelimit implements the layered rate-limiting engine that sits in
// front of all API handlers.
//
// The engine is built from pluggable pieces: a fixed-window counter store, an
// algorithm that turns counter state into admission decisions, a scope policy
// registry that binds one limiter per protected traffic class, and a circuit
// breaker that applies the per-scope failure policy when the engine itself
// cannot evaluate a decision.
package ratelimit

import "time"

// Clock abstracts time operations so window arithmetic can be tested with a
// controlled clock instead of the system time.
type Clock interface {
	// Now returns the current time.
	Now() time.Time
}

// SystemClock is the production Clock backed by time.Now.
type SystemClock struct{}

// Now returns the current system time.
func (c *SystemClock) Now() time.Time {
	return time.Now()
}
