package ratelimit

import (
	"fmt"
	"time"
)

// Decision is the result of a rate limit check.
//
// It carries everything the HTTP layer needs to answer the client: whether
// the request is admitted, how many requests remain in the current window,
// and when the window resets.
type Decision struct {
	// Key is the identifier the limiter counted against (client IP, user ID).
	Key string

	// Scope names the policy that produced this decision ("auth", "upload", ...).
	Scope string

	// Allowed reports whether the request is within the limit.
	Allowed bool

	// Limit is the maximum number of requests allowed in the window.
	Limit int

	// Remaining is the number of requests left in the current window.
	// Zero means the limit has been reached.
	Remaining int

	// ResetAt is when the current window ends and the counter resets.
	ResetAt time.Time

	// RetryAfter is how long the client should wait before retrying.
	RetryAfter time.Duration

	// Degraded marks a decision synthesized by the failure policy rather
	// than computed from counter state (see ScopePolicy.FailMode).
	Degraded bool
}

// String returns a compact human-readable form, used in debug logs.
func (d *Decision) String() string {
	return fmt.Sprintf("Decision{scope=%s key=%s allowed=%t remaining=%d/%d reset=%s}",
		d.Scope, d.Key, d.Allowed, d.Remaining, d.Limit, d.ResetAt.Format(time.RFC3339))
}

// ResetAtUnix returns the reset time as epoch seconds, for the
// X-RateLimit-Reset header.
func (d *Decision) ResetAtUnix() int64 {
	return d.ResetAt.Unix()
}

// RetryAfterSeconds returns the retry delay in whole seconds, clamped at
// zero, for the Retry-After header and the retryAfter body field.
func (d *Decision) RetryAfterSeconds() int64 {
	s := int64(d.RetryAfter.Seconds())
	if s < 0 {
		return 0
	}
	return s
}

func newAllowedDecision(key string, limit, remaining int, resetAt time.Time) *Decision {
	return &Decision{
		Key:       key,
		Allowed:   true,
		Limit:     limit,
		Remaining: remaining,
		ResetAt:   resetAt,
	}
}

func newDeniedDecision(key string, limit int, now, resetAt time.Time) *Decision {
	retryAfter := resetAt.Sub(now)
	if retryAfter < 0 {
		retryAfter = 0
	}
	return &Decision{
		Key:        key,
		Allowed:    false,
		Limit:      limit,
		Remaining:  0,
		ResetAt:    resetAt,
		RetryAfter: retryAfter,
	}
}
