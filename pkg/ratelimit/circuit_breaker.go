package ratelimit

import (
	"log/slog"
	"sync"
	"time"
)

// CircuitState represents the current state of the circuit breaker.
type CircuitState int

const (
	// StateClosed is the normal operating state; checks run normally.
	StateClosed CircuitState = iota

	// StateOpen means the limiter has failed repeatedly; checks are skipped
	// and the scope's FailMode decides whether requests are admitted.
	StateOpen

	// StateHalfOpen lets one check through to test recovery.
	StateHalfOpen
)

// String returns a string representation of the circuit state.
func (s CircuitState) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreakerConfig holds configuration for the circuit breaker.
type CircuitBreakerConfig struct {
	// FailureThreshold is the number of consecutive failures required to
	// open the circuit. Default: 10.
	FailureThreshold int

	// RecoveryTimeout is how long to wait in open state before attempting
	// recovery. Default: 30 seconds.
	RecoveryTimeout time.Duration

	// Clock provides time abstraction for testing. Default: SystemClock.
	Clock Clock

	// Scope names the limiter this breaker protects, for logs and metrics.
	Scope string

	// Metrics records circuit state changes. Default: NoOpMetrics.
	Metrics Metrics
}

// CircuitBreaker protects the request hot path from a failing limiter.
//
// Unlike a breaker wrapping an outbound dependency, tripping here does not
// substitute a fallback response: it only stops invoking the limiter, and
// the scope's FailMode determines whether requests pass during the outage.
// Availability-critical scopes fail open; sensitive scopes (auth, blockchain
// operations) fail closed.
type CircuitBreaker struct {
	config CircuitBreakerConfig

	mu                  sync.Mutex
	state               CircuitState
	consecutiveFailures int
	lastStateChange     time.Time
}

// NewCircuitBreaker creates a circuit breaker, applying defaults for any
// zero config values.
func NewCircuitBreaker(config CircuitBreakerConfig) *CircuitBreaker {
	if config.FailureThreshold <= 0 {
		config.FailureThreshold = 10
	}
	if config.RecoveryTimeout <= 0 {
		config.RecoveryTimeout = 30 * time.Second
	}
	if config.Clock == nil {
		config.Clock = &SystemClock{}
	}
	if config.Metrics == nil {
		config.Metrics = &NoOpMetrics{}
	}

	cb := &CircuitBreaker{
		config:          config,
		state:           StateClosed,
		lastStateChange: config.Clock.Now(),
	}
	config.Metrics.RecordCircuitState(config.Scope, cb.state.String())
	return cb
}

// ShouldAttempt reports whether the limiter check should run. In open state
// it returns false until the recovery timeout elapses, at which point the
// circuit moves to half-open and one attempt is let through.
func (cb *CircuitBreaker) ShouldAttempt() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == StateOpen {
		if cb.config.Clock.Now().Sub(cb.lastStateChange) >= cb.config.RecoveryTimeout {
			cb.transitionLocked(StateHalfOpen)
			return true
		}
		return false
	}
	return true
}

// RecordSuccess resets the failure count; in half-open state it closes the
// circuit.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.consecutiveFailures = 0
	if cb.state != StateClosed {
		cb.transitionLocked(StateClosed)
	}
}

// RecordFailure counts a failed check; at the threshold, or on any failure
// in half-open state, the circuit opens.
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.consecutiveFailures++
	if cb.state == StateHalfOpen || (cb.state == StateClosed && cb.consecutiveFailures >= cb.config.FailureThreshold) {
		cb.transitionLocked(StateOpen)
	}
}

// State returns the current circuit state.
func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Reset forces the circuit back to closed. Used by tests and manual
// intervention.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.consecutiveFailures = 0
	if cb.state != StateClosed {
		cb.transitionLocked(StateClosed)
	}
}

// transitionLocked changes state and records the change. Called with the
// mutex held.
func (cb *CircuitBreaker) transitionLocked(next CircuitState) {
	prev := cb.state
	cb.state = next
	cb.lastStateChange = cb.config.Clock.Now()
	cb.config.Metrics.RecordCircuitState(cb.config.Scope, next.String())

	slog.Warn("circuit breaker state changed",
		slog.String("scope", cb.config.Scope),
		slog.String("previous_state", prev.String()),
		slog.String("new_state", next.String()),
		slog.Int("consecutive_failures", cb.consecutiveFailures),
	)
}
