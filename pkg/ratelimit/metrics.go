package ratelimit

import "time"

// Metrics records rate limiting observability signals. Implementations must
// be safe for concurrent use; the limiter calls them on the hot path.
type Metrics interface {
	// RecordAllowed records an admitted request for a scope and path.
	RecordAllowed(scope, path string)

	// RecordDenied records a rate limit rejection for a scope and path.
	RecordDenied(scope, path string)

	// RecordCheckDuration records how long one rate limit check took.
	RecordCheckDuration(scope string, duration time.Duration)

	// SetActiveKeys records the current number of tracked keys for a scope.
	SetActiveKeys(scope string, count int)

	// RecordCircuitState records the circuit breaker state for a scope.
	RecordCircuitState(scope, state string)
}

// NoOpMetrics is the Metrics implementation used when metrics collection is
// disabled, and in tests.
type NoOpMetrics struct{}

// NewNoOpMetrics creates a new NoOpMetrics instance.
func NewNoOpMetrics() *NoOpMetrics {
	return &NoOpMetrics{}
}

func (m *NoOpMetrics) RecordAllowed(scope, path string)                       {}
func (m *NoOpMetrics) RecordDenied(scope, path string)                        {}
func (m *NoOpMetrics) RecordCheckDuration(scope string, d time.Duration)      {}
func (m *NoOpMetrics) SetActiveKeys(scope string, count int)                  {}
func (m *NoOpMetrics) RecordCircuitState(scope, state string)                 {}
