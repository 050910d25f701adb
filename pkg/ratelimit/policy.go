package ratelimit

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"time"
)

// FailMode selects what a scope does when the limiter cannot evaluate a
// decision (internal failure, circuit open).
type FailMode int

const (
	// FailOpen admits the request and logs. Used for availability-critical
	// traffic where under-limiting is cheaper than an outage.
	FailOpen FailMode = iota

	// FailClosed rejects the request. Used for sensitive scopes (auth,
	// blockchain operations) where unlimited traffic during a limiter
	// outage is the worse failure.
	FailClosed
)

// String returns "open" or "closed".
func (m FailMode) String() string {
	if m == FailClosed {
		return "closed"
	}
	return "open"
}

// KeyFunc derives the rate limit key from a request. The default derivation
// is the client IP; scopes can key on the authenticated user or a
// sub-resource instead.
type KeyFunc func(r *http.Request) (string, error)

// Canonical scope names. Handlers reference scopes by these names; the
// registry rejects lookups for anything unregistered at startup.
const (
	ScopeGeneral    = "general"
	ScopeAuth       = "auth"
	ScopeAI         = "ai_generation"
	ScopeUpload     = "upload"
	ScopeBlockchain = "blockchain"
	ScopeUser       = "user"
	ScopePlaylist   = "playlist"
)

// ScopePolicy is the immutable configuration of one protected scope.
type ScopePolicy struct {
	// Name identifies the scope ("auth", "upload", ...).
	Name string

	// Window is the fixed-window duration.
	Window time.Duration

	// Max is the maximum number of admitted requests per key per window.
	Max int

	// KeyFunc derives the limit key from the request. Required.
	KeyFunc KeyFunc

	// Message is the human-readable rejection message.
	Message string

	// ErrorCode is the machine-readable rejection code, e.g.
	// "AUTH_RATE_LIMIT_EXCEEDED".
	ErrorCode string

	// FailMode selects fail-open or fail-closed behavior on internal
	// failure.
	FailMode FailMode
}

// Validate reports the first configuration problem, or nil. The registry
// validates every policy at startup so a malformed scope can never surface
// at request time.
func (p ScopePolicy) Validate() error {
	if p.Name == "" {
		return errors.New("scope name is required")
	}
	if p.Window <= 0 {
		return fmt.Errorf("scope %q: window must be positive, got %s", p.Name, p.Window)
	}
	if p.Max <= 0 {
		return fmt.Errorf("scope %q: max must be positive, got %d", p.Name, p.Max)
	}
	if p.KeyFunc == nil {
		return fmt.Errorf("scope %q: key function is required", p.Name)
	}
	if p.ErrorCode == "" {
		return fmt.Errorf("scope %q: error code is required", p.Name)
	}
	return nil
}

// ErrLimiterUnavailable is returned by ScopedLimiter.Check alongside a
// synthesized Decision when the limiter could not evaluate; the Decision
// already reflects the scope's FailMode.
var ErrLimiterUnavailable = errors.New("rate limiter unavailable")

// ScopedLimiter binds one policy to an algorithm and a circuit breaker.
type ScopedLimiter struct {
	policy  ScopePolicy
	algo    Algorithm
	breaker *CircuitBreaker
	metrics Metrics
	clock   Clock
}

// NewScopedLimiter creates a limiter for the given policy. The policy must
// already be validated. A nil metrics or clock falls back to no-op metrics
// and the system clock; a nil breaker disables circuit breaking.
func NewScopedLimiter(policy ScopePolicy, algo Algorithm, breaker *CircuitBreaker, metrics Metrics, clock Clock) *ScopedLimiter {
	if metrics == nil {
		metrics = &NoOpMetrics{}
	}
	if clock == nil {
		clock = &SystemClock{}
	}
	return &ScopedLimiter{
		policy:  policy,
		algo:    algo,
		breaker: breaker,
		metrics: metrics,
		clock:   clock,
	}
}

// Policy returns the limiter's scope policy.
func (l *ScopedLimiter) Policy() ScopePolicy {
	return l.policy
}

// Check evaluates the request against the scope's policy.
//
// On success the error is nil and the Decision is authoritative. When the
// limiter cannot evaluate — key derivation failed, the algorithm errored, or
// the circuit is open — Check returns a Decision synthesized from the
// scope's FailMode together with ErrLimiterUnavailable (or the underlying
// error); callers log the error and honor the Decision.
func (l *ScopedLimiter) Check(r *http.Request) (*Decision, error) {
	start := l.clock.Now()

	key, err := l.policy.KeyFunc(r)
	if err != nil {
		return l.degradedDecision(""), fmt.Errorf("derive key for scope %q: %w", l.policy.Name, err)
	}

	if l.breaker != nil && !l.breaker.ShouldAttempt() {
		return l.degradedDecision(key), ErrLimiterUnavailable
	}

	decision, err := l.algo.Allow(key, l.policy.Max, l.policy.Window)
	l.metrics.RecordCheckDuration(l.policy.Name, l.clock.Now().Sub(start))

	if err != nil {
		if l.breaker != nil {
			l.breaker.RecordFailure()
		}
		return l.degradedDecision(key), fmt.Errorf("check scope %q: %w", l.policy.Name, err)
	}
	if l.breaker != nil {
		l.breaker.RecordSuccess()
	}

	decision.Scope = l.policy.Name
	if decision.Allowed {
		l.metrics.RecordAllowed(l.policy.Name, r.URL.Path)
	} else {
		l.metrics.RecordDenied(l.policy.Name, r.URL.Path)
	}
	return decision, nil
}

// ActiveKeys reports how many keys the underlying algorithm tracks.
func (l *ScopedLimiter) ActiveKeys() int {
	return l.algo.ActiveKeys()
}

// Cleanup evicts algorithm state idle since cutoff and returns the number
// of entries removed. The active-keys gauge is refreshed here rather than
// on the check hot path.
func (l *ScopedLimiter) Cleanup(cutoff time.Time) int {
	removed := l.algo.Cleanup(cutoff)
	l.metrics.SetActiveKeys(l.policy.Name, l.algo.ActiveKeys())
	return removed
}

// degradedDecision builds the FailMode-driven substitute for a decision the
// limiter could not compute.
func (l *ScopedLimiter) degradedDecision(key string) *Decision {
	now := l.clock.Now()
	return &Decision{
		Key:       key,
		Scope:     l.policy.Name,
		Allowed:   l.policy.FailMode == FailOpen,
		Limit:     l.policy.Max,
		Remaining: 0,
		ResetAt:   now.Add(l.policy.Window),
		Degraded:  true,
	}
}

// Registry holds one ScopedLimiter per scope. It is constructed once at
// startup and passed by reference to the middleware; there is no package
// global.
type Registry struct {
	limiters map[string]*ScopedLimiter
}

// NewRegistry builds a registry from the given limiters, validating every
// policy and rejecting duplicates. Any error here is a ConfigurationError:
// startup must abort.
func NewRegistry(limiters ...*ScopedLimiter) (*Registry, error) {
	reg := &Registry{limiters: make(map[string]*ScopedLimiter, len(limiters))}
	for _, l := range limiters {
		if err := l.policy.Validate(); err != nil {
			return nil, fmt.Errorf("invalid rate limit policy: %w", err)
		}
		if _, dup := reg.limiters[l.policy.Name]; dup {
			return nil, fmt.Errorf("duplicate rate limit scope %q", l.policy.Name)
		}
		reg.limiters[l.policy.Name] = l
	}
	return reg, nil
}

// Get returns the limiter for a scope. An unknown scope is a wiring bug and
// returns an error so the caller can fail fast rather than silently skip
// limiting.
func (r *Registry) Get(scope string) (*ScopedLimiter, error) {
	l, ok := r.limiters[scope]
	if !ok {
		return nil, fmt.Errorf("no rate limit policy registered for scope %q", scope)
	}
	return l, nil
}

// MustGet returns the limiter for a scope and panics on an unknown scope.
// Used during route wiring, where the scope set is static.
func (r *Registry) MustGet(scope string) *ScopedLimiter {
	l, err := r.Get(scope)
	if err != nil {
		panic(err)
	}
	return l
}

// Scopes returns the registered scope names in sorted order.
func (r *Registry) Scopes() []string {
	names := make([]string, 0, len(r.limiters))
	for name := range r.limiters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
