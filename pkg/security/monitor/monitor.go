package monitor

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"flowtune/pkg/ratelimit"
)

// Config is the static alerting configuration, read once at startup.
type Config struct {
	// Thresholds maps each event type to the count that triggers an
	// alert. Event types absent from the map never alert.
	Thresholds map[EventType]int

	// AlertCooldown bounds both alert frequency (no re-fire for the same
	// type and source within the cooldown) and counter lifetime (a
	// counter expires one cooldown after its last event, so a source
	// that goes quiet is re-evaluated against a fresh baseline).
	AlertCooldown time.Duration
}

// Validate reports the first configuration problem, or nil.
func (c Config) Validate() error {
	if c.AlertCooldown <= 0 {
		return fmt.Errorf("alert cooldown must be positive, got %s", c.AlertCooldown)
	}
	for event, threshold := range c.Thresholds {
		if threshold <= 0 {
			return fmt.Errorf("threshold for %q must be positive, got %d", event, threshold)
		}
	}
	return nil
}

type counterKey struct {
	event  EventType
	source string
}

type alertCounter struct {
	count       int
	lastSeen    time.Time
	lastAlertAt time.Time
}

// Monitor aggregates security events into alerts and tracks suspicious
// source identities. All methods are safe for concurrent use; none of
// them perform I/O beyond structured logging, so they can sit on the
// request hot path.
type Monitor struct {
	config  Config
	clock   ratelimit.Clock
	logger  *slog.Logger
	metrics Metrics

	mu         sync.Mutex
	counters   map[counterKey]*alertCounter
	suspicious map[string]struct{}
	lastAlerts map[EventType]Alert
}

// NewMonitor creates a monitor. The config must already be validated. A
// nil clock, logger, or metrics falls back to the system clock, the
// default slog logger, and no-op metrics.
func NewMonitor(config Config, clock ratelimit.Clock, logger *slog.Logger, metrics Metrics) *Monitor {
	if clock == nil {
		clock = &ratelimit.SystemClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = &NoOpMetrics{}
	}
	return &Monitor{
		config:     config,
		clock:      clock,
		logger:     logger,
		metrics:    metrics,
		counters:   make(map[counterKey]*alertCounter),
		suspicious: make(map[string]struct{}),
		lastAlerts: make(map[EventType]Alert),
	}
}

// Record logs a security event and feeds it into alert aggregation.
// It is fire-and-forget: it never blocks on anything slower than a
// mutex and never fails the originating request.
func (m *Monitor) Record(event EventType, details map[string]any, ctx RequestContext) {
	attrs := []any{
		slog.String("event_type", string(event)),
		slog.String("ip", ctx.IP),
		slog.String("method", ctx.Method),
		slog.String("path", ctx.Path),
		slog.String("user_agent", ctx.UserAgent),
	}
	if ctx.UserID != "" {
		attrs = append(attrs, slog.String("user_id", ctx.UserID))
	}
	for k, v := range details {
		attrs = append(attrs, slog.Any(k, v))
	}
	m.logger.Warn("security event", attrs...)
	m.metrics.RecordEvent(string(event))

	outcome := m.Observe(event, ctx.IP)
	if outcome.Fired {
		m.logger.Error("security alert",
			slog.String("event_type", string(event)),
			slog.String("ip", ctx.IP),
			slog.String("severity", string(outcome.Severity)),
		)
	}
}

// Observe counts one event for (event, sourceKey) and decides whether an
// alert fires. An alert fires when the count reaches the configured
// threshold and no alert for the same pair has fired within the
// cooldown. While a source stays active past the cooldown its count
// keeps accumulating, so a re-fire reports escalated severity; a source
// quiet for one cooldown loses its counter and starts from a fresh
// baseline. Firing marks the source suspicious.
func (m *Monitor) Observe(event EventType, sourceKey string) AlertOutcome {
	threshold, ok := m.config.Thresholds[event]
	if !ok {
		return AlertOutcome{}
	}
	now := m.clock.Now()

	m.mu.Lock()
	defer m.mu.Unlock()

	key := counterKey{event: event, source: sourceKey}
	c, exists := m.counters[key]
	if exists && now.Sub(c.lastSeen) >= m.config.AlertCooldown {
		delete(m.counters, key)
		exists = false
	}
	if !exists {
		c = &alertCounter{}
		m.counters[key] = c
	}
	c.count++
	c.lastSeen = now

	if c.count < threshold {
		return AlertOutcome{}
	}
	if !c.lastAlertAt.IsZero() && now.Sub(c.lastAlertAt) < m.config.AlertCooldown {
		return AlertOutcome{}
	}

	c.lastAlertAt = now
	severity := severityFor(c.count, threshold)
	m.suspicious[sourceKey] = struct{}{}
	m.lastAlerts[event] = Alert{
		EventType: event,
		SourceKey: sourceKey,
		Count:     c.count,
		Severity:  severity,
		FiredAt:   now.Unix(),
	}
	m.metrics.RecordAlert(string(event), string(severity))
	m.metrics.SetSuspiciousIPs(len(m.suspicious))

	return AlertOutcome{Fired: true, Severity: severity}
}

// IsSuspicious reports whether the source key has triggered at least one
// alert. Suspicion is advisory: consumers log or tighten policy, they do
// not block on it.
func (m *Monitor) IsSuspicious(sourceKey string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.suspicious[sourceKey]
	return ok
}

// Snapshot is the operator-facing view of monitor state.
type Snapshot struct {
	SuspiciousIPs []string            `json:"suspiciousIPs"`
	AlertCounts   map[string]int      `json:"alertCounts"`
	LastAlerts    map[EventType]Alert `json:"lastAlerts"`
}

// Snapshot returns a copy of the current state for the operator surface.
func (m *Monitor) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	ips := make([]string, 0, len(m.suspicious))
	for ip := range m.suspicious {
		ips = append(ips, ip)
	}
	sort.Strings(ips)

	counts := make(map[string]int, len(m.counters))
	for key, c := range m.counters {
		counts[string(key.event)+":"+key.source] = c.count
	}

	alerts := make(map[EventType]Alert, len(m.lastAlerts))
	for event, alert := range m.lastAlerts {
		alerts[event] = alert
	}

	return Snapshot{SuspiciousIPs: ips, AlertCounts: counts, LastAlerts: alerts}
}

// ClearSuspiciousIPs removes every entry from the suspicious set.
// Suspicion has no automatic expiry, so this is the only way entries
// leave within a process lifetime.
func (m *Monitor) ClearSuspiciousIPs() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := len(m.suspicious)
	m.suspicious = make(map[string]struct{})
	m.metrics.SetSuspiciousIPs(0)
	return n
}

// ResetAlertCounts discards all alert counters and last-alert records.
func (m *Monitor) ResetAlertCounts() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := len(m.counters)
	m.counters = make(map[counterKey]*alertCounter)
	m.lastAlerts = make(map[EventType]Alert)
	return n
}

// Sweep evicts counters idle for at least one cooldown and returns the
// number removed. Observe already expires counters lazily on access; the
// sweep bounds memory for sources that go quiet.
func (m *Monitor) Sweep() int {
	now := m.clock.Now()

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for key, c := range m.counters {
		if now.Sub(c.lastSeen) >= m.config.AlertCooldown {
			delete(m.counters, key)
			removed++
		}
	}
	return removed
}
