// Package monitor records typed security events, escalates them into
// alerts with cooldown semantics, and tracks which source identities have
// turned suspicious.
package monitor

// EventType identifies a category of security event. Types without a
// configured threshold are recorded and logged but never alert.
type EventType string

const (
	EventFailedLogin          EventType = "failed_login_attempts"
	EventRateLimitExceeded    EventType = "rate_limit_exceeded"
	EventSuspiciousFileUpload EventType = "suspicious_file_uploads"
	EventBlockchainError      EventType = "blockchain_errors"
	EventSuspiciousActivity   EventType = "suspicious_activity"
)

// Severity grades a fired alert by how far the event count has run past
// its threshold.
type Severity string

const (
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

// severityFor maps an event count to a severity. Counts below threshold
// never reach this function; the LOW branch is unreachable in practice
// but completes the mapping.
func severityFor(count, threshold int) Severity {
	switch {
	case count >= 3*threshold:
		return SeverityCritical
	case count >= 2*threshold:
		return SeverityHigh
	case count >= threshold:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// RequestContext carries the request attributes attached to every
// recorded event.
type RequestContext struct {
	IP        string
	UserAgent string
	Path      string
	Method    string
	UserID    string
}

// AlertOutcome reports what Observe did with one event.
type AlertOutcome struct {
	// Fired is true when this event caused an alert.
	Fired bool

	// Severity is set only when Fired is true.
	Severity Severity
}

// Alert is a fired alert as exposed on the operator snapshot.
type Alert struct {
	EventType EventType `json:"eventType"`
	SourceKey string    `json:"sourceKey"`
	Count     int       `json:"count"`
	Severity  Severity  `json:"severity"`
	FiredAt   int64     `json:"firedAt"`
}
