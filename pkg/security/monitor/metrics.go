package monitor

import "github.com/prometheus/client_golang/prometheus"

// Metrics records monitor observability signals.
type Metrics interface {
	// RecordEvent counts one recorded security event by type.
	RecordEvent(eventType string)

	// RecordAlert counts one fired alert by type and severity.
	RecordAlert(eventType, severity string)

	// SetSuspiciousIPs records the current suspicious set size.
	SetSuspiciousIPs(count int)
}

// NoOpMetrics is the Metrics implementation used when metrics collection
// is disabled, and in tests.
type NoOpMetrics struct{}

func (m *NoOpMetrics) RecordEvent(eventType string)           {}
func (m *NoOpMetrics) RecordAlert(eventType, severity string) {}
func (m *NoOpMetrics) SetSuspiciousIPs(count int)             {}

// PrometheusMetrics implements Metrics on a dedicated Prometheus
// registry.
type PrometheusMetrics struct {
	registry      *prometheus.Registry
	eventsTotal   *prometheus.CounterVec
	alertsTotal   *prometheus.CounterVec
	suspiciousIPs prometheus.Gauge
}

// NewPrometheusMetrics creates the metric set on a fresh registry.
func NewPrometheusMetrics() *PrometheusMetrics {
	registry := prometheus.NewRegistry()

	eventsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "security_events_total",
			Help: "Recorded security events by type",
		},
		[]string{"event_type"},
	)

	alertsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "security_alerts_total",
			Help: "Fired security alerts by type and severity",
		},
		[]string{"event_type", "severity"},
	)

	suspiciousIPs := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "security_suspicious_ips",
			Help: "Current number of suspicious source IPs",
		},
	)

	registry.MustRegister(eventsTotal, alertsTotal, suspiciousIPs)

	return &PrometheusMetrics{
		registry:      registry,
		eventsTotal:   eventsTotal,
		alertsTotal:   alertsTotal,
		suspiciousIPs: suspiciousIPs,
	}
}

// Registry returns the Prometheus registry holding all monitor metrics.
func (m *PrometheusMetrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *PrometheusMetrics) RecordEvent(eventType string) {
	m.eventsTotal.WithLabelValues(eventType).Inc()
}

func (m *PrometheusMetrics) RecordAlert(eventType, severity string) {
	m.alertsTotal.WithLabelValues(eventType, severity).Inc()
}

func (m *PrometheusMetrics) SetSuspiciousIPs(count int) {
	m.suspiciousIPs.Set(float64(count))
}
