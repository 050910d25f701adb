// Package observability provides structured logging and OpenTelemetry
// tracing infrastructure.
//
// Subpackages:
//   - logging: Structured logging utilities with slog
//   - tracing: OpenTelemetry tracing integration
//
// Prometheus metrics are owned by the components they measure; each
// component exposes its registry and the server aggregates them on the
// metrics endpoint.
package observability
