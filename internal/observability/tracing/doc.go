// Package tracing integrates OpenTelemetry distributed tracing: a server
// middleware that continues incoming W3C trace context and a shared
// tracer for creating spans elsewhere in the application.
package tracing
