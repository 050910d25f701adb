// Package logging provides structured logging built on log/slog: JSON
// output with the level taken from the environment, and a helper that
// enriches a logger with the request ID from the context.
package logging
