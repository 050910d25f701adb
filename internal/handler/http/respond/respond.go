// Package respond provides utilities for sending HTTP responses in JSON format.
// Error responses use a fixed envelope with a machine-readable code and a
// human message; internal details never leak to the client.
package respond

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
)

// Envelope is the response shape for every non-2xx body and for 2xx
// bodies that carry no domain payload.
type Envelope struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// JSON writes a JSON response with the given status code and data.
func JSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if v != nil {
		if err := json.NewEncoder(w).Encode(v); err != nil {
			// Headers are already sent, so the error can only be logged.
			slog.Default().Error("failed to encode JSON response",
				slog.Int("status_code", code),
				slog.Any("error", err))
		}
	}
}

// OK writes a 200 with success true and the given payload.
func OK(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, Envelope{Success: true, Data: data})
}

// Fail writes an error response with a machine-readable code and a human
// message. The message must already be safe for clients.
func Fail(w http.ResponseWriter, code int, errorCode, message string) {
	JSON(w, code, Envelope{Success: false, Error: errorCode, Message: message})
}

// InternalError logs the underlying error with secrets masked and returns
// a generic 500 body. Counter state, stack traces, and error chains stay
// server-side.
func InternalError(w http.ResponseWriter, err error) {
	slog.Default().Error("internal server error",
		slog.String("error", SanitizeError(err)))
	Fail(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred.")
}

// RateLimited writes the 429 contract: the envelope plus retryAfter in
// seconds, with the standard Retry-After header.
func RateLimited(w http.ResponseWriter, errorCode, message string, retryAfter int64) {
	if retryAfter < 0 {
		retryAfter = 0
	}
	w.Header().Set("Retry-After", strconv.FormatInt(retryAfter, 10))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)

	body := struct {
		Success    bool   `json:"success"`
		Error      string `json:"error"`
		Message    string `json:"message"`
		RetryAfter int64  `json:"retryAfter"`
	}{
		Success:    false,
		Error:      errorCode,
		Message:    message,
		RetryAfter: retryAfter,
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Default().Error("failed to encode rate limit response",
			slog.Any("error", err))
	}
}
