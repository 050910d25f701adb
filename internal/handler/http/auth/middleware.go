package auth

import (
	"errors"
	"log/slog"
	"net/http"
)

// Middleware attaches the verified identity to the request context.
//
// It is non-blocking on purpose: an anonymous request passes through
// without an identity, and downstream consumers (per-user rate limit
// keys, audit logs) fall back to the client IP. An invalid token is
// logged but does not fail the request either, because enforcement
// belongs to the handlers that actually require authentication.
func Middleware(verifier *Verifier, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := verifier.VerifyRequest(r)
			switch {
			case err == nil:
				r = r.WithContext(WithIdentity(r.Context(), id))
			case errors.Is(err, ErrNoToken):
				// Anonymous request.
			default:
				logger.Warn("bearer token rejected",
					slog.String("path", r.URL.Path),
					slog.String("error", err.Error()),
				)
			}
			next.ServeHTTP(w, r)
		})
	}
}
