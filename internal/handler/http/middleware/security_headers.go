package middleware

import (
	"net/http"

	"flowtune/pkg/security/csp"
)

// SecurityHeaders returns middleware that sets the standard browser
// hardening headers on every response. A nil policy falls back to the
// strict API policy.
func SecurityHeaders(policy *csp.Builder) func(http.Handler) http.Handler {
	if policy == nil {
		policy = csp.APIPolicy()
	}
	headerName := policy.HeaderName()
	headerValue := policy.Build()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set(headerName, headerValue)
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "DENY")
			h.Set("Referrer-Policy", "no-referrer")
			next.ServeHTTP(w, r)
		})
	}
}
