package http

import (
	"net/http"

	"flowtune/internal/handler/http/respond"
)

// InputValidation returns middleware that enforces structural request
// limits before any parsing happens:
// - Authorization header size (8KB)
// - URI path length (2KB)
// - Request body size (10MB)
func InputValidation() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// JWT tokens are typically < 1KB; allow headroom.
			if len(r.Header.Get("Authorization")) > 8192 {
				respond.Fail(w, http.StatusBadRequest,
					"VALIDATION_ERROR", "Authorization header too large.")
				return
			}

			if len(r.URL.Path) > 2048 {
				respond.Fail(w, http.StatusRequestURITooLong,
					"VALIDATION_ERROR", "Request URI too long.")
				return
			}

			r.Body = http.MaxBytesReader(w, r.Body, 10<<20)
			next.ServeHTTP(w, r)
		})
	}
}
