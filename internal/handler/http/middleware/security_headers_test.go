package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"flowtune/pkg/security/csp"
)

func TestSecurityHeaders(t *testing.T) {
	handler := SecurityHeaders(nil)(okHandler())

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/tracks", nil))

	headers := w.Header()
	if got := headers.Get("Content-Security-Policy"); got == "" {
		t.Error("Content-Security-Policy header not set")
	}
	if got := headers.Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q, want nosniff", got)
	}
	if got := headers.Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("X-Frame-Options = %q, want DENY", got)
	}
	if got := headers.Get("Referrer-Policy"); got != "no-referrer" {
		t.Errorf("Referrer-Policy = %q, want no-referrer", got)
	}
}

func TestSecurityHeaders_CustomPolicy(t *testing.T) {
	policy := csp.NewBuilder().DefaultSrc("'self'").MediaSrc("'self'", "https://media.example.com")
	handler := SecurityHeaders(policy)(okHandler())

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/tracks/8f2c", nil))

	want := "default-src 'self'; media-src 'self' https://media.example.com"
	if got := w.Header().Get("Content-Security-Policy"); got != want {
		t.Errorf("Content-Security-Policy = %q, want %q", got, want)
	}
}
