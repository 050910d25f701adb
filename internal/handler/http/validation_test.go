package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestInputValidation(t *testing.T) {
	handler := InputValidation()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("normal request passes", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/api/tracks", nil)
		r.Header.Set("Authorization", "Bearer short-token")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)

		if w.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", w.Code)
		}
	})

	t.Run("oversized authorization header rejected", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/api/tracks", nil)
		r.Header.Set("Authorization", "Bearer "+strings.Repeat("a", 9000))
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)

		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", w.Code)
		}
	})

	t.Run("oversized path rejected", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/api/"+strings.Repeat("x", 2100), nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)

		if w.Code != http.StatusRequestURITooLong {
			t.Errorf("status = %d, want 414", w.Code)
		}
	})
}
