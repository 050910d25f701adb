package responsewriter

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrap_Defaults(t *testing.T) {
	wrapped := Wrap(httptest.NewRecorder())

	assert.Equal(t, http.StatusOK, wrapped.StatusCode())
	assert.Equal(t, 0, wrapped.BytesWritten())
}

func TestResponseWriter_WriteHeader(t *testing.T) {
	rec := httptest.NewRecorder()
	wrapped := Wrap(rec)

	wrapped.WriteHeader(http.StatusTooManyRequests)

	assert.Equal(t, http.StatusTooManyRequests, wrapped.StatusCode())
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	// A second call must not overwrite the recorded status.
	wrapped.WriteHeader(http.StatusNotFound)
	assert.Equal(t, http.StatusTooManyRequests, wrapped.StatusCode())
}

func TestResponseWriter_Write(t *testing.T) {
	rec := httptest.NewRecorder()
	wrapped := Wrap(rec)

	n1, err := wrapped.Write([]byte(`{"success":`))
	require.NoError(t, err)
	n2, err := wrapped.Write([]byte(`true}`))
	require.NoError(t, err)

	assert.Equal(t, n1+n2, wrapped.BytesWritten())
	assert.Equal(t, `{"success":true}`, rec.Body.String())
	// Write without an explicit WriteHeader implies 200.
	assert.Equal(t, http.StatusOK, wrapped.StatusCode())
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestResponseWriter_Unwrap(t *testing.T) {
	rec := httptest.NewRecorder()
	assert.Equal(t, http.ResponseWriter(rec), Wrap(rec).Unwrap())
}

func TestResponseWriter_MiddlewarePattern(t *testing.T) {
	var status, bytes int
	middleware := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			wrapped := Wrap(w)
			next.ServeHTTP(wrapped, r)
			status = wrapped.StatusCode()
			bytes = wrapped.BytesWritten()
		})
	}

	handler := middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("not found"))
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/tracks/42", nil))

	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, len("not found"), bytes)
}
