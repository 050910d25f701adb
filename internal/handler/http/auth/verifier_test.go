package auth

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var testSecret = []byte("test-signing-secret")

func signToken(t *testing.T, secret []byte, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func TestNewVerifier_EmptySecret(t *testing.T) {
	if _, err := NewVerifier(nil); err == nil {
		t.Error("NewVerifier(nil) error = nil, want error")
	}
}

func TestVerifier_Verify(t *testing.T) {
	verifier, err := NewVerifier(testSecret)
	if err != nil {
		t.Fatalf("NewVerifier: %v", err)
	}

	t.Run("valid token", func(t *testing.T) {
		raw := signToken(t, testSecret, jwt.MapClaims{
			"sub":  "user-42",
			"role": "admin",
			"exp":  time.Now().Add(time.Hour).Unix(),
		})
		id, err := verifier.Verify(raw)
		if err != nil {
			t.Fatalf("Verify: %v", err)
		}
		if id.UserID != "user-42" || id.Role != "admin" {
			t.Errorf("identity = %+v, want user-42/admin", id)
		}
	})

	t.Run("expired token", func(t *testing.T) {
		raw := signToken(t, testSecret, jwt.MapClaims{
			"sub": "user-42",
			"exp": time.Now().Add(-time.Hour).Unix(),
		})
		if _, err := verifier.Verify(raw); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("Verify error = %v, want ErrInvalidToken", err)
		}
	})

	t.Run("wrong secret", func(t *testing.T) {
		raw := signToken(t, []byte("other-secret"), jwt.MapClaims{
			"sub": "user-42",
			"exp": time.Now().Add(time.Hour).Unix(),
		})
		if _, err := verifier.Verify(raw); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("Verify error = %v, want ErrInvalidToken", err)
		}
	})

	t.Run("missing subject", func(t *testing.T) {
		raw := signToken(t, testSecret, jwt.MapClaims{
			"exp": time.Now().Add(time.Hour).Unix(),
		})
		if _, err := verifier.Verify(raw); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("Verify error = %v, want ErrInvalidToken", err)
		}
	})

	t.Run("unsigned token rejected", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "user-42"})
		raw, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
		if err != nil {
			t.Fatalf("sign: %v", err)
		}
		if _, err := verifier.Verify(raw); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("Verify error = %v, want ErrInvalidToken", err)
		}
	})
}

func TestVerifier_VerifyRequest(t *testing.T) {
	verifier, err := NewVerifier(testSecret)
	if err != nil {
		t.Fatalf("NewVerifier: %v", err)
	}

	t.Run("no header", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/api/tracks", nil)
		if _, err := verifier.VerifyRequest(r); !errors.Is(err, ErrNoToken) {
			t.Errorf("VerifyRequest error = %v, want ErrNoToken", err)
		}
	})

	t.Run("non-bearer header", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/api/tracks", nil)
		r.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
		if _, err := verifier.VerifyRequest(r); !errors.Is(err, ErrNoToken) {
			t.Errorf("VerifyRequest error = %v, want ErrNoToken", err)
		}
	})

	t.Run("bearer token", func(t *testing.T) {
		raw := signToken(t, testSecret, jwt.MapClaims{
			"sub": "user-7",
			"exp": time.Now().Add(time.Hour).Unix(),
		})
		r := httptest.NewRequest(http.MethodGet, "/api/tracks", nil)
		r.Header.Set("Authorization", "Bearer "+raw)
		id, err := verifier.VerifyRequest(r)
		if err != nil {
			t.Fatalf("VerifyRequest: %v", err)
		}
		if id.UserID != "user-7" {
			t.Errorf("UserID = %q, want user-7", id.UserID)
		}
	})
}

func TestMiddleware(t *testing.T) {
	verifier, err := NewVerifier(testSecret)
	if err != nil {
		t.Fatalf("NewVerifier: %v", err)
	}
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	var gotIdentity Identity
	var gotOK bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotIdentity, gotOK = FromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	handler := Middleware(verifier, logger)(next)

	t.Run("identity attached for valid token", func(t *testing.T) {
		raw := signToken(t, testSecret, jwt.MapClaims{
			"sub":  "user-9",
			"role": "viewer",
			"exp":  time.Now().Add(time.Hour).Unix(),
		})
		r := httptest.NewRequest(http.MethodGet, "/api/playlists", nil)
		r.Header.Set("Authorization", "Bearer "+raw)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)

		if !gotOK {
			t.Fatal("no identity in context")
		}
		if gotIdentity.UserID != "user-9" || gotIdentity.Role != "viewer" {
			t.Errorf("identity = %+v, want user-9/viewer", gotIdentity)
		}
	})

	t.Run("anonymous request passes through", func(t *testing.T) {
		gotOK = false
		r := httptest.NewRequest(http.MethodGet, "/api/playlists", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)

		if w.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", w.Code)
		}
		if gotOK {
			t.Error("unexpected identity for anonymous request")
		}
	})

	t.Run("invalid token passes through without identity", func(t *testing.T) {
		gotOK = false
		r := httptest.NewRequest(http.MethodGet, "/api/playlists", nil)
		r.Header.Set("Authorization", "Bearer not-a-token")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)

		if w.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", w.Code)
		}
		if gotOK {
			t.Error("unexpected identity for invalid token")
		}
	})
}
