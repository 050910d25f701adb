package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrNoToken means the request carried no bearer token at all.
	ErrNoToken = errors.New("no bearer token")

	// ErrInvalidToken covers every verification failure: bad signature,
	// expired, malformed, wrong algorithm. Callers must not distinguish
	// these to the client.
	ErrInvalidToken = errors.New("invalid token")
)

// Verifier validates HS256 bearer tokens and extracts the caller identity
// from the sub and role claims.
type Verifier struct {
	secret []byte
}

// NewVerifier creates a verifier for the given signing secret.
func NewVerifier(secret []byte) (*Verifier, error) {
	if len(secret) == 0 {
		return nil, errors.New("jwt secret must not be empty")
	}
	return &Verifier{secret: secret}, nil
}

// VerifyRequest extracts and verifies the bearer token on the request.
// A missing Authorization header returns ErrNoToken; anything that fails
// verification returns an error wrapping ErrInvalidToken.
func (v *Verifier) VerifyRequest(r *http.Request) (Identity, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return Identity{}, ErrNoToken
	}
	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return Identity{}, ErrNoToken
	}
	return v.Verify(raw)
}

// Verify validates the raw token string and returns the identity.
func (v *Verifier) Verify(raw string) (Identity, error) {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		// Restricting to HS256 closes the algorithm confusion hole where
		// an attacker submits an unsigned or asymmetric token.
		if t.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return v.secret, nil
	})
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !token.Valid {
		return Identity{}, ErrInvalidToken
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return Identity{}, fmt.Errorf("%w: missing subject claim", ErrInvalidToken)
	}

	role, _ := claims["role"].(string)
	return Identity{UserID: sub, Role: role}, nil
}
