// Package auth extracts the caller's identity from bearer tokens so
// request handling can key on the authenticated user. It verifies, it
// never issues; token issuance lives with the identity provider.
package auth

import (
	"context"
)

// Identity is the authenticated caller.
type Identity struct {
	UserID string
	Role   string
}

type contextKey struct{}

// WithIdentity returns a context carrying the identity.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// FromContext returns the identity attached to the context, if any.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(contextKey{}).(Identity)
	return id, ok
}
