package gqlauth

import (
	"context"
)

var userCtxKey = &contextKey{"user"}
var tokenCtxKey = &contextKey{"access_token"}

type contextKey struct {
	name string
}

// WithContext sets the authenticated user in the given context
func WithContext(r context.Context, user UserRef) context.Context {
	return context.WithValue(r, userCtxKey, user)
}

// FromContext finds the authenticated user from the context.
func FromContext(ctx context.Context) (UserRef, bool) {
	raw, ok := ctx.Value(userCtxKey).(UserRef)
	return raw, ok
}

// WithTokenContext sets the decoded access token in the given context
func WithTokenContext(r context.Context, token AccessToken) context.Context {
	return context.WithValue(r, tokenCtxKey, token)
}

// TokenFromContext extracts the decoded access token from the context
func TokenFromContext(ctx context.Context) (AccessToken, bool) {
	raw, ok := ctx.Value(tokenCtxKey).(AccessToken)
	return raw, ok
}
