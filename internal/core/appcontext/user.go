// Package appcontext provides request-scoped values extraction.
package appcontext

import (
	"context"
)

// UserContext contains the authenticated cashier's identity.
// It is installed by HTTP middleware and read by the domain layer,
// replacing any ambient/global "current user" accessor.
type UserContext struct {
	UserID   string
	Username string
	Name     string
	Role     string
}

type userContextKey struct{}

// WithUser adds UserContext to context.
func WithUser(ctx context.Context, user *UserContext) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

// GetUser returns UserContext from context.
func GetUser(ctx context.Context) *UserContext {
	if v, ok := ctx.Value(userContextKey{}).(*UserContext); ok {
		return v
	}
	return nil
}

// GetUserID returns the acting cashier's ID from context or empty string.
func GetUserID(ctx context.Context) string {
	if u := GetUser(ctx); u != nil {
		return u.UserID
	}
	return ""
}
