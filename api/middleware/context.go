package middleware

import (
	"context"

	"github.com/google/uuid"

	"github.com/pizzapalace/backend/pkg/enums"
)

type contextKey string

const (
	ctxUserID    contextKey = "user_id"
	ctxUserRole  contextKey = "user_role"
	ctxCartToken contextKey = "cart_token"
)

// WithUserID stamps the authenticated user's ID onto the context.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, ctxUserID, userID)
}

// WithUserRole stamps the authenticated user's role onto the context.
func WithUserRole(ctx context.Context, role string) context.Context {
	return context.WithValue(ctx, ctxUserRole, role)
}

// WithCartToken stamps the session cart token onto the context.
func WithCartToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, ctxCartToken, token)
}

// UserIDFromContext returns the authenticated user's ID, if any.
func UserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	raw, ok := ctx.Value(ctxUserID).(string)
	if !ok || raw == "" {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// RoleFromContext returns the authenticated user's role, if any.
func RoleFromContext(ctx context.Context) (enums.UserRole, bool) {
	raw, ok := ctx.Value(ctxUserRole).(string)
	if !ok || raw == "" {
		return "", false
	}
	return enums.UserRole(raw), true
}

// CartTokenFromContext returns the cart token the session middleware seeded.
func CartTokenFromContext(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(ctxCartToken).(string)
	return token, ok && token != ""
}
