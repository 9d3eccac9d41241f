package authorization

import (
	"context"
	"strings"
)

type roleKey struct{}

// WithRole stores the caller's org role in the context.
func WithRole(ctx context.Context, role string) context.Context {
	return context.WithValue(ctx, roleKey{}, strings.ToLower(strings.TrimSpace(role)))
}

// RoleFromContext returns the caller's role, defaulting to owner. The app is
// built for a single operator; multi-user installs set the role upstream.
func RoleFromContext(ctx context.Context) string {
	if role, ok := ctx.Value(roleKey{}).(string); ok && role != "" {
		return role
	}
	return "owner"
}
