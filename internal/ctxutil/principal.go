// Package ctxutil provides context utilities that can be safely imported anywhere.
// This package has no internal dependencies to avoid import cycles.
package ctxutil

import "context"

// OwnerKey is the context key for the acting owner ID.
type OwnerKey struct{}

// CapabilityKey is the context key for the "may manage artifacts" capability.
type CapabilityKey struct{}

// WithOwnerID returns a context with the owner ID embedded.
func WithOwnerID(ctx context.Context, ownerID string) context.Context {
	return context.WithValue(ctx, OwnerKey{}, ownerID)
}

// OwnerFromContext returns the owner ID from context, or empty string if not set.
func OwnerFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(OwnerKey{}).(string); ok {
		return v
	}
	return ""
}

// WithCanManage returns a context carrying the manage capability.
func WithCanManage(ctx context.Context, canManage bool) context.Context {
	return context.WithValue(ctx, CapabilityKey{}, canManage)
}

// CanManageFromContext reports whether the caller may manage artifacts.
// A context without the capability may not.
func CanManageFromContext(ctx context.Context) bool {
	v, _ := ctx.Value(CapabilityKey{}).(bool)
	return v
}

// WithPrincipal embeds both the owner and the capability.
func WithPrincipal(ctx context.Context, ownerID string, canManage bool) context.Context {
	return WithCanManage(WithOwnerID(ctx, ownerID), canManage)
}
