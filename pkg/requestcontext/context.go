// Package requestcontext provides HTTP-independent context accessors for
// request-scoped values.
//
// Middleware sets these values; services read them. Keeping the package free
// of net/http lets services depend on the actor identity without pulling in
// transport code.
//
// Usage in services (read values):
//
//	actorID := requestcontext.UserID(ctx)
//	role := requestcontext.Role(ctx)
//	now := requestcontext.Now(ctx)
//
// Usage in middleware (set values):
//
//	ctx = requestcontext.WithUserID(ctx, actorID)
//	ctx = requestcontext.WithRequestID(ctx, requestID)
//
// Usage in tests (inject values):
//
//	ctx = requestcontext.WithTime(ctx, fixedTime)
package requestcontext

import (
	"context"
	"time"

	id "solidarlink/pkg/domain"
)

// Context key types (unexported for encapsulation).
type (
	userIDKey      struct{}
	roleKey        struct{}
	tokenIDKey     struct{}
	requestIDKey   struct{}
	requestTimeKey struct{}
)

// WithUserID stores the authenticated actor's ID.
func WithUserID(ctx context.Context, userID id.UserID) context.Context {
	return context.WithValue(ctx, userIDKey{}, userID)
}

// UserID returns the authenticated actor's ID, or the zero ID when absent.
func UserID(ctx context.Context) id.UserID {
	userID, ok := ctx.Value(userIDKey{}).(id.UserID)
	if !ok {
		return id.UserID{}
	}
	return userID
}

// WithRole stores the authenticated actor's role.
func WithRole(ctx context.Context, role id.Role) context.Context {
	return context.WithValue(ctx, roleKey{}, role)
}

// Role returns the authenticated actor's role, or empty when absent.
func Role(ctx context.Context) id.Role {
	role, ok := ctx.Value(roleKey{}).(id.Role)
	if !ok {
		return ""
	}
	return role
}

// WithTokenID stores the JWT ID of the credential used for this request, so
// logout can revoke it.
func WithTokenID(ctx context.Context, jti string) context.Context {
	return context.WithValue(ctx, tokenIDKey{}, jti)
}

// TokenID returns the JWT ID for this request, or empty when absent.
func TokenID(ctx context.Context) string {
	jti, ok := ctx.Value(tokenIDKey{}).(string)
	if !ok {
		return ""
	}
	return jti
}

// WithRequestID stores the correlation ID for this request.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// RequestID returns the correlation ID, or empty when absent.
func RequestID(ctx context.Context) string {
	requestID, ok := ctx.Value(requestIDKey{}).(string)
	if !ok {
		return ""
	}
	return requestID
}

// WithTime pins the request time, letting tests control the clock seen by
// services.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, requestTimeKey{}, t)
}

// Now returns the pinned request time, falling back to time.Now.
func Now(ctx context.Context) time.Time {
	t, ok := ctx.Value(requestTimeKey{}).(time.Time)
	if !ok {
		return time.Now()
	}
	return t
}
