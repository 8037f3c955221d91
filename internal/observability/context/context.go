package context

import (
	"context"
	"strings"
)

type requestIDKey struct{}
type actingUserKey struct{}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, strings.TrimSpace(requestID))
}

func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	value, _ := ctx.Value(requestIDKey{}).(string)
	return value
}

// WithActingUser stores the opaque user string supplied by the caller.
func WithActingUser(ctx context.Context, user string) context.Context {
	return context.WithValue(ctx, actingUserKey{}, strings.TrimSpace(user))
}

func ActingUserFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	value, _ := ctx.Value(actingUserKey{}).(string)
	return value
}
