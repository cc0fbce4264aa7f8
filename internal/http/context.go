package http

import (
	"context"
	"log/slog"

	"github.com/example/shift-attendance/internal/application"
	"github.com/example/shift-attendance/internal/logging"
)

type contextKey string

const (
	principalContextKey    contextKey = "principal"
	clockEventIDContextKey contextKey = "clock_event_id"
	storeIDContextKey      contextKey = "store_id"
	staffIDContextKey      contextKey = "staff_id"
)

// ContextWithPrincipal returns a derived context containing the authenticated principal.
func ContextWithPrincipal(ctx context.Context, principal application.Principal) context.Context {
	return context.WithValue(ctx, principalContextKey, principal)
}

// PrincipalFromContext extracts the authenticated principal from context if available.
func PrincipalFromContext(ctx context.Context) (application.Principal, bool) {
	principal, ok := ctx.Value(principalContextKey).(application.Principal)
	return principal, ok
}

// ContextWithClockEventID injects the clock event identifier resolved from the request path.
func ContextWithClockEventID(ctx context.Context, eventID string) context.Context {
	return context.WithValue(ctx, clockEventIDContextKey, eventID)
}

// ClockEventIDFromContext extracts a clock event identifier previously associated with the context.
func ClockEventIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(clockEventIDContextKey).(string)
	return id, ok
}

// ContextWithStoreID injects the store identifier resolved from the request path.
func ContextWithStoreID(ctx context.Context, storeID string) context.Context {
	return context.WithValue(ctx, storeIDContextKey, storeID)
}

// StoreIDFromContext extracts a store identifier previously associated with the context.
func StoreIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(storeIDContextKey).(string)
	return id, ok
}

// ContextWithStaffID injects the staff identifier resolved from the request path.
func ContextWithStaffID(ctx context.Context, staffID string) context.Context {
	return context.WithValue(ctx, staffIDContextKey, staffID)
}

// StaffIDFromContext extracts a staff identifier previously associated with the context.
func StaffIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(staffIDContextKey).(string)
	return id, ok
}

// ContextWithLogger attaches a request scoped logger to the context.
func ContextWithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return logging.ContextWithLogger(ctx, logger)
}

// LoggerFromContext extracts the request scoped logger, if any.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx)
}
