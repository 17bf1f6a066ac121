package httputil

import (
	"context"
	"log/slog"
	"net/http"

	"narreyes/internal/domain/models"
)

// Context key type to avoid collisions
type contextKey string

const (
	identityKey  contextKey = "identity"
	requestIDKey contextKey = "requestID"
	loggerKey    contextKey = "logger"
)

// WithIdentity adds the session identity to the request context
func WithIdentity(r *http.Request, id models.Identity) *http.Request {
	ctx := context.WithValue(r.Context(), identityKey, id)
	return r.WithContext(ctx)
}

// GetIdentity retrieves the session identity; ok is false on public routes
func GetIdentity(r *http.Request) (models.Identity, bool) {
	id, ok := r.Context().Value(identityKey).(models.Identity)
	return id, ok
}

// WithRequestID stores the request id and a logger tagged with it
func WithRequestID(r *http.Request, requestID string, logger *slog.Logger) *http.Request {
	ctx := context.WithValue(r.Context(), requestIDKey, requestID)
	ctx = context.WithValue(ctx, loggerKey, logger.With("request_id", requestID))
	return r.WithContext(ctx)
}

// GetRequestID returns the request id, or "" outside the RequestID middleware
func GetRequestID(r *http.Request) string {
	id, _ := r.Context().Value(requestIDKey).(string)
	return id
}

// Logger returns the request-scoped logger, falling back to fallback
func Logger(r *http.Request, fallback *slog.Logger) *slog.Logger {
	if l, ok := r.Context().Value(loggerKey).(*slog.Logger); ok {
		return l
	}
	return fallback
}
