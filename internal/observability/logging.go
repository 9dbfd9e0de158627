// Package observability provides logging, metrics, and tracing.
package observability

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger to provide specialized logging methods.
type Logger struct {
	*slog.Logger
}

// GlobalLogger is the default logger instance for the application.
var GlobalLogger *Logger

func init() {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	GlobalLogger = &Logger{Logger: slog.New(handler)}
}

// RepoLogger provides structured logging for repository operations.
type RepoLogger struct {
	collection string
	logger     *Logger
}

// NewRepoLogger creates a new RepoLogger for the given collection.
func NewRepoLogger(collection string) *RepoLogger {
	return &RepoLogger{collection: collection, logger: GlobalLogger}
}

// LogCreate logs a repository create operation.
func (l *RepoLogger) LogCreate(ctx context.Context, id string) {
	l.logger.InfoContext(ctx, "repository create",
		slog.String("collection", l.collection),
		slog.String("id", id),
	)
}

// LogMutation logs a named mutation against an entity.
func (l *RepoLogger) LogMutation(ctx context.Context, operation, id string) {
	l.logger.InfoContext(ctx, "repository mutation",
		slog.String("collection", l.collection),
		slog.String("operation", operation),
		slog.String("id", id),
	)
}

// LogError logs a repository error.
func (l *RepoLogger) LogError(ctx context.Context, err error, operation string) {
	l.logger.ErrorContext(ctx, "repository error",
		slog.String("collection", l.collection),
		slog.String("operation", operation),
		slog.String("error", err.Error()),
	)
}

// WSLogger provides structured logging for WebSocket operations.
type WSLogger struct {
	hubName string
	logger  *Logger
}

// NewWSLogger creates a new WSLogger for the given hub.
func NewWSLogger(hubName string) *WSLogger {
	return &WSLogger{hubName: hubName, logger: GlobalLogger}
}

// LogConnect logs a WebSocket connection event.
func (l *WSLogger) LogConnect(ctx context.Context, userID string) {
	l.logger.InfoContext(ctx, "websocket connected",
		slog.String("hub", l.hubName),
		slog.String("user_id", userID),
	)
}

// LogDisconnect logs a WebSocket disconnection event.
func (l *WSLogger) LogDisconnect(ctx context.Context, userID string, reason string) {
	l.logger.InfoContext(ctx, "websocket disconnected",
		slog.String("hub", l.hubName),
		slog.String("user_id", userID),
		slog.String("reason", reason),
	)
}

// LogError logs a WebSocket error event.
func (l *WSLogger) LogError(ctx context.Context, userID string, err error, eventType string) {
	l.logger.ErrorContext(ctx, "websocket error",
		slog.String("hub", l.hubName),
		slog.String("user_id", userID),
		slog.String("event_type", eventType),
		slog.String("error", err.Error()),
	)
}
