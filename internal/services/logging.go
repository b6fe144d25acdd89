package services

import (
	"context"
	"log/slog"
	"time"
)

// ServiceLogger provides structured logging for service layer operations
type ServiceLogger struct {
	logger *slog.Logger
}

func NewServiceLogger(logger *slog.Logger, component string) *ServiceLogger {
	return &ServiceLogger{
		logger: logger.With("service", "analytics-service", "component", component),
	}
}

// LogOperation records the outcome of one service call with its duration.
// Validation failures log at warn, store failures at error, everything else
// at info.
func (l *ServiceLogger) LogOperation(ctx context.Context, operation, userID string, duration time.Duration, err error) {
	attrs := []any{
		"operation", operation,
		"user_id", userID,
		"duration", duration,
	}

	switch {
	case err == nil:
		attrs = append(attrs, "status", "success")
		l.logger.InfoContext(ctx, "Service operation completed", attrs...)
	case IsValidation(err):
		attrs = append(attrs, "status", "validation_error", "error", err.Error())
		l.logger.WarnContext(ctx, "Service operation rejected", attrs...)
	case IsStoreError(err):
		attrs = append(attrs, "status", "store_error", "error", err.Error())
		l.logger.ErrorContext(ctx, "Service operation failed", attrs...)
	case IsNotFound(err):
		attrs = append(attrs, "status", "not_found")
		l.logger.InfoContext(ctx, "Service operation completed", attrs...)
	default:
		attrs = append(attrs, "status", "error", "error", err.Error())
		l.logger.ErrorContext(ctx, "Service operation failed", attrs...)
	}
}
