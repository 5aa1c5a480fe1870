package util

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

// LogAndSanitizeError logs the full error server-side and returns a client
// message that carries only a short correlation ID, never the underlying
// failure detail.
func LogAndSanitizeError(logger *slog.Logger, err error, context string, userMessage string) (string, string) {
	errorID := uuid.NewString()[:8]

	logger.Error(context+" failed",
		slog.String("error_id", errorID),
		slog.Any("error", err),
	)

	if userMessage == "" {
		userMessage = context + " failed. Please try again later."
	}
	return fmt.Sprintf("%s (Error ID: %s)", userMessage, errorID), errorID
}
