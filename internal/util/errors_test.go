package util

import (
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLogAndSanitizeErrorHidesDetail(t *testing.T) {
	err := errors.New("pq: connection refused at 10.0.0.5:5432")

	message, errorID := LogAndSanitizeError(slog.Default(), err, "stats refresh", "")

	assert.Len(t, errorID, 8)
	assert.NotContains(t, message, "10.0.0.5")
	assert.Contains(t, message, "stats refresh failed")
	assert.Contains(t, message, errorID)
}

func TestLogAndSanitizeErrorCustomMessage(t *testing.T) {
	message, errorID := LogAndSanitizeError(slog.Default(), errors.New("boom"), "token exchange", "OAuth authorization failed. Please try again.")

	assert.Contains(t, message, "OAuth authorization failed. Please try again.")
	assert.Contains(t, message, errorID)
	assert.NotContains(t, message, "boom")
}

func TestErrorIDsAreUnique(t *testing.T) {
	_, first := LogAndSanitizeError(slog.Default(), errors.New("a"), "op", "")
	_, second := LogAndSanitizeError(slog.Default(), errors.New("b"), "op", "")

	assert.NotEqual(t, first, second)
}
