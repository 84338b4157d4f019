package logging

import (
	"log/slog"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Init configures the global slog logger.
// In production (APP_ENV=production) it uses JSON output for log aggregation.
// Otherwise it uses the human-readable text handler.
func Init() {
	env := strings.ToLower(os.Getenv("APP_ENV"))

	var handler slog.Handler
	if env == "production" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})
	}

	slog.SetDefault(slog.New(handler))
}

// NewCatalogLogger returns the structured logger used by the catalog fetch
// subsystem. JSON in production, colored text otherwise.
func NewCatalogLogger() *logrus.Logger {
	logger := logrus.New()
	if strings.ToLower(os.Getenv("APP_ENV")) == "production" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
		logger.SetLevel(logrus.DebugLevel)
	}
	return logger
}

// WithSession returns a logger with funnel session fields attached.
// Use this for all logging within a session dispatch.
func WithSession(sessionID string, stage string) *slog.Logger {
	return slog.With(
		"session_id", sessionID,
		"stage", stage,
	)
}

// WithSearch returns a logger scoped to one matching-pipeline run.
func WithSearch(logger *slog.Logger, dataset, method string) *slog.Logger {
	return logger.With(
		"dataset", dataset,
		"search_method", method,
	)
}
