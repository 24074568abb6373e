package logger

import (
	"log/slog"
	"os"
	"strings"
)

// New constructs the JSON slog logger shared by every component.
func New() *slog.Logger {
	level := parseLevel(os.Getenv("LOG_LEVEL"))
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:     level,
		AddSource: strings.EqualFold(os.Getenv("LOG_SOURCE"), "true"),
	})
	return slog.New(handler).With("service", serviceName())
}

func serviceName() string {
	if v := strings.TrimSpace(os.Getenv("SERVICE_NAME")); v != "" {
		return v
	}
	return "codify"
}

func parseLevel(level string) slog.Leveler {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
