package logger

import (
	"log/slog"
	"os"

	"recoveryregister/internal/platform/config"
)

// New returns the process logger: JSON in production so log shippers get
// structured records, text in development. Handlers must never pass raw
// credentials or unmasked identifiers as attributes.
func New(env string) *slog.Logger {
	if env == config.EnvProduction {
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}
