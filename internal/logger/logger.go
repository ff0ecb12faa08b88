package logger

import (
	"log/slog"
	"os"
	"strings"

	"github.com/digital-wallet-ledger/internal/config"
)

// NewLogger builds the process-wide JSON logger. When the application name
// is configured, every line carries service and env attributes so aggregated
// logs can be separated per deployment.
func NewLogger(cfg *config.Config) *slog.Logger {
	level := parseLevel(cfg.Logging.Level)

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
		// Source locations are only worth the extra bytes while debugging.
		AddSource: level == slog.LevelDebug,
	})

	log := slog.New(handler)
	if cfg.Application.Name != "" {
		log = log.With("service", cfg.Application.Name, "env", cfg.Application.Env)
	}

	log.Info("logger initialized", "level", level.String())
	return log
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
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
