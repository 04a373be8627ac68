package app

import (
	"log/slog"
	"os"
	"strings"

	"shopflow-tracking/internal/logx"
)

// NewLogger returns the JSON stdout logger. LOG_LEVEL picks the level, info by default.
func NewLogger() logx.Logger {
	level := slog.LevelInfo
	if v := strings.TrimSpace(os.Getenv("LOG_LEVEL")); v != "" {
		_ = level.UnmarshalText([]byte(v))
	}
	base := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	return logx.NewSlogAdapter(base).With(logx.String("service", "service-tracking"))
}
