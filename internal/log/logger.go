// Package log содержит настройку slog для приложений.
package log

import (
	"io"
	"log/slog"
	"strings"
)

// ParseLevel переводит уровень из конфигурации в slog.Level. Неизвестные значения дают info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger создает логгер с маскировкой номеров. format: "text" или "json" (по умолчанию).
func NewLogger(level, format string, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}

	var handler slog.Handler
	switch format {
	case "text":
		handler = slog.NewTextHandler(w, opts)
	default:
		handler = slog.NewJSONHandler(w, opts)
	}

	return NewMaskedLogger(handler)
}
