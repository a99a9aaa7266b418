package adapters

import (
	"context"
	"io"
	"log/slog"
	"math"
)

// SlogLoggerAdapter implements LoggerAdapter on top of log/slog.
type SlogLoggerAdapter struct {
	logger *slog.Logger
}

// Ensure SlogLoggerAdapter implements LoggerAdapter interface
var _ LoggerAdapter = (*SlogLoggerAdapter)(nil)

// NewSlogLoggerAdapter wraps logger, tagging every record with component=gameanalytics.
func NewSlogLoggerAdapter(logger *slog.Logger) *SlogLoggerAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogLoggerAdapter{logger: logger.With("component", "gameanalytics")}
}

// NewJSONLoggerAdapter writes JSON records at or above level to w.
func NewJSONLoggerAdapter(w io.Writer, level LogLevel) *SlogLoggerAdapter {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slogLevel(level)})
	return NewSlogLoggerAdapter(slog.New(handler))
}

func slogLevel(level LogLevel) slog.Level {
	switch level {
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelInfo:
		return slog.LevelInfo
	case LogLevelError:
		return slog.LevelError
	case LogLevelNone:
		return slog.Level(math.MaxInt32)
	default:
		return slog.LevelWarn
	}
}

func (s *SlogLoggerAdapter) Debug(message string, args ...any) {
	s.logger.Log(context.Background(), slog.LevelDebug, message, args...)
}

func (s *SlogLoggerAdapter) Info(message string, args ...any) {
	s.logger.Log(context.Background(), slog.LevelInfo, message, args...)
}

func (s *SlogLoggerAdapter) Warn(message string, args ...any) {
	s.logger.Log(context.Background(), slog.LevelWarn, message, args...)
}

func (s *SlogLoggerAdapter) Error(message string, args ...any) {
	s.logger.Log(context.Background(), slog.LevelError, message, args...)
}
