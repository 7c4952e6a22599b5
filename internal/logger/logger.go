// Package logger builds the zap logger used for diagnostics and carries it
// in a context.
package logger

import (
	"context"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"monori/internal/core"
)

type loggerKey struct{}

// WithLogger stores logger in ctx.
func WithLogger(ctx context.Context, logger *zap.SugaredLogger) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, loggerKey{}, logger)
}

// GetLogger returns the logger stored in ctx, or a no-op logger.
func GetLogger(ctx context.Context) *zap.SugaredLogger {
	if ctx != nil {
		if logger, ok := ctx.Value(loggerKey{}).(*zap.SugaredLogger); ok {
			return logger
		}
	}
	return zap.NewNop().Sugar()
}

// NewLogger builds a console logger writing to writer.
func NewLogger(writer zapcore.WriteSyncer, level zapcore.LevelEnabler, opts ...zap.Option) *zap.SugaredLogger {
	encoderCfg := zapcore.EncoderConfig{
		TimeKey:        "ts",
		MessageKey:     "msg",
		LevelKey:       "level",
		NameKey:        "logger",
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeName:     zapcore.FullNameEncoder,
	}
	c := zapcore.NewCore(zapcore.NewConsoleEncoder(encoderCfg), writer, level)
	return zap.New(c, opts...).Sugar()
}

// NewStderrLogger is NewLogger on stderr at the named level.
func NewStderrLogger(level string) *zap.SugaredLogger {
	return NewLogger(zapcore.Lock(os.Stderr), GetLogLevel(level))
}

// GetLogLevel maps a level name to a zap level; unknown names are info.
func GetLogLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	}
	return zapcore.InfoLevel
}

// LogSink writes progress events to a logger: starts at debug, completions
// at info with the verdict attached.
type LogSink struct {
	Logger *zap.SugaredLogger
}

func (s LogSink) Emit(ev core.ProgressEvent) {
	if s.Logger == nil {
		return
	}
	if ev.CurrentCheck == nil {
		s.Logger.Debugw(ev.Message, "current", ev.Current, "total", ev.Total)
		return
	}
	s.Logger.Infow(ev.Message,
		"current", ev.Current,
		"total", ev.Total,
		"code", ev.CurrentCheck.Code,
		"status", ev.CurrentCheck.Status.Name(),
	)
}
