package logging

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ParseLevel maps a level name to a zap level. Unknown names mean info.
func ParseLevel(s string) zapcore.Level {
	switch s {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// Setup builds the process logger and installs it as the zap global.
// Entries below ERROR go to stdout, ERROR and above to stderr. If logPath is
// non-empty every entry is also appended to that file. The returned cleanup
// flushes the logger and closes the file.
func Setup(level, logPath string) (*zap.Logger, func(), error) {
	min := ParseLevel(level)

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "timestamp"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	console := zapcore.NewConsoleEncoder(encCfg)

	low := zap.LevelEnablerFunc(func(l zapcore.Level) bool { return l >= min && l < zapcore.ErrorLevel })
	high := zap.LevelEnablerFunc(func(l zapcore.Level) bool { return l >= min && l >= zapcore.ErrorLevel })

	cores := []zapcore.Core{
		zapcore.NewCore(console, zapcore.Lock(os.Stdout), low),
		zapcore.NewCore(console, zapcore.Lock(os.Stderr), high),
	}

	var file *os.File
	if logPath != "" {
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, nil, fmt.Errorf("opening log file: %w", err)
		}
		file = f
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(f), zap.NewAtomicLevelAt(min)))
	}

	logger := zap.New(zapcore.NewTee(cores...), zap.AddCaller())
	zap.ReplaceGlobals(logger)

	cleanup := func() {
		logger.Sync()
		if file != nil {
			file.Close()
		}
	}
	return logger, cleanup, nil
}

type contextKey struct{}

// WithContext returns a copy of ctx carrying logger.
func WithContext(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, logger)
}

// FromContext returns the request-scoped logger, or the global one.
func FromContext(ctx context.Context) *zap.Logger {
	if logger, ok := ctx.Value(contextKey{}).(*zap.Logger); ok {
		return logger
	}
	return zap.L()
}
