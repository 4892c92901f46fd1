package logger

import (
	"context"
	"sync"
)

// LoggerContext wraps a Logger with a set of attributes that can grow as an
// operation progresses. It lets long-running routines accumulate identifying
// attributes once they become known without rebuilding the logger each time.
type LoggerContext struct {
	mu    sync.RWMutex
	base  *Logger
	attrs []any
}

// NewLoggerContext creates a LoggerContext around the provided base logger.
func NewLoggerContext(base *Logger) *LoggerContext {
	return &LoggerContext{base: base}
}

// Add appends key/value pairs that will be included in every subsequent log
// call made through this context.
func (lc *LoggerContext) Add(args ...any) {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	lc.attrs = append(lc.attrs, args...)
}

// Debug logs at LevelDebug with the accumulated attributes.
func (lc *LoggerContext) Debug(ctx context.Context, msg string, args ...any) {
	lc.log(ctx, LevelDebug, msg, args...)
}

// Info logs at LevelInfo with the accumulated attributes.
func (lc *LoggerContext) Info(ctx context.Context, msg string, args ...any) {
	lc.log(ctx, LevelInfo, msg, args...)
}

// Warn logs at LevelWarn with the accumulated attributes.
func (lc *LoggerContext) Warn(ctx context.Context, msg string, args ...any) {
	lc.log(ctx, LevelWarn, msg, args...)
}

// Error logs at LevelError with the accumulated attributes.
func (lc *LoggerContext) Error(ctx context.Context, msg string, args ...any) {
	lc.log(ctx, LevelError, msg, args...)
}

func (lc *LoggerContext) log(ctx context.Context, level Level, msg string, args ...any) {
	lc.mu.RLock()
	all := make([]any, 0, len(lc.attrs)+len(args))
	all = append(all, lc.attrs...)
	all = append(all, args...)
	lc.mu.RUnlock()

	switch level {
	case LevelDebug:
		lc.base.Debugc(ctx, 4, msg, all...)
	case LevelWarn:
		lc.base.Warnc(ctx, 4, msg, all...)
	case LevelError:
		lc.base.Errorc(ctx, 4, msg, all...)
	default:
		lc.base.Infoc(ctx, 4, msg, all...)
	}
}
