package logger

import (
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var current atomic.Pointer[zap.SugaredLogger]

func build(level string) (*zap.SugaredLogger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(parseLevel(level))

	z, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return z.Sugar(), nil
}

// InitLogger initializes the global sugared logger at the given level.
func InitLogger(level string) error {
	l, err := build(level)
	if err != nil {
		return err
	}
	current.Store(l)
	return nil
}

// L returns the global sugared logger. The first call before InitLogger installs
// an info-level default; concurrent first calls all get the same instance.
func L() *zap.SugaredLogger {
	if l := current.Load(); l != nil {
		return l
	}

	l, err := build("info")
	if err != nil {
		l = zap.NewNop().Sugar()
	}
	current.CompareAndSwap(nil, l)
	return current.Load()
}

// SetLogger swaps the global logger; tests use it with zap.NewNop.
func SetLogger(l *zap.Logger) {
	current.Store(l.Sugar())
}

// Sync flushes buffered entries.
func Sync() {
	if l := current.Load(); l != nil {
		_ = l.Sync()
	}
}

func parseLevel(level string) zapcore.Level {
	switch level {
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
