package monitoring

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logf is the package-level diagnostic logger. It defaults to a zap sugared
// logger writing console-encoded lines to stderr, but may be replaced by
// SetLogger. Tests or production code can redirect or mute it.
var Logf func(format string, v ...interface{}) = defaultLogf

var (
	baseOnce sync.Once
	base     *zap.SugaredLogger
)

func defaultLogf(format string, v ...interface{}) {
	sugar().Infof(format, v...)
}

func sugar() *zap.SugaredLogger {
	baseOnce.Do(func() {
		l, err := newZap(false)
		if err != nil {
			l = zap.NewNop()
		}
		base = l.Sugar()
	})
	return base
}

func newZap(debug bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.DisableStacktrace = true
	if debug {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return cfg.Build()
}

// NewZapLogf builds a zap-backed logger function suitable for SetLogger.
// With debug set the logger emits at debug level, which adds caller
// annotations to every line.
func NewZapLogf(debug bool) (func(format string, v ...interface{}), error) {
	l, err := newZap(debug)
	if err != nil {
		return nil, err
	}
	s := l.Sugar()
	if debug {
		return s.Debugf, nil
	}
	return s.Infof, nil
}

// SetLogger replaces the package logger. Passing nil will set a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// Sync flushes any buffered log entries held by the default zap logger.
func Sync() {
	if base != nil {
		_ = base.Sync()
	}
}
