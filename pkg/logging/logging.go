package logging

import (
	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Verbosity levels passed to logger.V(...).
const (
	DEFAULT = 2
	VERBOSE = 3
	DEBUG   = 4
	TRACE   = 5
)

// New builds a zap-backed logr.Logger. Messages logged with V(n) are emitted when n <= verbosity.
func New(verbosity int, development bool) (logr.Logger, error) {
	cfg := zap.NewProductionConfig()
	if development {
		cfg = zap.NewDevelopmentConfig()
	}
	if verbosity < 0 {
		verbosity = 0
	}
	// logr V(n) diventa il livello zap -n
	cfg.Level = zap.NewAtomicLevelAt(zapcore.Level(-verbosity))
	cfg.DisableStacktrace = !development

	zl, err := cfg.Build()
	if err != nil {
		return logr.Discard(), err
	}
	return zapr.NewLogger(zl), nil
}

// NewTestLogger returns a development logger at TRACE level, for tests.
func NewTestLogger() logr.Logger {
	logger, err := New(TRACE, true)
	if err != nil {
		return logr.Discard()
	}
	return logger
}
