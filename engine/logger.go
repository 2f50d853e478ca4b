package engine

import (
	"sync"

	"go.uber.org/zap"
)

var (
	logger     *zap.Logger
	loggerOnce sync.Once
)

// Logger returns the engine-layer logger instance.
// It uses a no-op logger by default.
func Logger() *zap.Logger {
	loggerOnce.Do(func() {
		if logger == nil {
			logger = zap.NewNop()
		}
	})
	return logger
}

// SetLogger installs l as the engine-layer logger. Call it before any
// engine is constructed; later calls are ignored.
func SetLogger(l *zap.Logger) {
	loggerOnce.Do(func() {
		logger = l
	})
}
