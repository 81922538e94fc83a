// Package common holds ambient, cross-cutting concerns shared by every
// pipeline stage: logging, configuration, error kinds, and panic-safe
// goroutines. Nothing here knows about financial metrics.
package common

import (
	"sync"

	"github.com/ternarybob/arbor"
)

var (
	globalLogger arbor.ILogger
	loggerMutex  sync.RWMutex
)

// GetLogger returns the global logger instance. If InitLogger hasn't been
// called yet (e.g. in a library context), it falls back to a console
// logger so callers never have to nil-check.
func GetLogger() arbor.ILogger {
	loggerMutex.RLock()
	if globalLogger != nil {
		defer loggerMutex.RUnlock()
		return globalLogger
	}
	loggerMutex.RUnlock()

	loggerMutex.Lock()
	defer loggerMutex.Unlock()
	if globalLogger == nil {
		globalLogger = arbor.NewLogger()
		globalLogger.Warn().Msg("using fallback logger - InitLogger was not called during startup")
	}
	return globalLogger
}

// InitLogger stores the provided logger as the global singleton used by
// cmd/finxtract. Pipeline stages should still receive a logger explicitly
// through their constructors rather than calling GetLogger themselves.
func InitLogger(logger arbor.ILogger) {
	loggerMutex.Lock()
	defer loggerMutex.Unlock()
	globalLogger = logger
}

// SetupLogger builds the process logger from configuration.
func SetupLogger(cfg *Config) arbor.ILogger {
	logger := arbor.NewLogger()
	if cfg != nil && cfg.Logging.Level == "debug" {
		logger.Debug().Msg("logger initialized at debug level")
	}
	InitLogger(logger)
	return logger
}
