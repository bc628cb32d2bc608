package logger

import (
	"go.uber.org/zap"
)

// LoggerAdapter provides a unified interface for both single and multi-logger
type LoggerAdapter struct {
	multiLogger  *MultiLogger
	singleLogger *zap.Logger
	useMulti     bool
}

// NewLoggerAdapter creates an adapter that tees base into the category files
func NewLoggerAdapter(base *zap.Logger, multiLogger *MultiLogger) *LoggerAdapter {
	return &LoggerAdapter{
		multiLogger:  multiLogger,
		singleLogger: base,
		useMulti:     multiLogger != nil,
	}
}

// NewSingleLoggerAdapter creates an adapter for a single logger
func NewSingleLoggerAdapter(logger *zap.Logger) *LoggerAdapter {
	return &LoggerAdapter{
		singleLogger: logger,
		useMulti:     false,
	}
}

// Download returns the logger for download lifecycle events
func (la *LoggerAdapter) Download() *zap.Logger {
	if la.useMulti {
		return la.multiLogger.Tee(la.singleLogger, CategoryDownload)
	}
	return la.singleLogger
}

// Analytics returns the logger analytics events are written to. Without a
// multi-logger analytics go to the general logger at debug level.
func (la *LoggerAdapter) Analytics() *zap.Logger {
	if la.useMulti {
		return la.multiLogger.Analytics()
	}
	return la.singleLogger.Named("analytics")
}

// Error returns the error logger
func (la *LoggerAdapter) Error() *zap.Logger {
	if la.useMulti {
		return la.multiLogger.Tee(la.singleLogger, CategoryError)
	}
	return la.singleLogger
}

// General returns the base logger. Its errors also reach the error file.
func (la *LoggerAdapter) General() *zap.Logger {
	if la.useMulti {
		return la.multiLogger.Tee(la.singleLogger, CategoryError)
	}
	return la.singleLogger
}

// Sync flushes all loggers
func (la *LoggerAdapter) Sync() error {
	if la.useMulti {
		_ = la.singleLogger.Sync()
		return la.multiLogger.Sync()
	}
	return la.singleLogger.Sync()
}
