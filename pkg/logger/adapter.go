package logger

import (
	"go.uber.org/zap"
)

// LoggerAdapter pairs the application logger with the optional categorized
// event files. All methods are safe on a nil multi-logger.
type LoggerAdapter struct {
	app         *zap.Logger
	multiLogger *MultiLogger
}

// NewLoggerAdapter creates a new logger adapter. multiLogger may be nil.
func NewLoggerAdapter(app *zap.Logger, multiLogger *MultiLogger) *LoggerAdapter {
	if app == nil {
		app = zap.NewNop()
	}
	return &LoggerAdapter{
		app:         app,
		multiLogger: multiLogger,
	}
}

// NewNopAdapter returns an adapter that discards everything
func NewNopAdapter() *LoggerAdapter {
	return NewLoggerAdapter(zap.NewNop(), nil)
}

// App returns the application logger
func (la *LoggerAdapter) App() *zap.Logger {
	return la.app
}

// LogBatchEvent writes a batch event to the app log and the batch file
func (la *LoggerAdapter) LogBatchEvent(event string, fields ...zap.Field) {
	la.app.Debug(event, fields...)
	if la.multiLogger != nil {
		la.multiLogger.LogBatchEvent(event, fields...)
	}
}

// LogError logs an error to the app log and the error file
func (la *LoggerAdapter) LogError(msg string, fields ...zap.Field) {
	la.app.Error(msg, fields...)
	if la.multiLogger != nil {
		la.multiLogger.LogAppError(msg, fields...)
	}
}

// LogsDir returns the categorized logs directory, or "" if there is none
func (la *LoggerAdapter) LogsDir() string {
	if la.multiLogger == nil {
		return ""
	}
	return la.multiLogger.GetLogsDir()
}

// Sync flushes all loggers
func (la *LoggerAdapter) Sync() error {
	err := la.app.Sync()
	if la.multiLogger != nil {
		if mErr := la.multiLogger.Sync(); mErr != nil {
			err = mErr
		}
	}
	return err
}

// Close flushes the app logger and closes the event files
func (la *LoggerAdapter) Close() error {
	_ = la.app.Sync()
	if la.multiLogger != nil {
		return la.multiLogger.Close()
	}
	return nil
}
