package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogCategory represents different log categories
type LogCategory string

const (
	CategoryBatch    LogCategory = "batch"    // Batch lifecycle events (JSON)
	CategoryError    LogCategory = "error"    // Application errors (JSON)
	CategoryDownload LogCategory = "download" // Raw engine output (plain text)
)

// Categories lists every category with a file in the logs directory
var Categories = []LogCategory{CategoryBatch, CategoryError, CategoryDownload}

// ValidCategory reports whether c names a known category
func ValidCategory(c LogCategory) bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// MultiLogger provides categorized logging with separate output files.
// Raw engine output is written by the engine adapter straight into the
// download category file, not through this logger.
type MultiLogger struct {
	loggers map[LogCategory]*zap.Logger
	files   []*dailyFile
	config  MultiLoggerConfig
	mu      sync.RWMutex
}

// MultiLoggerConfig contains configuration for multi-output logging
type MultiLoggerConfig struct {
	Level   string // debug, info, warn, error
	LogsDir string // Directory for log files
}

// NewMultiLogger creates a new multi-output logger
func NewMultiLogger(config MultiLoggerConfig) (*MultiLogger, error) {
	if config.LogsDir == "" {
		return nil, fmt.Errorf("logs_dir must be specified")
	}

	if err := os.MkdirAll(config.LogsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create logs directory: %w", err)
	}

	ml := &MultiLogger{
		loggers: make(map[LogCategory]*zap.Logger),
		config:  config,
	}

	level, err := zapcore.ParseLevel(config.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	batchLogger, err := ml.createStructuredLogger(CategoryBatch, level)
	if err != nil {
		return nil, fmt.Errorf("failed to create batch logger: %w", err)
	}
	ml.loggers[CategoryBatch] = batchLogger

	errorLogger, err := ml.createStructuredLogger(CategoryError, zapcore.ErrorLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to create error logger: %w", err)
	}
	ml.loggers[CategoryError] = errorLogger

	return ml, nil
}

// createStructuredLogger creates a JSON-formatted logger for a category
func (ml *MultiLogger) createStructuredLogger(category LogCategory, level zapcore.Level) (*zap.Logger, error) {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.MessageKey = "message"
	encoderConfig.LevelKey = "level"
	encoderConfig.CallerKey = ""

	encoder := zapcore.NewJSONEncoder(encoderConfig)

	file := newDailyFile(ml.config.LogsDir, category, time.Now)
	// Open today's file now so a bad logs dir fails at startup
	if err := file.rotate(); err != nil {
		return nil, err
	}
	ml.files = append(ml.files, file)

	core := zapcore.NewCore(encoder, file, level)
	return zap.New(core).With(zap.String("category", string(category))), nil
}

// CategoryLogPath returns the dated log file path for a category
func CategoryLogPath(logsDir string, category LogCategory, date time.Time) string {
	filename := fmt.Sprintf("%s-%s.log", category, date.Format("20060102"))
	return filepath.Join(logsDir, filename)
}

// GetLogsDir returns the logs directory path
func (ml *MultiLogger) GetLogsDir() string {
	return ml.config.LogsDir
}

// GetLogger returns the structured logger for a specific category
func (ml *MultiLogger) GetLogger(category LogCategory) *zap.Logger {
	ml.mu.RLock()
	defer ml.mu.RUnlock()

	if logger, ok := ml.loggers[category]; ok {
		return logger
	}
	return ml.loggers[CategoryError]
}

// Batch returns the batch event logger
func (ml *MultiLogger) Batch() *zap.Logger {
	return ml.GetLogger(CategoryBatch)
}

// Error returns the error logger
func (ml *MultiLogger) Error() *zap.Logger {
	return ml.GetLogger(CategoryError)
}

// LogAppError logs an application-level error
func (ml *MultiLogger) LogAppError(msg string, fields ...zap.Field) {
	ml.Error().Error(msg, fields...)
}

// LogBatchEvent logs a batch lifecycle event with structured data
func (ml *MultiLogger) LogBatchEvent(event string, fields ...zap.Field) {
	ml.Batch().Info(event, fields...)
}

// Sync flushes all loggers
func (ml *MultiLogger) Sync() error {
	ml.mu.RLock()
	defer ml.mu.RUnlock()

	var lastErr error
	for _, logger := range ml.loggers {
		if err := logger.Sync(); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

// Close flushes all loggers and closes their files
func (ml *MultiLogger) Close() error {
	lastErr := ml.Sync()

	ml.mu.Lock()
	defer ml.mu.Unlock()
	for _, f := range ml.files {
		if err := f.Close(); err != nil {
			lastErr = err
		}
	}
	ml.files = nil
	return lastErr
}

// dailyFile writes to the category file for the current date, switching
// files when the date changes
type dailyFile struct {
	dir      string
	category LogCategory
	now      func() time.Time

	mu   sync.Mutex
	date string
	file *os.File
}

func newDailyFile(dir string, category LogCategory, now func() time.Time) *dailyFile {
	return &dailyFile{dir: dir, category: category, now: now}
}

func (f *dailyFile) Write(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.rotateLocked(); err != nil {
		return 0, err
	}
	return f.file.Write(p)
}

func (f *dailyFile) Sync() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.file == nil {
		return nil
	}
	return f.file.Sync()
}

func (f *dailyFile) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.file == nil {
		return nil
	}
	err := f.file.Close()
	f.file = nil
	f.date = ""
	return err
}

func (f *dailyFile) rotate() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rotateLocked()
}

func (f *dailyFile) rotateLocked() error {
	now := f.now()
	date := now.Format("20060102")
	if f.file != nil && date == f.date {
		return nil
	}

	file, err := os.OpenFile(CategoryLogPath(f.dir, f.category, now), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	if f.file != nil {
		f.file.Close()
	}
	f.file = file
	f.date = date
	return nil
}
