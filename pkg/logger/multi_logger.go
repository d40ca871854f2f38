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
	CategoryPipeline LogCategory = "pipeline" // upload request lifecycle (JSON)
	CategoryError    LogCategory = "error"    // application errors (JSON)
	CategoryTools    LogCategory = "tools"    // raw yt-dlp/ffmpeg output, written by the process runner
)

// Categories lists every category with a daily log file
var Categories = []LogCategory{CategoryPipeline, CategoryError, CategoryTools}

// MultiLogger writes categorized JSON logs to one file per category and day.
// Files roll over to a new name when the date changes.
type MultiLogger struct {
	config MultiLoggerConfig

	mu          sync.Mutex
	loggers     map[LogCategory]*zap.Logger
	files       []*os.File
	currentDate string
	now         func() time.Time
}

// MultiLoggerConfig contains configuration for multi-output logging
type MultiLoggerConfig struct {
	Level   string // debug, info, warn, error
	LogsDir string
}

// NewMultiLogger creates a new multi-output logger
func NewMultiLogger(config MultiLoggerConfig) (*MultiLogger, error) {
	if config.LogsDir == "" {
		return nil, fmt.Errorf("logs_dir must be specified")
	}
	if err := os.MkdirAll(config.LogsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create logs directory: %w", err)
	}

	ml := &MultiLogger{config: config, now: time.Now}
	if err := ml.open(ml.now().Format("20060102")); err != nil {
		return nil, err
	}
	return ml, nil
}

// open replaces the category loggers with ones writing to date's files. Caller holds mu or owns ml.
func (ml *MultiLogger) open(date string) error {
	level, err := zapcore.ParseLevel(ml.config.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	loggers := make(map[LogCategory]*zap.Logger, 2)
	var files []*os.File
	for category, lvl := range map[LogCategory]zapcore.Level{
		CategoryPipeline: level,
		CategoryError:    zapcore.ErrorLevel,
	} {
		file, err := os.OpenFile(CategoryLogPath(ml.config.LogsDir, category, date), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			closeAll(files)
			return fmt.Errorf("failed to create %s logger: %w", category, err)
		}
		files = append(files, file)
		loggers[category] = zap.New(zapcore.NewCore(jsonEncoder(), zapcore.AddSync(file), lvl))
	}

	old := ml.files
	ml.loggers = loggers
	ml.files = files
	ml.currentDate = date
	closeAll(old)
	return nil
}

func jsonEncoder() zapcore.Encoder {
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "ts"
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.CallerKey = ""
	return zapcore.NewJSONEncoder(cfg)
}

// CategoryLogPath returns the file for a category on a YYYYMMDD date
func CategoryLogPath(logsDir string, category LogCategory, date string) string {
	return filepath.Join(logsDir, fmt.Sprintf("%s-%s.log", category, date))
}

// LogsDir returns the logs directory path
func (ml *MultiLogger) LogsDir() string {
	return ml.config.LogsDir
}

// GetLogger returns the logger for a category, rolling files over at midnight
func (ml *MultiLogger) GetLogger(category LogCategory) *zap.Logger {
	ml.mu.Lock()
	defer ml.mu.Unlock()

	if date := ml.now().Format("20060102"); date != ml.currentDate {
		if err := ml.open(date); err != nil {
			// keep writing to the previous day's file
			ml.loggers[CategoryError].Error("Log rollover failed", zap.Error(err))
		}
	}

	if logger, ok := ml.loggers[category]; ok {
		return logger
	}
	return ml.loggers[CategoryError]
}

// Pipeline returns the pipeline logger
func (ml *MultiLogger) Pipeline() *zap.Logger {
	return ml.GetLogger(CategoryPipeline)
}

// Error returns the error logger
func (ml *MultiLogger) Error() *zap.Logger {
	return ml.GetLogger(CategoryError)
}

// LogPipelineEvent logs an upload lifecycle event
func (ml *MultiLogger) LogPipelineEvent(event string, fields ...zap.Field) {
	if ml == nil {
		return
	}
	ml.Pipeline().Info(event, fields...)
}

// LogAppError logs an application-level error
func (ml *MultiLogger) LogAppError(msg string, fields ...zap.Field) {
	if ml == nil {
		return
	}
	ml.Error().Error(msg, fields...)
}

// Sync flushes all loggers
func (ml *MultiLogger) Sync() error {
	ml.mu.Lock()
	defer ml.mu.Unlock()

	var lastErr error
	for _, logger := range ml.loggers {
		if err := logger.Sync(); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

// Close flushes and closes the log files
func (ml *MultiLogger) Close() error {
	ml.mu.Lock()
	defer ml.mu.Unlock()

	for _, logger := range ml.loggers {
		_ = logger.Sync()
	}
	err := closeAll(ml.files)
	ml.files = nil
	return err
}

func closeAll(files []*os.File) error {
	var lastErr error
	for _, f := range files {
		if err := f.Close(); err != nil {
			lastErr = err
		}
	}
	return lastErr
}
