// Package datastore provides logging infrastructure for database operations
package datastore

import (
	"io"
	"log/slog"
	"sync"

	"github.com/mkarvon/lotline/internal/errors"
	"github.com/mkarvon/lotline/internal/logging"
)

// Package-level logger for datastore operations
var (
	datastoreLogger   *slog.Logger
	datastoreLevelVar = new(slog.LevelVar) // Dynamic level control
	loggerCloseFunc   func() error
	loggerOnce        sync.Once
	loggerMu          sync.RWMutex
)

// defaultLogPath follows the project-wide convention of using a "logs/"
// directory for all log files.
const defaultLogPath = "logs/datastore.log"

// InitializeLogger initializes the datastore logger with the specified log file path.
// This function is safe to call multiple times - initialization happens only once.
func InitializeLogger(logFilePath string) error {
	var initErr error

	loggerOnce.Do(func() {
		if logFilePath == "" {
			logFilePath = defaultLogPath
		}

		datastoreLevelVar.Set(slog.LevelInfo)

		var err error
		loggerMu.Lock()
		datastoreLogger, loggerCloseFunc, err = logging.NewFileLogger(logFilePath, "datastore", datastoreLevelVar)
		loggerMu.Unlock()
		if err != nil {
			// Fall back to a no-op logger instead of failing
			setFallbackLogger()

			initErr = errors.Newf("datastore: failed to initialize file logger: %v", err).
				Component("datastore").
				Category(errors.CategoryFileIO).
				Context("log_file", logFilePath).
				Context("operation", "logger_initialization").
				Build()
		}
	})

	return initErr
}

func setFallbackLogger() {
	loggerMu.Lock()
	defer loggerMu.Unlock()
	datastoreLogger = slog.New(slog.NewTextHandler(io.Discard, nil))
	loggerCloseFunc = func() error { return nil }
}

// getLogger returns the datastore logger, falling back to a service logger
// when the file logger has not been initialized.
func getLogger() *slog.Logger {
	loggerMu.RLock()
	if datastoreLogger != nil {
		defer loggerMu.RUnlock()
		return datastoreLogger
	}
	loggerMu.RUnlock()

	if l := logging.ForService("datastore"); l != nil {
		return l
	}
	return slog.Default().With("service", "datastore")
}

// SetLogLevel changes the minimum level of the datastore file logger.
func SetLogLevel(level slog.Level) {
	datastoreLevelVar.Set(level)
}

// CloseLogger releases the underlying log writer.
func CloseLogger() error {
	loggerMu.Lock()
	defer loggerMu.Unlock()
	if loggerCloseFunc != nil {
		return loggerCloseFunc()
	}
	return nil
}
