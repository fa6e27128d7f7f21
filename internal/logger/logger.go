package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"pneumoscan/internal/config"
)

// Log file names, one per level. Debug output only goes to stdout.
const (
	InfoFile    = "info.log"
	WarningFile = "warning.log"
	ErrorFile   = "error.log"
)

// Logger provides leveled logging (debug/info/warning/error) to files and stdout/stderr.
type Logger struct {
	debugLog   *log.Logger
	infoLog    *log.Logger
	warningLog *log.Logger
	errorLog   *log.Logger
	debug      bool
	logDir     string
	mu         sync.Mutex
}

// NewLogger creates a Logger and ensures the log directory exists.
func NewLogger(config *config.Config) *Logger {
	if err := os.MkdirAll(config.LogDirectory, 0755); err != nil {
		log.Fatalf("Failed to create log directory: %v", err)
	}

	logger := &Logger{
		logDir: config.LogDirectory,
		debug:  strings.EqualFold(config.LogLevel, "debug"),
	}

	logger.setupLoggers()
	return logger
}

// NewWriterLogger sends every level to w. Used by tests and tools that
// should not touch the log directory.
func NewWriterLogger(w io.Writer) *Logger {
	flags := log.Ldate | log.Ltime
	return &Logger{
		debugLog:   log.New(w, "DEBUG   ", flags),
		infoLog:    log.New(w, "INFO    ", flags),
		warningLog: log.New(w, "WARNING ", flags),
		errorLog:   log.New(w, "ERROR   ", flags),
		debug:      true,
	}
}

// Discard returns a Logger that drops everything.
func Discard() *Logger {
	return NewWriterLogger(io.Discard)
}

// setupLoggers initializes writers and per-level loggers.
func (l *Logger) setupLoggers() {
	infoWriter := io.MultiWriter(os.Stdout, l.openLogFile(filepath.Join(l.logDir, InfoFile)))
	warningWriter := io.MultiWriter(os.Stdout, l.openLogFile(filepath.Join(l.logDir, WarningFile)))
	errorWriter := io.MultiWriter(os.Stderr, l.openLogFile(filepath.Join(l.logDir, ErrorFile)))

	flags := log.Ldate | log.Ltime | log.Lshortfile
	l.debugLog = log.New(os.Stdout, "🔍 DEBUG   ", flags)
	l.infoLog = log.New(infoWriter, "ℹ️  INFO    ", flags)
	l.warningLog = log.New(warningWriter, "⚠️  WARNING ", flags)
	l.errorLog = log.New(errorWriter, "❌ ERROR   ", flags)
}

// openLogFile opens or creates a log file for appending.
func (l *Logger) openLogFile(filename string) *os.File {
	file, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalf("Failed to open log file %s: %v", filename, err)
	}
	return file
}

// Debug writes a formatted debug-level entry when LOG_LEVEL=debug.
func (l *Logger) Debug(format string, v ...interface{}) {
	if !l.debug {
		return
	}
	l.output(l.debugLog, format, v...)
}

// Info writes a formatted info-level log entry.
func (l *Logger) Info(format string, v ...interface{}) {
	l.output(l.infoLog, format, v...)
}

// Warning writes a formatted warning-level log entry.
func (l *Logger) Warning(format string, v ...interface{}) {
	l.output(l.warningLog, format, v...)
}

// Error writes a formatted error-level log entry.
func (l *Logger) Error(format string, v ...interface{}) {
	l.output(l.errorLog, format, v...)
}

func (l *Logger) output(target *log.Logger, format string, v ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	// depth 3: output -> Info/Warning/Error -> caller
	target.Output(3, fmt.Sprintf(format, v...))
}

// Dir returns the directory the level files live in ("" for writer loggers).
func (l *Logger) Dir() string {
	return l.logDir
}

// CleanLogs truncates the named log file.
func (l *Logger) CleanLogs(fileName string) error {
	if l.logDir == "" {
		return nil
	}
	filePath := filepath.Join(l.logDir, filepath.Base(fileName))

	l.mu.Lock()
	err := os.Truncate(filePath, 0)
	l.mu.Unlock()

	if err != nil {
		l.Error("Error truncating %s: %v", fileName, err)
		return err
	}
	l.Info("Log file %s has been cleared", fileName)
	return nil
}
