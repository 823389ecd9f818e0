package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Logger writes leveled engine events to a log file or any writer
type Logger struct {
	name    string
	logFile *os.File
	logger  *log.Logger
	mu      sync.Mutex
	logDir  string
	now     func() time.Time
}

// LogLevel represents different types of log entries
type LogLevel string

const (
	LogLevelInfo      LogLevel = "INFO"
	LogLevelWarning   LogLevel = "WARN"
	LogLevelError     LogLevel = "ERROR"
	LogLevelOrder     LogLevel = "ORDER"
	LogLevelHeartbeat LogLevel = "HEARTBEAT"
)

// NewLogger creates a file logger under logDir named <name>_<date>.log
func NewLogger(logDir, name string) (*Logger, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	filename := fmt.Sprintf("%s_%s.log", name, time.Now().UTC().Format("2006-01-02"))
	file, err := os.OpenFile(filepath.Join(logDir, filename), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	l := &Logger{
		name:    name,
		logFile: file,
		logger:  log.New(file, "", 0),
		logDir:  logDir,
		now:     time.Now,
	}
	l.writeSessionHeader()
	return l, nil
}

// NewWriterLogger creates a logger that writes to w without a session file
func NewWriterLogger(name string, w io.Writer) *Logger {
	return &Logger{
		name:   name,
		logger: log.New(w, "", 0),
		now:    time.Now,
	}
}

// Discard returns a logger that drops every entry
func Discard() *Logger {
	return NewWriterLogger("discard", io.Discard)
}

func (l *Logger) writeSessionHeader() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.logger.Printf(`
================================================================================
ENGINE SESSION STARTED: %s
Started: %s
================================================================================`, l.name, l.now().UTC().Format("2006-01-02 15:04:05"))
}

// Log writes a formatted log entry with the specified level
func (l *Logger) Log(level LogLevel, format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	timestamp := l.now().UTC().Format("2006-01-02 15:04:05")
	message := fmt.Sprintf(format, args...)
	l.logger.Printf("[%s] [%s] %s", timestamp, level, message)
}

// Info logs an info message
func (l *Logger) Info(format string, args ...interface{}) {
	l.Log(LogLevelInfo, format, args...)
}

// Warning logs a warning message
func (l *Logger) Warning(format string, args ...interface{}) {
	l.Log(LogLevelWarning, format, args...)
}

// Error logs an error message
func (l *Logger) Error(format string, args ...interface{}) {
	l.Log(LogLevelError, format, args...)
}

// Order logs a submitted order
func (l *Logger) Order(format string, args ...interface{}) {
	l.Log(LogLevelOrder, format, args...)
}

// Heartbeat logs a one-line heartbeat summary
func (l *Logger) Heartbeat(format string, args ...interface{}) {
	l.Log(LogLevelHeartbeat, format, args...)
}

// LogError logs error with context
func (l *Logger) LogError(context string, err error) {
	l.Error("%s: %v", context, err)
}

// LogInvariantViolation reports a non-finite value that was clamped before use
func (l *Logger) LogInvariantViolation(component, field string, value float64, replacement float64) {
	l.Warning("invariant violation in %s: %s=%v replaced with %v", component, field, value, replacement)
}

// Close closes the log file
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.logFile == nil {
		return nil
	}
	l.logger.Printf(`================================================================================
ENGINE SESSION ENDED: %s
================================================================================
`, l.now().UTC().Format("2006-01-02 15:04:05"))
	return l.logFile.Close()
}

// GetLogPath returns the current log file path
func (l *Logger) GetLogPath() string {
	if l.logDir == "" {
		return ""
	}
	filename := fmt.Sprintf("%s_%s.log", l.name, l.now().UTC().Format("2006-01-02"))
	return filepath.Join(l.logDir, filename)
}
