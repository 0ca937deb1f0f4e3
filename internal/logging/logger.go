package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fadedpez/pokerscribe/internal/types"
)

// Level represents a logging level
type Level int32

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
)

var levelNames = map[Level]string{
	DEBUG: "DEBUG",
	INFO:  "INFO",
	WARN:  "WARN",
	ERROR: "ERROR",
}

// ParseLevel maps a LOG_LEVEL value to a Level, defaulting to INFO
func ParseLevel(s string) Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return DEBUG
	case "WARN", "WARNING":
		return WARN
	case "ERROR":
		return ERROR
	default:
		return INFO
	}
}

// Logger is a leveled logger with caller information
type Logger struct {
	*log.Logger
	level atomic.Int32
}

// NewLogger creates a new logger instance writing to stdout
func NewLogger(level Level) *Logger {
	return NewLoggerTo(os.Stdout, level)
}

// NewLoggerTo creates a logger writing to w
func NewLoggerTo(w io.Writer, level Level) *Logger {
	l := &Logger{Logger: log.New(w, "", 0)}
	l.level.Store(int32(level))
	return l
}

// SetLevel changes the minimum level that gets written
func (l *Logger) SetLevel(level Level) {
	l.level.Store(int32(level))
}

func (l *Logger) enabled(level Level) bool {
	return Level(l.level.Load()) <= level
}

// formatMessage formats a log message with timestamp, level, and caller info
func (l *Logger) formatMessage(level Level, msg string) string {
	_, file, line, ok := runtime.Caller(3)
	caller := "unknown"
	if ok {
		caller = fmt.Sprintf("%s:%d", filepath.Base(file), line)
	}

	timestamp := time.Now().Format("2006-01-02 15:04:05.000")

	return fmt.Sprintf("[%s] %-5s %s: %s",
		timestamp,
		levelNames[level],
		caller,
		msg,
	)
}

func (l *Logger) write(level Level, format string, v ...interface{}) {
	if !l.enabled(level) {
		return
	}
	l.Output(3, l.formatMessage(level, fmt.Sprintf(format, v...)))
}

// Debug logs a debug message
func (l *Logger) Debug(format string, v ...interface{}) {
	l.write(DEBUG, format, v...)
}

// Info logs an info message
func (l *Logger) Info(format string, v ...interface{}) {
	l.write(INFO, format, v...)
}

// Warn logs a warning message
func (l *Logger) Warn(format string, v ...interface{}) {
	l.write(WARN, format, v...)
}

// Error logs an error message
func (l *Logger) Error(format string, v ...interface{}) {
	l.write(ERROR, format, v...)
}

// LogError logs an AnalyzerError with its code and cause. Field read
// failures are expected noise and go out at WARN.
func (l *Logger) LogError(err error) {
	var analyzerErr *types.AnalyzerError
	if !types.As(err, &analyzerErr) {
		l.write(ERROR, "Unexpected error: %v", err)
		return
	}

	context := []string{
		fmt.Sprintf("Code: %s", analyzerErr.Code),
		fmt.Sprintf("Message: %s", analyzerErr.Message),
	}
	if analyzerErr.Err != nil {
		context = append(context, fmt.Sprintf("Cause: %v", analyzerErr.Err))
	}

	level := ERROR
	if analyzerErr.Code == types.ErrFieldReadFailure {
		level = WARN
	}
	l.write(level, "%s", strings.Join(context, " | "))
}

// Default logger instance
var Default = NewLogger(INFO)
