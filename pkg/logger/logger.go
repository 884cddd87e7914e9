// Package logger provides a simple leveled logging interface backed by zerolog.
package logger

import (
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"
)

// Level represents the logging level.
type Level int

// Log levels.
const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelNone
)

// String returns the string representation of the level.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return ""
	}
}

// ParseLevel converts a level name ("debug", "info", "warn", "error", "none")
// to a Level. Unknown names map to LevelInfo and false.
func ParseLevel(name string) (Level, bool) {
	switch name {
	case "debug", "DEBUG":
		return LevelDebug, true
	case "info", "INFO", "":
		return LevelInfo, true
	case "warn", "WARN", "warning":
		return LevelWarn, true
	case "error", "ERROR":
		return LevelError, true
	case "none", "NONE", "off":
		return LevelNone, true
	default:
		return LevelInfo, false
	}
}

func (l Level) zerolog() zerolog.Level {
	switch l {
	case LevelDebug:
		return zerolog.DebugLevel
	case LevelInfo:
		return zerolog.InfoLevel
	case LevelWarn:
		return zerolog.WarnLevel
	case LevelError:
		return zerolog.ErrorLevel
	default:
		return zerolog.Disabled
	}
}

const component = "terminologies"

// Logger provides logging functionality.
type Logger struct {
	mu      sync.Mutex
	level   Level
	console bool
	zl      zerolog.Logger
}

var (
	defaultMu     sync.RWMutex
	defaultLogger = NewConsole(os.Stderr, LevelInfo)
)

// Default returns the default logger.
func Default() *Logger {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultLogger
}

// SetDefault sets the default logger.
func SetDefault(l *Logger) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultLogger = l
}

// New creates a logger writing JSON lines to output.
func New(output io.Writer, level Level) *Logger {
	l := &Logger{level: level}
	l.zl = build(output, false)
	return l
}

// NewConsole creates a logger writing human readable lines to output.
func NewConsole(output io.Writer, level Level) *Logger {
	l := &Logger{level: level, console: true}
	l.zl = build(output, true)
	return l
}

// Disabled returns a logger that discards everything.
func Disabled() *Logger {
	return New(io.Discard, LevelNone)
}

func build(output io.Writer, console bool) zerolog.Logger {
	if console {
		output = zerolog.ConsoleWriter{Out: output, TimeFormat: "15:04:05", NoColor: true}
	}
	return zerolog.New(output).With().Timestamp().Str("component", component).Logger()
}

// SetLevel sets the logging level.
func (l *Logger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

// Level returns the current logging level.
func (l *Logger) Level() Level {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.level
}

// SetOutput sets the output writer, keeping the output format.
func (l *Logger) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.zl = build(w, l.console)
}

// Zerolog returns the underlying zerolog logger.
func (l *Logger) Zerolog() zerolog.Logger {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.zl.Level(l.level.zerolog())
}

func (l *Logger) log(level Level, format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if level < l.level || level >= LevelNone {
		return
	}
	l.zl.WithLevel(level.zerolog()).Msgf(format, args...)
}

// Debug logs a debug message.
func (l *Logger) Debug(format string, args ...any) {
	l.log(LevelDebug, format, args...)
}

// Info logs an info message.
func (l *Logger) Info(format string, args ...any) {
	l.log(LevelInfo, format, args...)
}

// Warn logs a warning message.
func (l *Logger) Warn(format string, args ...any) {
	l.log(LevelWarn, format, args...)
}

// Error logs an error message.
func (l *Logger) Error(format string, args ...any) {
	l.log(LevelError, format, args...)
}

// Package-level convenience functions.

// Debug logs a debug message using the default logger.
func Debug(format string, args ...any) {
	Default().Debug(format, args...)
}

// Info logs an info message using the default logger.
func Info(format string, args ...any) {
	Default().Info(format, args...)
}

// Warn logs a warning message using the default logger.
func Warn(format string, args ...any) {
	Default().Warn(format, args...)
}

// Error logs an error message using the default logger.
func Error(format string, args ...any) {
	Default().Error(format, args...)
}

// SetLevel sets the level of the default logger.
func SetLevel(level Level) {
	Default().SetLevel(level)
}

// SetOutput sets the output of the default logger.
func SetOutput(w io.Writer) {
	Default().SetOutput(w)
}

// Disable disables all logging on the default logger.
func Disable() {
	Default().SetLevel(LevelNone)
}
