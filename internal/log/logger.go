// SPDX-License-Identifier: MIT
//
// Package log is a small leveled logger shared by every package. The level is
// held atomically so the render loop can check it without locking. Nothing
// in this package may be called from the capture callback.
package log

import (
	"fmt"
	"io"
	stdlog "log"
	"os"
	"strings"
	"sync/atomic"
)

// LogLevel defines the severity of a log message.
type LogLevel uint32

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

// String returns the string representation of the LogLevel.
func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	case LevelFatal:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel converts a string (case-insensitive) to a LogLevel.
// Returns LevelInfo and false if the string is not recognized.
func ParseLevel(levelStr string) (LogLevel, bool) {
	switch strings.ToUpper(strings.TrimSpace(levelStr)) {
	case "DEBUG":
		return LevelDebug, true
	case "INFO":
		return LevelInfo, true
	case "WARN", "WARNING":
		return LevelWarn, true
	case "ERROR":
		return LevelError, true
	case "FATAL":
		return LevelFatal, true
	default:
		return LevelInfo, false
	}
}

// --- Global Logger State ---

var currentLevel atomic.Uint32

var logger = stdlog.New(os.Stderr, "", stdlog.Ldate|stdlog.Ltime|stdlog.Lmicroseconds)

func init() {
	SetLevel(LevelInfo)
}

// SetLevel sets the global logging level atomically.
func SetLevel(level LogLevel) {
	currentLevel.Store(uint32(level))
}

// GetLevel gets the current global logging level atomically.
func GetLevel() LogLevel {
	return LogLevel(currentLevel.Load())
}

// SetOutput redirects all log output. The TUI points this at a file or
// io.Discard so log lines do not tear the alternate screen.
func SetOutput(w io.Writer) {
	logger.SetOutput(w)
}

// Configure applies the configured level name. debug forces LevelDebug. An
// unknown name leaves the level at Info and is reported as an error.
func Configure(levelName string, debug bool) error {
	if debug {
		SetLevel(LevelDebug)
		return nil
	}
	if levelName == "" {
		SetLevel(LevelInfo)
		return nil
	}
	level, ok := ParseLevel(levelName)
	SetLevel(level)
	if !ok {
		return fmt.Errorf("unknown log level %q", levelName)
	}
	return nil
}

// Enabled reports whether a message at level would be written. Use it to
// skip building expensive debug arguments.
func Enabled(level LogLevel) bool {
	return level >= GetLevel()
}

func output(level LogLevel, msg string) {
	// Keep the column alignment: INFO and WARN are one char shorter.
	pad := " "
	if level == LevelInfo || level == LevelWarn {
		pad = "  "
	}
	logger.Printf("[%s]%s%s", level, pad, msg)
}

// --- Public Logging Functions ---

// Debugf logs a formatted debug message if the level is appropriate.
func Debugf(format string, v ...any) {
	if Enabled(LevelDebug) {
		output(LevelDebug, fmt.Sprintf(format, v...))
	}
}

// Infof logs a formatted info message if the level is appropriate.
func Infof(format string, v ...any) {
	if Enabled(LevelInfo) {
		output(LevelInfo, fmt.Sprintf(format, v...))
	}
}

// Warnf logs a formatted warning message if the level is appropriate.
func Warnf(format string, v ...any) {
	if Enabled(LevelWarn) {
		output(LevelWarn, fmt.Sprintf(format, v...))
	}
}

// Errorf logs a formatted error message if the level is appropriate.
func Errorf(format string, v ...any) {
	if Enabled(LevelError) {
		output(LevelError, fmt.Sprintf(format, v...))
	}
}

// Fatalf logs a formatted fatal message and exits the application.
// Fatal messages are always logged regardless of the current level.
func Fatalf(format string, v ...any) {
	output(LevelFatal, fmt.Sprintf(format, v...))
	os.Exit(1)
}

// Info logs an info message if the level is appropriate.
func Info(v ...any) {
	if Enabled(LevelInfo) {
		output(LevelInfo, fmt.Sprint(v...))
	}
}

// Error logs an error message if the level is appropriate.
func Error(v ...any) {
	if Enabled(LevelError) {
		output(LevelError, fmt.Sprint(v...))
	}
}
