// Package logger is the leveled logger shared by the CLI and the web
// control plane. Output goes to stderr, optionally teeing into a dated file
// under ~/.sizer/logs.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// Level represents log level
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var levelNames = map[Level]string{
	LevelDebug: "DEBUG",
	LevelInfo:  "INFO ",
	LevelWarn:  "WARN ",
	LevelError: "ERROR",
}

var (
	minLevel Level     = LevelInfo
	output   io.Writer = os.Stderr
	logFile  *os.File
)

// Init enables optional file output alongside stderr.
func Init(logToFile bool) error {
	if !logToFile {
		return nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return err
	}

	logDir := filepath.Join(home, ".sizer", "logs")
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return err
	}

	path := filepath.Join(logDir, fmt.Sprintf("sizer-%s.log", time.Now().Format("2006-01-02")))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}

	logFile = f
	output = io.MultiWriter(os.Stderr, f)
	return nil
}

// Close closes the log file if one is open.
func Close() {
	if logFile != nil {
		logFile.Close()
	}
}

// SetLevel sets the minimum level that gets emitted.
func SetLevel(level Level) {
	minLevel = level
}

// SetLevelFromString sets log level from its lowercase name.
func SetLevelFromString(level string) {
	switch level {
	case "debug":
		minLevel = LevelDebug
	case "info":
		minLevel = LevelInfo
	case "warn":
		minLevel = LevelWarn
	case "error":
		minLevel = LevelError
	}
}

func emit(level Level, format string, args ...interface{}) {
	if level < minLevel {
		return
	}
	timestamp := time.Now().Format("15:04:05")
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintf(output, "[%s] %s %s\n", timestamp, levelNames[level], msg)
}

// Debug logs a debug message
func Debug(format string, args ...interface{}) {
	emit(LevelDebug, format, args...)
}

// Info logs an info message
func Info(format string, args ...interface{}) {
	emit(LevelInfo, format, args...)
}

// Warn logs a warning message
func Warn(format string, args ...interface{}) {
	emit(LevelWarn, format, args...)
}

// Error logs an error message
func Error(format string, args ...interface{}) {
	emit(LevelError, format, args...)
}
