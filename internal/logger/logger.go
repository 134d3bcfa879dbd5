// Package logger is the launcher's diagnostic side channel. Pipeline
// failures never reach the editor that triggered the bootstrap; this log
// is the only place they are visible.
package logger

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Level is the severity of a log message.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

const logFileName = "launcher.log"

var (
	instance *Logger
	once     sync.Once
)

// Logger writes leveled diagnostics to the launcher log file.
type Logger struct {
	file   *os.File
	logger *log.Logger
	level  Level
	mu     sync.Mutex
	path   string
}

// ParseLevel maps a config string onto a Level, defaulting to info.
func ParseLevel(s string) Level {
	switch strings.ToLower(s) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	}
	return LevelInfo
}

// Initialize sets up the logger singleton at the given level. The log file
// lives under ~/.served-launcher; when that is not writable it falls back
// to the temp directory, then stderr.
func Initialize(level Level) error {
	once.Do(func() {
		instance = &Logger{level: level}
		if err := instance.openLogFile(); err != nil {
			instance.openFallback()
		}
	})
	return nil
}

// Get returns the logger singleton, initializing it at info level if needed.
func Get() *Logger {
	if instance == nil {
		_ = Initialize(LevelInfo)
	}
	return instance
}

// Path returns the location of the active log file, or "" when logging
// goes to stderr only.
func Path() string {
	return Get().path
}

func (l *Logger) openLogFile() error {
	home, err := os.UserHomeDir()
	if err != nil {
		return err
	}

	dir := filepath.Join(home, ".served-launcher")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	path := filepath.Join(dir, logFileName)
	l.file, err = os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}

	l.logger = log.New(l.file, "", 0)
	l.path = path
	return nil
}

func (l *Logger) openFallback() {
	path := filepath.Join(os.TempDir(), "served-"+logFileName)
	if f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644); err == nil {
		l.file = f
		l.logger = log.New(f, "", 0)
		l.path = path
		return
	}

	l.file = nil
	l.logger = log.New(os.Stderr, "", 0)
	l.path = ""
}

// Close flushes and closes the log file.
func (l *Logger) Close() {
	if l.file != nil {
		l.file.Close()
	}
}

func (l *Logger) log(level Level, format string, args ...any) {
	if l == nil || l.logger == nil || level < l.level {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	name := "INFO"
	switch level {
	case LevelDebug:
		name = "DEBUG"
	case LevelWarn:
		name = "WARN"
	case LevelError:
		name = "ERROR"
	}

	line := fmt.Sprintf("%s [%s] %s",
		time.Now().Format("2006-01-02 15:04:05"), name, fmt.Sprintf(format, args...))
	l.logger.Println(line)

	if l.level == LevelDebug && l.file != nil {
		fmt.Fprintln(os.Stderr, line)
	}
}

// Debug logs a debug message.
func (l *Logger) Debug(format string, args ...any) { l.log(LevelDebug, format, args...) }

// Info logs an info message.
func (l *Logger) Info(format string, args ...any) { l.log(LevelInfo, format, args...) }

// Warn logs a warning.
func (l *Logger) Warn(format string, args ...any) { l.log(LevelWarn, format, args...) }

// Error logs an error.
func (l *Logger) Error(format string, args ...any) { l.log(LevelError, format, args...) }

// Package-level shortcuts on the singleton.

func Debug(format string, args ...any) { Get().Debug(format, args...) }
func Info(format string, args ...any)  { Get().Info(format, args...) }
func Warn(format string, args ...any)  { Get().Warn(format, args...) }
func Error(format string, args ...any) { Get().Error(format, args...) }
