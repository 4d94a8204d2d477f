// Package logging provides file-based logging for agent-dispatch.
// It outputs logs to a rotating global log file (<dir>/logs/dispatch.log)
// and task-specific log files (<dir>/logs/task-<id>.log).
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/runoshun/agent-dispatch/internal/domain"
	lj "gopkg.in/natefinch/lumberjack.v2"
)

// Ensure Logger implements domain.Logger interface.
var _ domain.Logger = (*Logger)(nil)

// Options configures a Logger.
type Options struct {
	Mirror     io.Writer // Optional second destination (e.g. stderr)
	Dir        string    // Result directory; empty disables file output
	Level      slog.Level
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// Logger writes formatted log lines to the global and per-task files.
// Fields are ordered to minimize memory padding.
type Logger struct {
	global    io.WriteCloser
	mirror    io.Writer
	taskFiles map[string]*os.File
	opts      Options
	mu        sync.Mutex
}

// New creates a new Logger. If opts.Dir is empty and no mirror is set,
// logging is disabled.
func New(opts Options) *Logger {
	return &Logger{
		opts:      opts,
		mirror:    opts.Mirror,
		taskFiles: make(map[string]*os.File),
	}
}

// ParseLevel parses a log level string into slog.Level.
func ParseLevel(levelStr string) slog.Level {
	switch levelStr {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (l *Logger) ensureLogsDir() error {
	return os.MkdirAll(filepath.Join(l.opts.Dir, "logs"), 0o750)
}

// globalWriter opens or returns the rotating global log.
// Caller must hold l.mu.
func (l *Logger) globalWriter() (io.Writer, error) {
	if l.global != nil {
		return l.global, nil
	}
	if err := l.ensureLogsDir(); err != nil {
		return nil, fmt.Errorf("create logs directory: %w", err)
	}
	l.global = &lj.Logger{
		Filename:   domain.GlobalLogPath(l.opts.Dir),
		MaxSize:    valOr(l.opts.MaxSizeMB, domain.DefaultLogMaxSizeMB),
		MaxBackups: valOr(l.opts.MaxBackups, domain.DefaultLogMaxBackups),
		MaxAge:     valOr(l.opts.MaxAgeDays, domain.DefaultLogMaxAgeDays),
	}
	return l.global, nil
}

// taskFile opens or returns the task log file.
// Caller must hold l.mu.
func (l *Logger) taskFile(taskID string) (*os.File, error) {
	if f, ok := l.taskFiles[taskID]; ok {
		return f, nil
	}
	if err := l.ensureLogsDir(); err != nil {
		return nil, fmt.Errorf("create logs directory: %w", err)
	}
	path := domain.TaskLogPath(l.opts.Dir, taskID)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o640) //nolint:gosec // Log file readable by owner and group
	if err != nil {
		return nil, fmt.Errorf("open task log file: %w", err)
	}
	l.taskFiles[taskID] = f
	return f, nil
}

// Close closes all open log files.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var lastErr error
	if l.global != nil {
		if err := l.global.Close(); err != nil {
			lastErr = err
		}
		l.global = nil
	}
	for id, f := range l.taskFiles {
		if err := f.Close(); err != nil {
			lastErr = err
		}
		delete(l.taskFiles, id)
	}
	return lastErr
}

// formatLog formats a log entry.
// Format: [2025-12-30 09:32:51] [INFO] [task-calc-1a2b3c4d] [notify] message
func formatLog(t time.Time, level slog.Level, taskID, category, msg string) string {
	taskStr := "global"
	if taskID != "" {
		taskStr = "task-" + taskID
	}
	return fmt.Sprintf("[%s] [%s] [%s] [%s] %s\n",
		t.Format("2006-01-02 15:04:05"),
		levelToString(level),
		taskStr,
		category,
		msg,
	)
}

func levelToString(level slog.Level) string {
	switch level {
	case slog.LevelDebug:
		return "DEBUG"
	case slog.LevelWarn:
		return "WARN"
	case slog.LevelError:
		return "ERROR"
	default:
		return "INFO"
	}
}

// log writes an entry to the global log, the task log when taskID is set,
// and the mirror.
func (l *Logger) log(level slog.Level, taskID, category, msg string) {
	if level < l.opts.Level {
		return
	}
	if l.opts.Dir == "" && l.mirror == nil {
		return
	}

	entry := formatLog(time.Now(), level, taskID, category, msg)

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.mirror != nil {
		_, _ = io.WriteString(l.mirror, entry)
	}
	if l.opts.Dir == "" {
		return
	}
	if gw, err := l.globalWriter(); err == nil {
		_, _ = io.WriteString(gw, entry)
	}
	if taskID != "" {
		if tf, err := l.taskFile(taskID); err == nil {
			_, _ = io.WriteString(tf, entry)
		}
	}
}

// Info logs an info message.
func (l *Logger) Info(taskID, category, msg string) {
	l.log(slog.LevelInfo, taskID, category, msg)
}

// Debug logs a debug message.
func (l *Logger) Debug(taskID, category, msg string) {
	l.log(slog.LevelDebug, taskID, category, msg)
}

// Warn logs a warning message.
func (l *Logger) Warn(taskID, category, msg string) {
	l.log(slog.LevelWarn, taskID, category, msg)
}

// Error logs an error message.
func (l *Logger) Error(taskID, category, msg string) {
	l.log(slog.LevelError, taskID, category, msg)
}

func valOr(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
