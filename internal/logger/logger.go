// Package logger provides file-based debug logging for orchestration
// components. Console output goes through the audit sink; this log is
// for post-hoc debugging only.
package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// DebugLogger wraps file-based logging with thread-safe access.
type DebugLogger struct {
	mu   sync.Mutex
	file *os.File
}

// New creates a logger writing to the specified path.
// If the path is empty, returns a no-op logger.
// Creates parent directories if they don't exist.
func New(logPath string) (*DebugLogger, error) {
	if logPath == "" {
		return &DebugLogger{}, nil
	}

	dir := filepath.Dir(logPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}

	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}

	l := &DebugLogger{file: f}
	l.Log("=== Debug Log Started at %s ===", time.Now().Format(time.RFC3339))
	return l, nil
}

// ForProject creates a debug logger in the project's .orchid/logs
// directory. Returns a no-op logger if the directory cannot be created.
func ForProject(projectRoot string) *DebugLogger {
	logPath := filepath.Join(projectRoot, ".orchid", "logs", "debug.log")
	l, err := New(logPath)
	if err != nil {
		return &DebugLogger{}
	}
	return l
}

// Nop returns a no-op logger for testing or when logging is disabled.
func Nop() *DebugLogger {
	return &DebugLogger{}
}

// Log writes a timestamped message to the debug log.
// If the logger is nil or has no file, this is a no-op.
func (l *DebugLogger) Log(format string, args ...interface{}) {
	if l == nil || l.file == nil {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	msg := fmt.Sprintf(format, args...)
	timestamp := time.Now().Format("15:04:05.000")
	fmt.Fprintf(l.file, "[%s] %s\n", timestamp, msg)
	l.file.Sync()
}

// Close closes the log file.
// Safe to call on nil logger or logger without file.
func (l *DebugLogger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	return l.file.Close()
}
