// Package scheduler tracks the lifecycle of model-issued tool calls and
// drives dependency-ordered execution of todos, including pausable batch
// runs scoped to a session.
package scheduler

import (
	"sync"

	"github.com/awalsh128/orchid/internal/logger"
)

// pkgLogger is the package-level debug logger used by scheduler components.
var pkgLogger *logger.DebugLogger
var pkgLoggerMu sync.RWMutex

// SetDebugLogger sets the package-level logger.
func SetDebugLogger(l *logger.DebugLogger) {
	pkgLoggerMu.Lock()
	defer pkgLoggerMu.Unlock()
	pkgLogger = l
}

// debugLog writes a message using the package-level logger.
func debugLog(format string, args ...interface{}) {
	pkgLoggerMu.RLock()
	l := pkgLogger
	pkgLoggerMu.RUnlock()

	if l != nil {
		l.Log(format, args...)
	}
}
