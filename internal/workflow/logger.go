// Package workflow executes multi-step workflow definitions: sequential
// steps, concurrent parallel groups with error policies, conditional
// skips, per-step retries, and a workflow-level timeout. Every run ends
// in a report.
package workflow

import (
	"sync"

	"github.com/awalsh128/orchid/internal/logger"
)

// pkgLogger is the package-level debug logger used by the executor.
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
