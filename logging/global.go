package logging

import (
	"sync"
)

var (
	globalLogger Logger
	globalMu     sync.RWMutex
)

// Global returns the process-wide logger. Until Init or SetGlobal is called
// it logs info and above to stderr.
func Global() Logger {
	globalMu.RLock()
	l := globalLogger
	globalMu.RUnlock()
	if l != nil {
		return l
	}

	globalMu.Lock()
	defer globalMu.Unlock()
	if globalLogger == nil {
		globalLogger = NewLogger(DefaultConfig())
	}
	return globalLogger
}

// SetGlobal replaces the global logger.
func SetGlobal(logger Logger) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalLogger = logger
}

// Init initializes the global logger with the given config.
func Init(config Config) Logger {
	l := NewLogger(config)
	SetGlobal(l)
	return l
}

// Named creates a child of the global logger.
func Named(name string) Logger {
	return Global().Named(name)
}

// Sync flushes the global logger.
func Sync() error {
	return Global().Sync()
}
