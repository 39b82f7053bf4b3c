package logger

import (
	"sync"
)

const (
	DebugLevel = "debug"
	InfoLevel  = "info"
	WarnLevel  = "warn"
	ErrorLevel = "error"

	FormatConsole = "console"
	FormatJSON    = "json"
)

// Options mirrors the log section of the configuration.
type Options struct {
	Level  string
	Format string
}

var (
	root *Logger
	once sync.Once
)

// Get returns the process-wide logger, built on the first call.
func Get(opts Options) *Logger {
	once.Do(func() {
		root = New(opts)
	})
	return root
}
