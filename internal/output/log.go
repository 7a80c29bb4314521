// Package output provides terminal logging utilities, grounded on the
// teacher's internal/output package (charmbracelet/log + lipgloss for
// styling) and generalised from CLI-render logging to runtime-core
// diagnostics: module execution (with whether coverage is collected),
// registry resets, sandbox teardown, and configuration loading.
package output

import (
	"os"

	"github.com/charmbracelet/log"
)

// LogConfig configures the package-level logger.
type LogConfig struct {
	// Verbose enables debug-level logging and caller info. Timestamps are
	// reported at every level.
	Verbose bool
}

var logger = log.NewWithOptions(os.Stderr, log.Options{
	ReportTimestamp: true,
	TimeFormat:      "15:04:05",
})

// SetupLogging configures the global logger based on cfg.
func SetupLogging(cfg LogConfig) {
	level := log.InfoLevel
	if cfg.Verbose {
		level = log.DebugLevel
	}
	logger = log.NewWithOptions(os.Stderr, log.Options{
		Level:           level,
		ReportTimestamp: true,
		ReportCaller:    cfg.Verbose,
		TimeFormat:      "15:04:05",
	})
}

// ModuleLogger returns a child logger scoped to a module file, used by
// the runtime to tag diagnostics with the module currently executing.
func ModuleLogger(filename string) *log.Logger {
	return logger.WithPrefix(filename)
}

// Debug logs a debug message.
func Debug(msg string, keyvals ...any) { logger.Debug(msg, keyvals...) }

// Info logs an info message.
func Info(msg string, keyvals ...any) { logger.Info(msg, keyvals...) }

// Warn logs a warning message.
func Warn(msg string, keyvals ...any) { logger.Warn(msg, keyvals...) }

// Error logs an error message.
func Error(msg string, keyvals ...any) { logger.Error(msg, keyvals...) }

// Println prints a result line to stdout, unformatted, for test-run
// summaries that belong on stdout rather than in the log stream.
func Println(msg string) { os.Stdout.WriteString(msg + "\n") }
