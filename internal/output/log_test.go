package output

import (
	"bytes"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
)

// captureLog redirects the package logger to a buffer and returns it.
func captureLog(cfg LogConfig) *bytes.Buffer {
	var buf bytes.Buffer
	SetupLogging(cfg)
	level := log.InfoLevel
	if cfg.Verbose {
		level = log.DebugLevel
	}
	logger = log.NewWithOptions(&buf, log.Options{
		Level:           level,
		ReportTimestamp: true,
		ReportCaller:    cfg.Verbose,
		TimeFormat:      "15:04:05",
	})
	return &buf
}

func TestSetupLogging_DefaultInfoLevel(t *testing.T) {
	SetupLogging(LogConfig{})
	buf := captureLog(LogConfig{})
	logger.Debug("should not appear")
	assert.Empty(t, buf.String(), "debug messages must be suppressed at the default info level")
}

func TestSetupLogging_VerboseEnablesDebugLevel(t *testing.T) {
	buf := captureLog(LogConfig{Verbose: true})
	logger.Debug("verbose-msg")
	assert.Contains(t, buf.String(), "verbose-msg")
}

func TestModuleLogger_PrefixesMessagesWithFilename(t *testing.T) {
	buf := captureLog(LogConfig{})
	modLog := ModuleLogger("/src/a.native")
	modLog.Info("executing")
	assert.Contains(t, buf.String(), "/src/a.native")
}

func TestModuleLogger_InheritsPackageLevel(t *testing.T) {
	buf := captureLog(LogConfig{Verbose: true})
	modLog := ModuleLogger("/src/a.native")
	modLog.Debug("deep diagnostic")
	assert.Contains(t, buf.String(), "deep diagnostic", "module logger should inherit the verbose debug level")
}

func TestDebugInfoWarnError_WriteThroughToPackageLogger(t *testing.T) {
	buf := captureLog(LogConfig{Verbose: true})

	Debug("debug-msg")
	Info("info-msg")
	Warn("warn-msg")
	Error("error-msg")

	out := buf.String()
	assert.Contains(t, out, "debug-msg")
	assert.Contains(t, out, "info-msg")
	assert.Contains(t, out, "warn-msg")
	assert.Contains(t, out, "error-msg")
}
