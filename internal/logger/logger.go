// Package logger provides application-wide logging for llmdock.
//
// All output is written to stderr and, once Setup has been called,
// duplicated to the deployment log file so that a failed run can be
// inspected after the terminal is gone.
package logger

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
)

var std = log.NewWithOptions(os.Stderr, log.Options{
	ReportTimestamp: true,
})

// Setup configures the default logger.
//
// The log file is opened in append mode and every record is written to
// both stderr and the file. When verbose is true the level is lowered
// to debug. Setup may be called once per process, before any component
// starts logging deployment steps.
func Setup(logFile string, verbose bool) error {
	if verbose {
		std.SetLevel(log.DebugLevel)
	}

	if logFile == "" {
		return nil
	}

	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file %s: %w", logFile, err)
	}

	std.SetOutput(io.MultiWriter(os.Stderr, f))
	return nil
}

// Debug logs a printf-style message at debug level.
func Debug(format string, args ...any) {
	std.Debugf(format, args...)
}

// Info logs a printf-style message at info level.
func Info(format string, args ...any) {
	std.Infof(format, args...)
}

// Warn logs a printf-style message at warn level.
func Warn(format string, args ...any) {
	std.Warnf(format, args...)
}

// Error logs a printf-style message at error level.
func Error(format string, args ...any) {
	std.Errorf(format, args...)
}
