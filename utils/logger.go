package utils

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// The scraper's stdout is reserved for the final JSON document, so all
// logging goes to an append-only file (stderr until SetupLogFile runs).
var (
	logMu   sync.Mutex
	logSink io.Writer = os.Stderr
)

// SetupLogFile redirects logging to the given file, creating parent
// directories as needed. The file is opened in append mode.
func SetupLogFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("could not create log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("could not open log file: %w", err)
	}
	logMu.Lock()
	logSink = f
	logMu.Unlock()
	return nil
}

func logf(level, format string, a ...interface{}) {
	logMu.Lock()
	defer logMu.Unlock()
	fmt.Fprintf(logSink, "[%s] [%s] %s\n",
		time.Now().Format("15:04:05"), level, fmt.Sprintf(format, a...))
}

func Info(format string, a ...interface{}) {
	logf("INFO", format, a...)
}

func Success(format string, a ...interface{}) {
	logf("OK", format, a...)
}

func Warn(format string, a ...interface{}) {
	logf("WARN", format, a...)
}

func Error(format string, a ...interface{}) {
	logf("ERROR", format, a...)
}
