package logging

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"time"
)

// CrashReport captures the state of the process at the time of a panic.
type CrashReport struct {
	Timestamp  time.Time `json:"timestamp"`
	Version    string    `json:"version"`
	GOOS       string    `json:"goos"`
	GOARCH     string    `json:"goarch"`
	Goroutines int       `json:"goroutines"`
	PanicValue string    `json:"panic_value"`
	StackTrace string    `json:"stack_trace"`
}

// WriteCrashReport writes a crash report into dir and returns its path.
func WriteCrashReport(dir, version string, panicValue interface{}) (string, error) {
	report := CrashReport{
		Timestamp:  time.Now(),
		Version:    version,
		GOOS:       runtime.GOOS,
		GOARCH:     runtime.GOARCH,
		Goroutines: runtime.NumGoroutine(),
		PanicValue: fmt.Sprintf("%v", panicValue),
		StackTrace: string(debug.Stack()),
	}

	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("logging: create crash directory: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("crash-%s.json", report.Timestamp.Format("20060102-150405")))
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o640); err != nil {
		return "", fmt.Errorf("logging: write crash report: %w", err)
	}
	return path, nil
}

// RecoverAndReport is meant to run deferred at the top of a goroutine.
// It writes a crash report, logs the panic, and re-panics so the
// process still dies with the original stack.
func RecoverAndReport(l *Logger, dir, version string) {
	if r := recover(); r != nil {
		if path, err := WriteCrashReport(dir, version, r); err == nil {
			l.Error("panic", "value", r, "crash_report", path)
		} else {
			l.Error("panic", "value", r, "crash_report_error", err)
		}
		l.Close()
		panic(r)
	}
}
