package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"glaze/internal/config"
)

func TestParseLevel(t *testing.T) {
	cases := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"debug", "DEBUG", false},
		{"info", "INFO", false},
		{"", "INFO", false},
		{"WARN", "WARN", false},
		{"warning", "WARN", false},
		{"error", "ERROR", false},
		{"off", "ERROR+4", false},
		{"verbose", "", true},
	}
	for _, tc := range cases {
		lvl, err := ParseLevel(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseLevel(%q) should fail", tc.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseLevel(%q) failed: %v", tc.in, err)
			continue
		}
		if lvl.String() != tc.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tc.in, lvl, tc.want)
		}
	}
}

func TestNewRejectsBadLevel(t *testing.T) {
	_, err := New(config.LoggingConfig{Level: "loud"})
	if err == nil {
		t.Fatal("New should reject unknown level")
	}
}

func TestFileOutputWritesJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "glazed.log")
	l, err := New(config.LoggingConfig{
		Level:    "info",
		Format:   "json",
		Output:   "file",
		FilePath: path,
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	l.Info("hello", "answer", 42)
	l.Debug("hidden")
	if err := l.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d log lines, want 1: %q", len(lines), data)
	}

	var entry map[string]interface{}
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if entry["msg"] != "hello" || entry["answer"] != float64(42) {
		t.Errorf("unexpected log entry: %v", entry)
	}
}

func TestSetLevelTakesEffect(t *testing.T) {
	path := filepath.Join(t.TempDir(), "glazed.log")
	l, err := New(config.LoggingConfig{
		Level:    "info",
		Format:   "text",
		Output:   "file",
		FilePath: path,
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer l.Close()

	l.Debug("before")
	if err := l.SetLevel("debug"); err != nil {
		t.Fatalf("SetLevel failed: %v", err)
	}
	l.Debug("after")
	l.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if strings.Contains(string(data), "before") {
		t.Error("debug line logged while level was info")
	}
	if !strings.Contains(string(data), "after") {
		t.Error("debug line missing after SetLevel(debug)")
	}
}

func TestRotatorRotatesAndPrunes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "glazed.log")

	r, err := NewFileRotator(path, 1, 2)
	if err != nil {
		t.Fatalf("NewFileRotator failed: %v", err)
	}
	defer r.Close()

	// Each write is half the limit, so every second write rotates.
	chunk := bytes.Repeat([]byte("x"), 512*1024)
	for i := 0; i < 8; i++ {
		if _, err := r.Write(chunk); err != nil {
			t.Fatalf("Write %d failed: %v", i, err)
		}
	}

	matches, err := filepath.Glob(filepath.Join(dir, "glazed-*.log"))
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) > 2 {
		t.Errorf("found %d rotated files, want at most 2", len(matches))
	}
	if len(matches) == 0 {
		t.Error("expected at least one rotated file")
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("current log missing: %v", err)
	}
	if info.Size() > 1024*1024 {
		t.Errorf("current log is %d bytes, over the limit", info.Size())
	}
}

func TestRotatorZeroBackupsDiscards(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "glazed.log")

	r, err := NewFileRotator(path, 1, 0)
	if err != nil {
		t.Fatalf("NewFileRotator failed: %v", err)
	}
	defer r.Close()

	chunk := bytes.Repeat([]byte("x"), 600*1024)
	for i := 0; i < 4; i++ {
		if _, err := r.Write(chunk); err != nil {
			t.Fatalf("Write %d failed: %v", i, err)
		}
	}

	matches, _ := filepath.Glob(filepath.Join(dir, "glazed-*.log"))
	if len(matches) != 0 {
		t.Errorf("found %d rotated files with backups disabled", len(matches))
	}
}

func TestWriteCrashReport(t *testing.T) {
	dir := t.TempDir()
	path, err := WriteCrashReport(dir, "1.2.3", "boom")
	if err != nil {
		t.Fatalf("WriteCrashReport failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read crash report: %v", err)
	}
	var report CrashReport
	if err := json.Unmarshal(data, &report); err != nil {
		t.Fatalf("crash report is not JSON: %v", err)
	}
	if report.PanicValue != "boom" || report.Version != "1.2.3" {
		t.Errorf("unexpected report: %+v", report)
	}
	if report.StackTrace == "" {
		t.Error("crash report missing stack trace")
	}
}
