package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"glaze/internal/appearance"
)

func writeConfig(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
}

func TestWatchReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	writeConfig(t, path, "version = 1\n")

	loader := NewLoader(path)
	if _, err := loader.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	defer loader.Close()

	changed := make(chan *Config, 1)
	loader.OnChange(func(cfg *Config) {
		select {
		case changed <- cfg:
		default:
		}
	})

	if err := loader.Watch(); err != nil {
		t.Fatalf("Watch: %v", err)
	}

	writeConfig(t, path, `
version = 1

[desktop]
accent = "acrylic"
color = "#10101080"
`)

	select {
	case cfg := <-changed:
		if cfg.Desktop.Accent != appearance.AccentAcrylicBlurBehind {
			t.Errorf("reloaded accent = %v, want acrylic", cfg.Desktop.Accent)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for reload")
	}
}

func TestWatchKeepsOldConfigOnInvalidEdit(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	writeConfig(t, path, "version = 1\n")

	loader := NewLoader(path)
	if _, err := loader.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	defer loader.Close()

	if err := loader.Watch(); err != nil {
		t.Fatalf("Watch: %v", err)
	}

	writeConfig(t, path, "version = 42\n")

	select {
	case err := <-loader.Errors():
		if err == nil {
			t.Error("expected reload error")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for reload error")
	}

	if got := loader.Config().Version; got != 1 {
		t.Errorf("config version = %d, previous config should survive a bad edit", got)
	}
}

func TestReplaceSavesAndNotifies(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	writeConfig(t, path, "version = 1\n")

	loader := NewLoader(path)
	if _, err := loader.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	defer loader.Close()

	var notified *Config
	loader.OnChange(func(cfg *Config) { notified = cfg })

	next := loader.Config().Clone()
	next.Desktop.Accent = appearance.AccentBlurBehind
	if err := loader.Replace(next); err != nil {
		t.Fatalf("Replace: %v", err)
	}

	if notified == nil || notified.Desktop.Accent != appearance.AccentBlurBehind {
		t.Error("OnChange not invoked with replaced config")
	}

	back, err := NewLoader(path).Load()
	if err != nil {
		t.Fatalf("Load after Replace: %v", err)
	}
	if back.Desktop.Accent != appearance.AccentBlurBehind {
		t.Error("Replace did not persist to disk")
	}
}

func TestReplaceHonorsDisableSaving(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	writeConfig(t, path, "version = 1\ndisable_saving = true\n")

	loader := NewLoader(path)
	if _, err := loader.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	defer loader.Close()

	before, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	next := loader.Config().Clone()
	next.Desktop.Accent = appearance.AccentGradient
	if err := loader.Replace(next); err != nil {
		t.Fatalf("Replace: %v", err)
	}

	after, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(before) != string(after) {
		t.Error("Replace wrote the file despite disable_saving")
	}

	if loader.Config().Desktop.Accent != appearance.AccentGradient {
		t.Error("in-memory config should still be replaced")
	}
}

func TestReplaceRejectsInvalid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	writeConfig(t, path, "version = 1\n")

	loader := NewLoader(path)
	if _, err := loader.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	defer loader.Close()

	bad := loader.Config().Clone()
	bad.Peek = appearance.PeekBehavior(99)
	if err := loader.Replace(bad); err == nil {
		t.Error("expected validation error from Replace")
	}
	if loader.Config().Peek == appearance.PeekBehavior(99) {
		t.Error("invalid config must not be published")
	}
}
