// Package config handles configuration loading, validation, saving, and
// hot reloading for glazed.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"glaze/internal/appearance"
)

// Version is the current configuration schema version.
const Version = 1

// Config holds the complete daemon configuration. A Config value is
// treated as immutable once handed to the worker: edits go through
// Clone, mutate, replace.
type Config struct {
	// Version is the configuration schema version.
	Version int `toml:"version" json:"version" yaml:"version"`

	// Desktop is the appearance used when no higher-precedence window
	// state matches. It is always enabled.
	Desktop appearance.Taskbar `toml:"desktop" json:"desktop" yaml:"desktop"`

	// VisibleWindow applies while a regular window is in the foreground.
	VisibleWindow appearance.Optional `toml:"visible_window" json:"visible_window" yaml:"visible_window"`

	// MaximisedWindow applies while a window is maximised on the
	// taskbar's monitor.
	MaximisedWindow appearance.Optional `toml:"maximised_window" json:"maximised_window" yaml:"maximised_window"`

	// StartOpened applies while the Start menu is open.
	StartOpened appearance.Optional `toml:"start_opened" json:"start_opened" yaml:"start_opened"`

	// CortanaOpened applies while the search or assistant flyout is open.
	CortanaOpened appearance.Optional `toml:"cortana_opened" json:"cortana_opened" yaml:"cortana_opened"`

	// TimelineOpened applies while the task view is open.
	TimelineOpened appearance.Optional `toml:"timeline_opened" json:"timeline_opened" yaml:"timeline_opened"`

	// Peek controls when the peek-at-desktop button is shown.
	Peek appearance.PeekBehavior `toml:"peek" json:"peek" yaml:"peek"`

	// RegularOnPeek reverts to the regular appearance while the user is
	// peeking at the desktop.
	RegularOnPeek bool `toml:"regular_appearance_when_peeking" json:"regular_appearance_when_peeking" yaml:"regular_appearance_when_peeking"`

	// HideTray hides the notification area icon.
	HideTray bool `toml:"hide_tray" json:"hide_tray" yaml:"hide_tray"`

	// DisableSaving prevents the daemon from ever writing the
	// configuration file, for setups where the file is managed
	// externally.
	DisableSaving bool `toml:"disable_saving" json:"disable_saving" yaml:"disable_saving"`

	// Journal configuration for the transition journal.
	Journal JournalConfig `toml:"journal" json:"journal" yaml:"journal"`

	// IPC configuration for the glazectl control endpoint.
	IPC IPCConfig `toml:"ipc" json:"ipc" yaml:"ipc"`

	// Logging configuration.
	Logging LoggingConfig `toml:"logging" json:"logging" yaml:"logging"`
}

// JournalConfig holds transition journal configuration.
type JournalConfig struct {
	// Enabled turns on journaling of applied appearance transitions.
	Enabled bool `toml:"enabled" json:"enabled" yaml:"enabled"`

	// Path is the journal database file. Empty means the platform
	// default under the data directory.
	Path string `toml:"path" json:"path" yaml:"path"`

	// RetentionDays prunes entries older than this many days.
	// Zero keeps everything.
	RetentionDays int `toml:"retention_days" json:"retention_days" yaml:"retention_days"`
}

// ResolvedPath returns the journal database path, substituting the
// platform default under the data directory when Path is empty.
func (j *JournalConfig) ResolvedPath() string {
	if j.Path != "" {
		return j.Path
	}
	return filepath.Join(PlatformDataDir(), "journal.db")
}

// IPCConfig holds control endpoint configuration.
type IPCConfig struct {
	// Enabled determines whether the control endpoint is served.
	Enabled bool `toml:"enabled" json:"enabled" yaml:"enabled"`

	// SocketPath overrides the default pipe or socket path.
	SocketPath string `toml:"socket_path" json:"socket_path" yaml:"socket_path"`

	// TimeoutSec bounds a single request/response exchange.
	TimeoutSec int `toml:"timeout_sec" json:"timeout_sec" yaml:"timeout_sec"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is one of "debug", "info", "warn", "error", or "off".
	Level string `toml:"level" json:"level" yaml:"level"`

	// Format is "text" or "json".
	Format string `toml:"format" json:"format" yaml:"format"`

	// Output is "stderr", "file", or "both".
	Output string `toml:"output" json:"output" yaml:"output"`

	// FilePath is the log file when Output includes "file". Empty means
	// the platform default log directory.
	FilePath string `toml:"file_path" json:"file_path" yaml:"file_path"`

	// MaxSizeMB rotates the log file once it exceeds this size.
	MaxSizeMB int `toml:"max_size_mb" json:"max_size_mb" yaml:"max_size_mb"`

	// MaxBackups caps the number of rotated files kept.
	MaxBackups int `toml:"max_backups" json:"max_backups" yaml:"max_backups"`
}

// NamedAppearance pairs an optional appearance with its config key.
type NamedAppearance struct {
	Name       string
	Appearance *appearance.Optional
}

// Appearances returns the optional appearances keyed by the window state
// they cover. The desktop appearance is not included; it is the
// unconditional fallback.
func (c *Config) Appearances() []NamedAppearance {
	return []NamedAppearance{
		{Name: "start_opened", Appearance: &c.StartOpened},
		{Name: "cortana_opened", Appearance: &c.CortanaOpened},
		{Name: "timeline_opened", Appearance: &c.TimelineOpened},
		{Name: "maximised_window", Appearance: &c.MaximisedWindow},
		{Name: "visible_window", Appearance: &c.VisibleWindow},
	}
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	dup := *c
	return &dup
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	return ValidateConfig(c)
}

// ApplyEnvOverrides applies environment variable overrides. Only
// operational knobs are overridable; appearance settings always come
// from the file so it stays the single source of truth the tray and CLI
// edit.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("GLAZE_LOG_LEVEL"); v != "" {
		c.Logging.Level = strings.ToLower(v)
	}
	if v := os.Getenv("GLAZE_LOG_FORMAT"); v != "" {
		c.Logging.Format = strings.ToLower(v)
	}
	if v := os.Getenv("GLAZE_SOCKET_PATH"); v != "" {
		c.IPC.SocketPath = v
	}
}

// Summary returns a short human-readable description of the active
// appearance settings, used by state dumps and the status endpoint.
func (c *Config) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "desktop=%s", c.Desktop)
	for _, na := range c.Appearances() {
		if na.Appearance.Enabled {
			fmt.Fprintf(&b, " %s=%s", na.Name, na.Appearance.Appearance())
		}
	}
	fmt.Fprintf(&b, " peek=%s regular_on_peek=%t", c.Peek, c.RegularOnPeek)
	return b.String()
}
