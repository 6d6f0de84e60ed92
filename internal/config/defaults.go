// Package config handles configuration loading, validation, saving, and
// hot reloading for glazed.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"glaze/internal/appearance"
)

// DefaultConfig returns the configuration used when no file exists yet.
// The desktop gets a fully transparent accent; every conditional
// appearance ships disabled with a sensible accent preselected so that
// enabling it from the tray does something immediately.
func DefaultConfig() *Config {
	return &Config{
		Version: Version,
		Desktop: appearance.Taskbar{
			Accent: appearance.AccentTransparentGradient,
			Color:  appearance.Color{},
		},
		VisibleWindow: appearance.Optional{
			Enabled: false,
			Accent:  appearance.AccentTransparentGradient,
			Color:   appearance.Color{},
		},
		MaximisedWindow: appearance.Optional{
			Enabled: false,
			Accent:  appearance.AccentBlurBehind,
			Color:   appearance.Color{},
		},
		StartOpened: appearance.Optional{
			Enabled: false,
			Accent:  appearance.AccentNormal,
			Color:   appearance.Color{},
		},
		CortanaOpened: appearance.Optional{
			Enabled: false,
			Accent:  appearance.AccentNormal,
			Color:   appearance.Color{},
		},
		TimelineOpened: appearance.Optional{
			Enabled: false,
			Accent:  appearance.AccentNormal,
			Color:   appearance.Color{},
		},
		Peek:          appearance.PeekMaximisedMainMonitor,
		RegularOnPeek: true,
		HideTray:      false,
		DisableSaving: false,
		Journal: JournalConfig{
			Enabled:       false,
			Path:          filepath.Join(PlatformDataDir(), "journal.db"),
			RetentionDays: 30,
		},
		IPC: IPCConfig{
			Enabled:    true,
			SocketPath: "",
			TimeoutSec: 10,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "text",
			Output:     "stderr",
			FilePath:   filepath.Join(PlatformLogDir(), "glazed.log"),
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
	}
}

// ConfigPath returns the default configuration file path.
func ConfigPath() string {
	return filepath.Join(PlatformConfigDir(), "config.toml")
}

// PlatformDataDir returns the platform-specific data directory.
//
// Platform paths:
//   - Windows: %APPDATA%\glaze\
//   - macOS:   ~/Library/Application Support/glaze/
//   - Linux:   ~/.local/share/glaze/
//
// Falls back to ~/.glaze if platform detection fails.
func PlatformDataDir() string {
	switch runtime.GOOS {
	case "windows":
		return windowsDataDir()
	case "darwin":
		return macOSDataDir()
	case "linux":
		return linuxDataDir()
	default:
		return fallbackDir()
	}
}

// PlatformConfigDir returns the platform-specific config directory.
//
// Platform paths:
//   - Windows: %APPDATA%\glaze\
//   - macOS:   ~/Library/Application Support/glaze/
//   - Linux:   ~/.config/glaze/
func PlatformConfigDir() string {
	switch runtime.GOOS {
	case "windows":
		return windowsDataDir() // Windows uses same dir for config and data
	case "darwin":
		return macOSDataDir()
	case "linux":
		return linuxConfigDir()
	default:
		return fallbackDir()
	}
}

// PlatformLogDir returns the platform-specific log directory.
//
// Platform paths:
//   - Windows: %LOCALAPPDATA%\glaze\logs\
//   - macOS:   ~/Library/Logs/glaze/
//   - Linux:   ~/.local/share/glaze/logs/
func PlatformLogDir() string {
	switch runtime.GOOS {
	case "windows":
		return windowsLogDir()
	case "darwin":
		home := userHome()
		return filepath.Join(home, "Library", "Logs", "glaze")
	case "linux":
		return filepath.Join(linuxDataDir(), "logs")
	default:
		return filepath.Join(fallbackDir(), "logs")
	}
}

// PlatformRuntimeDir returns the runtime directory used for the control
// socket on Unix systems. Windows uses named pipes instead.
func PlatformRuntimeDir() string {
	switch runtime.GOOS {
	case "windows":
		return ""
	case "linux":
		if xdgRuntime := os.Getenv("XDG_RUNTIME_DIR"); xdgRuntime != "" {
			return filepath.Join(xdgRuntime, "glaze")
		}
		return filepath.Join("/tmp", "glaze-"+userID())
	default:
		return filepath.Join("/tmp", "glaze-"+userID())
	}
}

func windowsDataDir() string {
	if appData := os.Getenv("APPDATA"); appData != "" {
		return filepath.Join(appData, "glaze")
	}
	return filepath.Join(userHome(), "AppData", "Roaming", "glaze")
}

func windowsLogDir() string {
	if localAppData := os.Getenv("LOCALAPPDATA"); localAppData != "" {
		return filepath.Join(localAppData, "glaze", "logs")
	}
	return filepath.Join(userHome(), "AppData", "Local", "glaze", "logs")
}

func macOSDataDir() string {
	return filepath.Join(userHome(), "Library", "Application Support", "glaze")
}

func linuxDataDir() string {
	if xdgData := os.Getenv("XDG_DATA_HOME"); xdgData != "" {
		return filepath.Join(xdgData, "glaze")
	}
	return filepath.Join(userHome(), ".local", "share", "glaze")
}

func linuxConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "glaze")
	}
	return filepath.Join(userHome(), ".config", "glaze")
}

func fallbackDir() string {
	return filepath.Join(userHome(), ".glaze")
}

func userHome() string {
	if home := os.Getenv("HOME"); home != "" {
		return home
	}
	home, _ := os.UserHomeDir()
	return home
}

func userID() string {
	return fmt.Sprintf("%d", os.Getuid())
}
