//go:build windows

// Package autostart manages launching glazed at login.
package autostart

import (
	"fmt"
	"os"

	"golang.org/x/sys/windows/registry"
)

const (
	runKeyPath = `Software\Microsoft\Windows\CurrentVersion\Run`
	valueName  = "Glaze"
)

// Manager toggles the per-user Run registry value.
type Manager struct{}

// New returns the platform autostart manager.
func New() *Manager {
	return &Manager{}
}

// Enabled reports whether the Run value exists.
func (m *Manager) Enabled() (bool, error) {
	k, err := registry.OpenKey(registry.CURRENT_USER, runKeyPath, registry.QUERY_VALUE)
	if err != nil {
		return false, fmt.Errorf("autostart: open run key: %w", err)
	}
	defer k.Close()

	_, _, err = k.GetStringValue(valueName)
	if err == registry.ErrNotExist {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("autostart: read run value: %w", err)
	}
	return true, nil
}

// SetEnabled writes or removes the Run value pointing at this binary.
func (m *Manager) SetEnabled(enabled bool) error {
	k, err := registry.OpenKey(registry.CURRENT_USER, runKeyPath, registry.SET_VALUE)
	if err != nil {
		return fmt.Errorf("autostart: open run key: %w", err)
	}
	defer k.Close()

	if !enabled {
		if err := k.DeleteValue(valueName); err != nil && err != registry.ErrNotExist {
			return fmt.Errorf("autostart: delete run value: %w", err)
		}
		return nil
	}

	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("autostart: resolve executable: %w", err)
	}
	if err := k.SetStringValue(valueName, fmt.Sprintf("%q", exe)); err != nil {
		return fmt.Errorf("autostart: set run value: %w", err)
	}
	return nil
}
