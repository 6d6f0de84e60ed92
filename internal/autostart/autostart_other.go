//go:build !windows

// Package autostart manages launching glazed at login.
package autostart

import "errors"

// ErrUnsupported is returned on platforms without an autostart hook.
var ErrUnsupported = errors.New("autostart: not supported on this platform")

// Manager is a stub on non-Windows platforms.
type Manager struct{}

// New returns the platform autostart manager.
func New() *Manager {
	return &Manager{}
}

// Enabled always reports false.
func (m *Manager) Enabled() (bool, error) {
	return false, ErrUnsupported
}

// SetEnabled always fails.
func (m *Manager) SetEnabled(bool) error {
	return ErrUnsupported
}
