//go:build !windows

package winapi

import (
	"log/slog"

	"glaze/internal/taskbar"
)

// New reports that taskbar composition needs Windows. The daemon still
// builds here so the engine and its tests run everywhere.
func New(log *slog.Logger) (taskbar.Environment, taskbar.EventSource, error) {
	return nil, nil, ErrUnsupported
}
