//go:build windows

package winapi

import (
	"log/slog"

	"glaze/internal/taskbar"
)

// New creates the platform environment and event source for the engine.
func New(log *slog.Logger) (taskbar.Environment, taskbar.EventSource, error) {
	env, err := NewEnvironment(log)
	if err != nil {
		return nil, nil, err
	}
	return env, NewEventSource(log), nil
}
