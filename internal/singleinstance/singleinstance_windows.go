//go:build windows

// Package singleinstance ensures only one glazed runs per session.
// Two daemons fighting over the same taskbars would undo each other's
// work on every event.
package singleinstance

import (
	"errors"

	"golang.org/x/sys/windows"
)

// ErrAlreadyRunning means another instance holds the lock.
var ErrAlreadyRunning = errors.New("singleinstance: another instance is already running")

const mutexName = `Local\glaze-single-instance`

// Lock is a held single-instance claim.
type Lock struct {
	handle windows.Handle
}

// Acquire claims the per-session mutex. It fails with ErrAlreadyRunning
// when another process already holds it.
func Acquire() (*Lock, error) {
	name, err := windows.UTF16PtrFromString(mutexName)
	if err != nil {
		return nil, err
	}

	handle, err := windows.CreateMutex(nil, false, name)
	if err != nil {
		if errors.Is(err, windows.ERROR_ALREADY_EXISTS) {
			if handle != 0 {
				windows.CloseHandle(handle)
			}
			return nil, ErrAlreadyRunning
		}
		return nil, err
	}
	return &Lock{handle: handle}, nil
}

// Release gives up the claim.
func (l *Lock) Release() error {
	if l.handle == 0 {
		return nil
	}
	err := windows.CloseHandle(l.handle)
	l.handle = 0
	return err
}
