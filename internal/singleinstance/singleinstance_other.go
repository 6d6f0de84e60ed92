//go:build !windows

// Package singleinstance ensures only one glazed runs per session.
package singleinstance

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"glaze/internal/config"
)

// ErrAlreadyRunning means another instance holds the lock.
var ErrAlreadyRunning = errors.New("singleinstance: another instance is already running")

// Lock is a held single-instance claim backed by a pid file.
type Lock struct {
	path string
	file *os.File
}

// Acquire claims the lock file in the runtime directory. A stale file
// left by a dead process is taken over.
func Acquire() (*Lock, error) {
	path := filepath.Join(config.PlatformRuntimeDir(), "glazed.pid")
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("singleinstance: create runtime dir: %w", err)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, fmt.Errorf("singleinstance: open pid file: %w", err)
	}

	if err := syscall.Flock(int(file.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		file.Close()
		if errors.Is(err, syscall.EWOULDBLOCK) {
			return nil, ErrAlreadyRunning
		}
		return nil, fmt.Errorf("singleinstance: lock pid file: %w", err)
	}

	file.Truncate(0)
	file.Seek(0, 0)
	fmt.Fprintf(file, "%d\n", os.Getpid())
	file.Sync()

	return &Lock{path: path, file: file}, nil
}

// OwnerPID reads the pid recorded in the lock file, if any.
func OwnerPID() (int, bool) {
	path := filepath.Join(config.PlatformRuntimeDir(), "glazed.pid")
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, false
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, false
	}
	return pid, true
}

// Release gives up the claim and removes the pid file.
func (l *Lock) Release() error {
	if l.file == nil {
		return nil
	}
	syscall.Flock(int(l.file.Fd()), syscall.LOCK_UN)
	err := l.file.Close()
	l.file = nil
	os.Remove(l.path)
	return err
}
