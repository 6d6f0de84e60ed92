//go:build windows

package ipc

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sync/atomic"
	"syscall"
	"time"
	"unsafe"
)

const (
	pipeAccessDuplex       = 0x00000003
	pipeTypeByte           = 0x00000000
	pipeReadModeByte       = 0x00000000
	pipeWait               = 0x00000000
	pipeUnlimitedInstances = 255
	pipeBufferSize         = 64 * 1024

	errorPipeConnected = 535
	errorPipeBusy      = 231
)

var (
	kernel32                = syscall.NewLazyDLL("kernel32.dll")
	procCreateNamedPipeW    = kernel32.NewProc("CreateNamedPipeW")
	procConnectNamedPipe    = kernel32.NewProc("ConnectNamedPipe")
	procDisconnectNamedPipe = kernel32.NewProc("DisconnectNamedPipe")
)

// pipePath converts a socket path into a per-user named pipe name, so
// two users running glazed do not collide.
func pipePath(socketPath string) string {
	user := os.Getenv("USERNAME")
	if user == "" {
		user = "default"
	}
	return fmt.Sprintf(`\\.\pipe\glaze-%s-%s`, user, filepath.Base(socketPath))
}

func createNamedPipe(name string) (syscall.Handle, error) {
	namep, err := syscall.UTF16PtrFromString(name)
	if err != nil {
		return syscall.InvalidHandle, err
	}

	// Byte mode: the protocol frames messages itself.
	handle, _, callErr := procCreateNamedPipeW.Call(
		uintptr(unsafe.Pointer(namep)),
		pipeAccessDuplex,
		pipeTypeByte|pipeReadModeByte|pipeWait,
		pipeUnlimitedInstances,
		pipeBufferSize,
		pipeBufferSize,
		0,
		0, // default security descriptor, current user only
	)
	if handle == uintptr(syscall.InvalidHandle) {
		return syscall.InvalidHandle, callErr
	}
	return syscall.Handle(handle), nil
}

func connectNamedPipe(handle syscall.Handle) error {
	r, _, callErr := procConnectNamedPipe.Call(uintptr(handle), 0)
	if r == 0 {
		if errno, ok := callErr.(syscall.Errno); ok && errno == errorPipeConnected {
			return nil
		}
		return callErr
	}
	return nil
}

// pipeListener implements net.Listener over Windows named pipes. Each
// Accept creates a fresh pipe instance and blocks until a client connects.
type pipeListener struct {
	name   string
	closed atomic.Bool
}

func listen(path string) (net.Listener, error) {
	return &pipeListener{name: pipePath(path)}, nil
}

func (l *pipeListener) Accept() (net.Conn, error) {
	if l.closed.Load() {
		return nil, net.ErrClosed
	}
	handle, err := createNamedPipe(l.name)
	if err != nil {
		return nil, fmt.Errorf("ipc: create pipe: %w", err)
	}
	if err := connectNamedPipe(handle); err != nil {
		syscall.CloseHandle(handle)
		if l.closed.Load() {
			return nil, net.ErrClosed
		}
		return nil, fmt.Errorf("ipc: connect pipe: %w", err)
	}
	if l.closed.Load() {
		syscall.CloseHandle(handle)
		return nil, net.ErrClosed
	}
	return &pipeConn{handle: handle, name: l.name}, nil
}

func (l *pipeListener) Close() error {
	l.closed.Store(true)
	// Unblock a pending Accept by connecting to our own pipe.
	if handle, err := syscall.CreateFile(
		syscall.StringToUTF16Ptr(l.name),
		syscall.GENERIC_READ|syscall.GENERIC_WRITE,
		0, nil, syscall.OPEN_EXISTING, 0, 0,
	); err == nil {
		syscall.CloseHandle(handle)
	}
	return nil
}

func (l *pipeListener) Addr() net.Addr {
	return pipeAddr(l.name)
}

// pipeConn implements net.Conn over a named pipe handle.
type pipeConn struct {
	handle syscall.Handle
	name   string
}

func (c *pipeConn) Read(b []byte) (int, error) {
	var n uint32
	err := syscall.ReadFile(c.handle, b, &n, nil)
	return int(n), err
}

func (c *pipeConn) Write(b []byte) (int, error) {
	var n uint32
	err := syscall.WriteFile(c.handle, b, &n, nil)
	return int(n), err
}

func (c *pipeConn) Close() error {
	procDisconnectNamedPipe.Call(uintptr(c.handle))
	return syscall.CloseHandle(c.handle)
}

func (c *pipeConn) LocalAddr() net.Addr  { return pipeAddr(c.name) }
func (c *pipeConn) RemoteAddr() net.Addr { return pipeAddr(c.name) }

// Named pipe handles opened without overlapped I/O cannot honor
// deadlines; idle connections are bounded by the protocol instead.
func (c *pipeConn) SetDeadline(t time.Time) error      { return nil }
func (c *pipeConn) SetReadDeadline(t time.Time) error  { return nil }
func (c *pipeConn) SetWriteDeadline(t time.Time) error { return nil }

type pipeAddr string

func (a pipeAddr) Network() string { return "pipe" }
func (a pipeAddr) String() string  { return string(a) }

// dial connects to the named pipe derived from path, retrying while the
// pipe is busy.
func dial(path string, timeout time.Duration) (net.Conn, error) {
	name := pipePath(path)
	deadline := time.Now().Add(timeout)

	for {
		handle, err := syscall.CreateFile(
			syscall.StringToUTF16Ptr(name),
			syscall.GENERIC_READ|syscall.GENERIC_WRITE,
			0, nil, syscall.OPEN_EXISTING, 0, 0,
		)
		if err == nil {
			return &pipeConn{handle: handle, name: name}, nil
		}
		errno, ok := err.(syscall.Errno)
		if !ok || errno != errorPipeBusy || time.Now().After(deadline) {
			return nil, fmt.Errorf("ipc: dial %s: %w", name, err)
		}
		time.Sleep(100 * time.Millisecond)
	}
}

// cleanupSocket is a no-op on Windows; the system reclaims pipe instances.
func cleanupSocket(path string) {}
