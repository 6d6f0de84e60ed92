//go:build windows

package winapi

import (
	"fmt"
	"log/slog"
	"sync"
	"syscall"
	"unsafe"

	"glaze/internal/taskbar"
)

// environment implements taskbar.Environment on Windows.
type environment struct {
	log *slog.Logger
	vis *appVisibility
}

// NewEnvironment creates the Windows environment. The launcher query is
// best effort; if the COM interface is unavailable the environment
// still works, minus Start menu detection.
func NewEnvironment(log *slog.Logger) (taskbar.Environment, error) {
	if log == nil {
		log = slog.Default()
	}
	env := &environment{log: log.With("component", "winapi")}

	vis, err := newAppVisibility()
	if err != nil {
		env.log.Warn("launcher visibility unavailable", "error", err)
	} else {
		env.vis = vis
	}
	return env, nil
}

func utf16Ptr(s string) *uint16 {
	p, _ := syscall.UTF16PtrFromString(s)
	return p
}

func findWindow(class string) uintptr {
	hwnd, _, _ := procFindWindowW.Call(uintptr(unsafe.Pointer(utf16Ptr(class))), 0)
	return hwnd
}

func findWindowEx(parent, after uintptr, class string) uintptr {
	hwnd, _, _ := procFindWindowExW.Call(parent, after, uintptr(unsafe.Pointer(utf16Ptr(class))), 0)
	return hwnd
}

func (e *environment) Taskbars() ([]taskbar.Taskbar, error) {
	var bars []taskbar.Taskbar

	primary := findWindow("Shell_TrayWnd")
	if primary == 0 {
		return nil, fmt.Errorf("winapi: no Shell_TrayWnd found")
	}
	bars = append(bars, taskbar.Taskbar{
		Window:  taskbar.Window(primary),
		Monitor: monitorFromWindow(primary),
	})

	var after uintptr
	for {
		hwnd := findWindowEx(0, after, "Shell_SecondaryTrayWnd")
		if hwnd == 0 {
			break
		}
		bars = append(bars, taskbar.Taskbar{
			Window:    taskbar.Window(hwnd),
			Monitor:   monitorFromWindow(hwnd),
			Secondary: true,
		})
		after = hwnd
	}

	return bars, nil
}

func (e *environment) ForegroundWindow() taskbar.Window {
	hwnd, _, _ := procGetForegroundWindow.Call()
	return taskbar.Window(hwnd)
}

func (e *environment) WindowInfo(w taskbar.Window) (taskbar.WindowInfo, bool) {
	hwnd := uintptr(w)
	if hwnd == 0 {
		return taskbar.WindowInfo{}, false
	}
	if alive, _, _ := procIsWindow.Call(hwnd); alive == 0 {
		return taskbar.WindowInfo{}, false
	}

	var info taskbar.WindowInfo

	var classBuf [256]uint16
	n, _, _ := procGetClassNameW.Call(hwnd, uintptr(unsafe.Pointer(&classBuf[0])), uintptr(len(classBuf)))
	info.Class = syscall.UTF16ToString(classBuf[:n])

	var titleBuf [256]uint16
	n, _, _ = procGetWindowTextW.Call(hwnd, uintptr(unsafe.Pointer(&titleBuf[0])), uintptr(len(titleBuf)))
	info.Title = syscall.UTF16ToString(titleBuf[:n])

	visible, _, _ := procIsWindowVisible.Call(hwnd)
	info.Visible = visible != 0

	zoomed, _, _ := procIsZoomed.Call(hwnd)
	info.Maximised = zoomed != 0

	// UWP windows report visible while suspended; DWM cloaking is the
	// truth for whether anything is actually on screen.
	var cloaked uint32
	ret, _, _ := procDwmGetWindowAttribute.Call(hwnd, dwmwaCloaked,
		uintptr(unsafe.Pointer(&cloaked)), unsafe.Sizeof(cloaked))
	if ret == 0 && cloaked != 0 {
		info.Cloaked = true
	}

	info.Monitor = monitorFromWindow(hwnd)
	return info, true
}

// EnumWindows callbacks are created once: syscall.NewCallback slots are
// a finite process-wide resource and VisibleWindows runs every
// evaluation.
var (
	enumMu   sync.Mutex
	enumWins []taskbar.Window
	enumCb   = syscall.NewCallback(func(hwnd, lparam uintptr) uintptr {
		if visible, _, _ := procIsWindowVisible.Call(hwnd); visible != 0 {
			enumWins = append(enumWins, taskbar.Window(hwnd))
		}
		return 1 // continue enumeration
	})
)

func (e *environment) VisibleWindows() []taskbar.Window {
	enumMu.Lock()
	defer enumMu.Unlock()
	enumWins = enumWins[:0]
	procEnumWindows.Call(enumCb, 0)
	out := make([]taskbar.Window, len(enumWins))
	copy(out, enumWins)
	return out
}

func (e *environment) PrimaryMonitor() taskbar.Monitor {
	// MonitorFromPoint takes POINT by value; on 64-bit it packs into a
	// single argument, and the origin is always on the primary display.
	hmon, _, _ := procMonitorFromPoint.Call(0, monitorDefaultToPrimary)
	return taskbar.Monitor(hmon)
}

func (e *environment) LauncherVisible() bool {
	if e.vis == nil {
		return false
	}
	visible, err := e.vis.IsLauncherVisible()
	if err != nil {
		e.log.Debug("IsLauncherVisible failed", "error", err)
		return false
	}
	return visible
}

func (e *environment) SetComposition(w taskbar.Window, accent uint32, color uint32) error {
	return setComposition(uintptr(w), accent, color)
}

func (e *environment) SetPeekButtonVisible(visible bool) error {
	tray := findWindow("Shell_TrayWnd")
	if tray == 0 {
		return fmt.Errorf("winapi: no Shell_TrayWnd found")
	}
	notify := findWindowEx(tray, 0, "TrayNotifyWnd")
	if notify == 0 {
		return fmt.Errorf("winapi: no TrayNotifyWnd found")
	}
	peek := findWindowEx(notify, 0, "TrayShowDesktopButtonWClass")
	if peek == 0 {
		return fmt.Errorf("winapi: no peek button found")
	}

	cmd := uintptr(swHide)
	if visible {
		cmd = swShow
	}
	procShowWindow.Call(peek, cmd)
	return nil
}

func monitorFromWindow(hwnd uintptr) taskbar.Monitor {
	hmon, _, _ := procMonitorFromWindow.Call(hwnd, monitorDefaultToNearest)
	return taskbar.Monitor(hmon)
}
