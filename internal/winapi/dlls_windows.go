//go:build windows

package winapi

import "syscall"

var (
	user32   = syscall.NewLazyDLL("user32.dll")
	dwmapi   = syscall.NewLazyDLL("dwmapi.dll")
	kernel32 = syscall.NewLazyDLL("kernel32.dll")

	procFindWindowW                   = user32.NewProc("FindWindowW")
	procFindWindowExW                 = user32.NewProc("FindWindowExW")
	procGetForegroundWindow           = user32.NewProc("GetForegroundWindow")
	procGetClassNameW                 = user32.NewProc("GetClassNameW")
	procGetWindowTextW                = user32.NewProc("GetWindowTextW")
	procIsWindowVisible               = user32.NewProc("IsWindowVisible")
	procIsZoomed                      = user32.NewProc("IsZoomed")
	procIsWindow                      = user32.NewProc("IsWindow")
	procEnumWindows                   = user32.NewProc("EnumWindows")
	procMonitorFromWindow             = user32.NewProc("MonitorFromWindow")
	procMonitorFromPoint              = user32.NewProc("MonitorFromPoint")
	procShowWindow                    = user32.NewProc("ShowWindow")
	procSetWindowCompositionAttribute = user32.NewProc("SetWindowCompositionAttribute")
	procSetWinEventHook               = user32.NewProc("SetWinEventHook")
	procUnhookWinEvent                = user32.NewProc("UnhookWinEvent")
	procGetMessageW                   = user32.NewProc("GetMessageW")
	procTranslateMessage              = user32.NewProc("TranslateMessage")
	procDispatchMessageW              = user32.NewProc("DispatchMessageW")
	procDefWindowProcW                = user32.NewProc("DefWindowProcW")
	procRegisterClassExW              = user32.NewProc("RegisterClassExW")
	procCreateWindowExW               = user32.NewProc("CreateWindowExW")
	procDestroyWindow                 = user32.NewProc("DestroyWindow")
	procPostMessageW                  = user32.NewProc("PostMessageW")
	procPostQuitMessage               = user32.NewProc("PostQuitMessage")
	procMessageBoxW                   = user32.NewProc("MessageBoxW")

	procDwmGetWindowAttribute = dwmapi.NewProc("DwmGetWindowAttribute")

	procGetModuleHandleW = kernel32.NewProc("GetModuleHandleW")
)

const (
	monitorDefaultToNearest = 0x0002
	monitorDefaultToPrimary = 0x0001

	swHide = 0
	swShow = 5

	dwmwaCloaked = 14

	hwndMessage = ^uintptr(2) // HWND_MESSAGE: message-only window parent

	wmClose         = 0x0010
	wmSettingChange = 0x001A
	wmDisplayChange = 0x007E
	wmDestroy       = 0x0002

	// Win event constants for SetWinEventHook.
	eventSystemForeground     = 0x0003
	eventSystemMinimizeStart  = 0x0016
	eventSystemMinimizeEnd    = 0x0017
	eventSystemPeekStart      = 0x0021
	eventSystemPeekEnd        = 0x0022
	eventObjectCreate         = 0x8000
	eventObjectDestroy        = 0x8001
	eventObjectLocationChange = 0x800B

	winEventOutOfContext = 0x0000

	objidWindow = 0
	childidSelf = 0
)

type point struct {
	X int32
	Y int32
}

type wndClassExW struct {
	Size       uint32
	Style      uint32
	WndProc    uintptr
	ClsExtra   int32
	WndExtra   int32
	Instance   uintptr
	Icon       uintptr
	Cursor     uintptr
	Background uintptr
	MenuName   *uint16
	ClassName  *uint16
	IconSm     uintptr
}

type msg struct {
	Hwnd    uintptr
	Message uint32
	WParam  uintptr
	LParam  uintptr
	Time    uint32
	Pt      point
}
