//go:build windows

package winapi

import "unsafe"

const (
	mbOK              = 0x00000000
	mbIconInformation = 0x00000040
)

// Notify shows an informational message box. It blocks until the user
// dismisses it, so callers usually run it on its own goroutine.
func Notify(title, body string) {
	procMessageBoxW.Call(0,
		uintptr(unsafe.Pointer(utf16Ptr(body))),
		uintptr(unsafe.Pointer(utf16Ptr(title))),
		mbOK|mbIconInformation)
}
