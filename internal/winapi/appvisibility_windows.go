//go:build windows

package winapi

import (
	"fmt"
	"syscall"
	"unsafe"

	ole "github.com/go-ole/go-ole"
)

// The shell's IAppVisibility interface reports whether the Start screen
// or menu is currently showing.
var (
	clsidAppVisibility = ole.NewGUID("{7E5FE3D9-985F-4908-91F9-EE19F9FD1514}")
	iidIAppVisibility  = ole.NewGUID("{2246EA2D-CAEA-4444-A3C4-6DE827E44313}")
)

type appVisibility struct {
	inst *ole.IUnknown
}

type iAppVisibilityVtbl struct {
	ole.IUnknownVtbl
	GetAppVisibilityOnMonitor uintptr
	IsLauncherVisible         uintptr
	Advise                    uintptr
	Unadvise                  uintptr
}

// newAppVisibility initializes COM on the calling thread if needed and
// creates the shell's AppVisibility object.
func newAppVisibility() (*appVisibility, error) {
	// Multithreaded apartment: the worker goroutine is not tied to one
	// OS thread.
	if err := ole.CoInitializeEx(0, ole.COINIT_MULTITHREADED); err != nil {
		oleErr, ok := err.(*ole.OleError)
		// S_FALSE and RPC_E_CHANGED_MODE mean COM is already up.
		if !ok || (oleErr.Code() != 1 && oleErr.Code() != 0x80010106) {
			return nil, fmt.Errorf("initialize COM: %w", err)
		}
	}

	inst, err := ole.CreateInstance(clsidAppVisibility, iidIAppVisibility)
	if err != nil {
		return nil, fmt.Errorf("create AppVisibility: %w", err)
	}
	return &appVisibility{inst: inst}, nil
}

func (a *appVisibility) vtbl() *iAppVisibilityVtbl {
	return (*iAppVisibilityVtbl)(unsafe.Pointer(a.inst.RawVTable))
}

// IsLauncherVisible reports whether the Start menu is open.
func (a *appVisibility) IsLauncherVisible() (bool, error) {
	var visible int32
	hr, _, _ := syscall.SyscallN(a.vtbl().IsLauncherVisible,
		uintptr(unsafe.Pointer(a.inst)),
		uintptr(unsafe.Pointer(&visible)))
	if hr != 0 {
		return false, ole.NewError(hr)
	}
	return visible != 0, nil
}

// Close releases the COM object.
func (a *appVisibility) Close() {
	if a.inst != nil {
		a.inst.Release()
		a.inst = nil
	}
}
