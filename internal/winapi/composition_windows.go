//go:build windows

package winapi

import (
	"fmt"
	"unsafe"
)

// accentPolicy mirrors the undocumented ACCENT_POLICY structure consumed
// by SetWindowCompositionAttribute.
type accentPolicy struct {
	AccentState   uint32
	AccentFlags   uint32
	GradientColor uint32
	AnimationID   uint32
}

// windowCompositionAttribData mirrors WINDOWCOMPOSITIONATTRIBDATA.
type windowCompositionAttribData struct {
	Attrib uintptr
	PvData unsafe.Pointer
	CbData uintptr
}

// wcaAccentPolicy selects the accent policy attribute.
const wcaAccentPolicy = 19

// accentFlagsAllBorders keeps the accent applied to every edge of the
// window, matching how the shell styles the taskbar itself.
const accentFlagsAllBorders = 2

// setComposition applies an accent state and AABBGGRR gradient color to
// a window. accent comes pre-encoded from the appearance package.
func setComposition(hwnd uintptr, accent uint32, color uint32) error {
	if err := procSetWindowCompositionAttribute.Find(); err != nil {
		return fmt.Errorf("%w: SetWindowCompositionAttribute missing", ErrUnsupported)
	}

	policy := accentPolicy{
		AccentState:   accent,
		AccentFlags:   accentFlagsAllBorders,
		GradientColor: color,
	}
	data := windowCompositionAttribData{
		Attrib: wcaAccentPolicy,
		PvData: unsafe.Pointer(&policy),
		CbData: unsafe.Sizeof(policy),
	}

	ret, _, callErr := procSetWindowCompositionAttribute.Call(hwnd, uintptr(unsafe.Pointer(&data)))
	if ret == 0 {
		return fmt.Errorf("SetWindowCompositionAttribute on %#x: %w", hwnd, callErr)
	}
	return nil
}
