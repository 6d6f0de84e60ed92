// Package winapi implements the taskbar engine's Environment and
// EventSource against the Windows window system. Everything goes
// through lazily loaded user32/dwmapi procedures so the package builds
// without cgo; on other platforms New returns ErrUnsupported so the
// rest of the daemon can still be built and tested.
package winapi

import "glaze/internal/taskbar"

// ErrUnsupported aliases the engine's sentinel so callers only need one
// error to check.
var ErrUnsupported = taskbar.ErrUnsupported
