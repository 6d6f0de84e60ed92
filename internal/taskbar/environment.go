// Package taskbar implements the appearance engine: it classifies the
// desktop's window state, resolves the appearance each taskbar should
// have, and applies it through a platform environment.
//
// The package is platform-neutral. All interaction with the window
// system goes through the Environment and EventSource interfaces so the
// engine can run against fakes in tests; the winapi package provides the
// real implementations.
package taskbar

import "errors"

var (
	// ErrUnsupported indicates the platform cannot change taskbar
	// composition, for example an older build without the required
	// compositor call.
	ErrUnsupported = errors.New("taskbar: composition not supported on this platform")

	// ErrAlreadyRunning is returned by Start on a running worker.
	ErrAlreadyRunning = errors.New("taskbar: worker already running")

	// ErrNotRunning is returned by operations requiring a running worker.
	ErrNotRunning = errors.New("taskbar: worker not running")
)

// Window is an opaque handle to a top-level window. The zero value
// means "no window".
type Window uintptr

// Monitor is an opaque handle to a display. The zero value means
// "unknown monitor".
type Monitor uintptr

// Taskbar identifies one taskbar window and the monitor it lives on.
type Taskbar struct {
	Window    Window
	Monitor   Monitor
	Secondary bool
}

// WindowInfo describes a top-level window at snapshot time.
type WindowInfo struct {
	Class     string
	Title     string
	Visible   bool
	Cloaked   bool
	Maximised bool
	Monitor   Monitor
}

// Environment is the engine's view of the window system.
type Environment interface {
	// Taskbars enumerates the current taskbar windows, primary first.
	Taskbars() ([]Taskbar, error)

	// ForegroundWindow returns the window with input focus, or zero.
	ForegroundWindow() Window

	// WindowInfo describes a window. ok is false when the window has
	// gone away between enumeration and inspection.
	WindowInfo(w Window) (info WindowInfo, ok bool)

	// VisibleWindows lists the top-level windows currently visible,
	// used for the per-monitor maximised scan.
	VisibleWindows() []Window

	// PrimaryMonitor returns the main display.
	PrimaryMonitor() Monitor

	// LauncherVisible reports whether the Start menu is open.
	LauncherVisible() bool

	// SetComposition applies an accent state and color to a window.
	// Returns ErrUnsupported when the compositor call is unavailable.
	SetComposition(w Window, accent uint32, color uint32) error

	// SetPeekButtonVisible shows or hides the peek-at-desktop button.
	SetPeekButtonVisible(visible bool) error
}

// EventKind identifies a raw window-system event.
type EventKind int

const (
	// EventForeground fires when the foreground window changes.
	EventForeground EventKind = iota
	// EventWindowCreated fires when a top-level window appears.
	EventWindowCreated
	// EventWindowDestroyed fires when a top-level window goes away.
	EventWindowDestroyed
	// EventWindowStateChanged covers minimise, restore, and maximise
	// transitions.
	EventWindowStateChanged
	// EventPeekStart fires when the user starts peeking at the desktop.
	EventPeekStart
	// EventPeekEnd fires when the peek ends.
	EventPeekEnd
	// EventDisplayChanged fires on resolution, monitor, or system
	// setting changes that can invalidate taskbar enumeration.
	EventDisplayChanged
)

func (k EventKind) String() string {
	switch k {
	case EventForeground:
		return "foreground"
	case EventWindowCreated:
		return "window_created"
	case EventWindowDestroyed:
		return "window_destroyed"
	case EventWindowStateChanged:
		return "window_state_changed"
	case EventPeekStart:
		return "peek_start"
	case EventPeekEnd:
		return "peek_end"
	case EventDisplayChanged:
		return "display_changed"
	default:
		return "unknown"
	}
}

// Event is a raw notification from the window system.
type Event struct {
	Kind   EventKind
	Window Window
}

// EventSource delivers raw window-system events. Implementations own
// whatever OS machinery (hooks, hidden windows, message pumps) is
// needed and translate it into Events.
type EventSource interface {
	// Start begins delivery. Events are dropped, never blocked on, if
	// the receiver falls behind.
	Start() error

	// Stop ends delivery and releases OS resources.
	Stop() error

	// Events returns the delivery channel. Closed after Stop.
	Events() <-chan Event
}
