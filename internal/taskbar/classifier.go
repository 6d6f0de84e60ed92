package taskbar

import "strings"

// State classifies what the user is looking at, from the point of view
// of a single taskbar. Higher values never outrank lower ones; the
// resolver encodes precedence explicitly.
type State int

const (
	// StateDesktop means nothing of interest is on screen.
	StateDesktop State = iota
	// StateVisible means a regular window is visible on the monitor.
	StateVisible
	// StateMaximised means a window is maximised on the monitor.
	StateMaximised
	// StateStartOpened means the Start menu is open.
	StateStartOpened
	// StateSearchOpened means the search or assistant flyout is open.
	StateSearchOpened
	// StateTaskViewOpened means the task view is open.
	StateTaskViewOpened
)

func (s State) String() string {
	switch s {
	case StateDesktop:
		return "desktop"
	case StateVisible:
		return "visible_window"
	case StateMaximised:
		return "maximised_window"
	case StateStartOpened:
		return "start_opened"
	case StateSearchOpened:
		return "cortana_opened"
	case StateTaskViewOpened:
		return "timeline_opened"
	default:
		return "unknown"
	}
}

// Snapshot is a consistent view of the window state, taken once per
// evaluation and shared by every taskbar's resolution. Building it up
// front keeps a single evaluation internally consistent even while
// windows keep moving underneath.
type Snapshot struct {
	Foreground        Window
	ForegroundMonitor Monitor

	// Primary is the main display. The peek rules treat it specially.
	Primary Monitor

	// Shell surface flags. Only one wins; Start outranks search, which
	// outranks task view.
	StartOpen    bool
	SearchOpen   bool
	TaskViewOpen bool

	// DesktopForeground reports that the desktop itself has focus.
	DesktopForeground bool

	// MaximisedOn and VisibleOn record, per monitor, whether any
	// maximised or any regular visible window is present.
	MaximisedOn map[Monitor]bool
	VisibleOn   map[Monitor]bool

	// PeekActive is true while the user holds the peek-at-desktop
	// button. It is event-driven state owned by the worker, not read
	// from the window system.
	PeekActive bool
}

// AnyMaximised reports whether any monitor has a maximised window.
func (s Snapshot) AnyMaximised() bool {
	for _, m := range s.MaximisedOn {
		if m {
			return true
		}
	}
	return false
}

// Window classes that belong to the shell rather than to applications.
const (
	classTaskbar          = "Shell_TrayWnd"
	classSecondaryTaskbar = "Shell_SecondaryTrayWnd"
	classProgman          = "Progman"
	classWorkerW          = "WorkerW"
	classCoreWindow       = "Windows.UI.Core.CoreWindow"
	classTaskView         = "MultitaskingViewFrame"
	classPeekButton       = "TrayShowDesktopButtonWClass"
)

func isTaskbarClass(class string) bool {
	return class == classTaskbar || class == classSecondaryTaskbar
}

func isDesktopClass(class string) bool {
	return class == classProgman || class == classWorkerW
}

// isShellClass reports whether a window belongs to the shell and must be
// excluded from the per-monitor maximised and visible scans.
func isShellClass(class string) bool {
	return isTaskbarClass(class) || isDesktopClass(class) ||
		class == classCoreWindow || class == classTaskView || class == classPeekButton
}

// coreWindowSurface maps a CoreWindow title to the shell surface it
// hosts. Titles are matched loosely because they vary across OS builds
// and locales keep the English word on some of them.
func coreWindowSurface(title string) State {
	switch {
	case title == "Start":
		return StateStartOpened
	case title == "Search" || title == "Cortana":
		return StateSearchOpened
	case strings.EqualFold(title, "Task view") || strings.EqualFold(title, "Task switching"):
		return StateTaskViewOpened
	default:
		return StateDesktop
	}
}

// TakeSnapshot builds a Snapshot from the environment. peekActive is
// the worker's event-driven peek state.
func TakeSnapshot(env Environment, peekActive bool) Snapshot {
	snap := Snapshot{
		Primary:     env.PrimaryMonitor(),
		MaximisedOn: make(map[Monitor]bool),
		VisibleOn:   make(map[Monitor]bool),
		PeekActive:  peekActive,
	}

	fg := env.ForegroundWindow()
	snap.Foreground = fg
	if info, ok := env.WindowInfo(fg); ok && fg != 0 {
		snap.ForegroundMonitor = info.Monitor
		switch {
		case isDesktopClass(info.Class):
			snap.DesktopForeground = true
		case info.Class == classCoreWindow:
			switch coreWindowSurface(info.Title) {
			case StateStartOpened:
				snap.StartOpen = true
			case StateSearchOpened:
				snap.SearchOpen = true
			case StateTaskViewOpened:
				snap.TaskViewOpen = true
			}
		case info.Class == classTaskView:
			snap.TaskViewOpen = true
		}
	}

	// The launcher can be open without owning the foreground window, so
	// also ask the shell directly. When both Start and search claim to
	// be open, Start wins.
	if env.LauncherVisible() {
		snap.StartOpen = true
	}
	if snap.StartOpen {
		snap.SearchOpen = false
	}

	for _, w := range env.VisibleWindows() {
		info, ok := env.WindowInfo(w)
		if !ok || !info.Visible || info.Cloaked {
			continue
		}
		if isShellClass(info.Class) {
			continue
		}
		if info.Maximised {
			snap.MaximisedOn[info.Monitor] = true
		} else {
			snap.VisibleOn[info.Monitor] = true
		}
	}

	return snap
}
