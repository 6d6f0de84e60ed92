package taskbar

import (
	"glaze/internal/appearance"
	"glaze/internal/config"
)

// Resolve decides the appearance for the taskbar on monitor m, given a
// snapshot and the active configuration. It is a pure function: no
// window-system calls, no side effects, total over its inputs. Every
// call returns a usable appearance; the desktop appearance is the
// unconditional fallback.
//
// Precedence, highest first: Start menu, search, task view, maximised
// window on m, visible window on m, desktop. Shell surfaces only affect
// the taskbar on the foreground monitor; a Start menu open on one
// display should not restyle the others.
func Resolve(cfg *config.Config, snap Snapshot, m Monitor) (appearance.Taskbar, State) {
	// While peeking, show the desktop appearance whenever the configured
	// peek rules qualify. RegularOnPeek opts out of the override and
	// keeps normal resolution instead.
	if snap.PeekActive && !cfg.RegularOnPeek && peekQualifies(cfg.Peek, snap, snap.Primary) {
		return cfg.Desktop, StateDesktop
	}

	if m == snap.ForegroundMonitor {
		switch {
		case snap.StartOpen && cfg.StartOpened.Enabled:
			return cfg.StartOpened.Appearance(), StateStartOpened
		case snap.SearchOpen && cfg.CortanaOpened.Enabled:
			return cfg.CortanaOpened.Appearance(), StateSearchOpened
		case snap.TaskViewOpen && cfg.TimelineOpened.Enabled:
			return cfg.TimelineOpened.Appearance(), StateTaskViewOpened
		}
	}

	if snap.MaximisedOn[m] && cfg.MaximisedWindow.Enabled {
		return cfg.MaximisedWindow.Appearance(), StateMaximised
	}

	if snap.VisibleOn[m] && cfg.VisibleWindow.Enabled {
		return cfg.VisibleWindow.Appearance(), StateVisible
	}

	return cfg.Desktop, StateDesktop
}

// ResolvePeekButton decides whether the peek-at-desktop button should be
// shown, given the configured behavior. Pure, like Resolve.
func ResolvePeekButton(behavior appearance.PeekBehavior, snap Snapshot, primary Monitor) bool {
	return peekQualifies(behavior, snap, primary)
}

// peekQualifies evaluates the configured peek rules against a snapshot.
// The same rules govern both the desktop override while a peek is in
// progress and the visibility of the peek button.
func peekQualifies(behavior appearance.PeekBehavior, snap Snapshot, primary Monitor) bool {
	switch behavior {
	case appearance.PeekAlwaysShow:
		return true
	case appearance.PeekMaximisedMainMonitor:
		return snap.MaximisedOn[primary]
	case appearance.PeekMaximisedAnyMonitor:
		return snap.AnyMaximised()
	case appearance.PeekDesktopForeground:
		return snap.DesktopForeground
	case appearance.PeekAlwaysHide:
		return false
	default:
		return true
	}
}
