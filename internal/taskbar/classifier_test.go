package taskbar

import "testing"

func TestSnapshotDesktopForeground(t *testing.T) {
	env := newFakeEnv()
	desktop := Window(10)
	env.setWindow(desktop, WindowInfo{Class: "Progman", Visible: true, Monitor: Monitor(1)})
	env.setForeground(desktop)

	snap := TakeSnapshot(env, false)
	if !snap.DesktopForeground {
		t.Error("Progman foreground should set DesktopForeground")
	}
	if snap.StartOpen || snap.SearchOpen || snap.TaskViewOpen {
		t.Error("no shell surface should be open")
	}
}

func TestSnapshotStartViaLauncher(t *testing.T) {
	env := newFakeEnv()
	env.launcher = true

	snap := TakeSnapshot(env, false)
	if !snap.StartOpen {
		t.Error("launcher visibility should set StartOpen")
	}
}

func TestSnapshotSearchForeground(t *testing.T) {
	env := newFakeEnv()
	search := Window(20)
	env.setWindow(search, WindowInfo{
		Class: "Windows.UI.Core.CoreWindow", Title: "Search", Visible: true, Monitor: Monitor(1),
	})
	env.setForeground(search)

	snap := TakeSnapshot(env, false)
	if !snap.SearchOpen {
		t.Error("Search CoreWindow foreground should set SearchOpen")
	}
	if snap.ForegroundMonitor != Monitor(1) {
		t.Errorf("ForegroundMonitor = %v", snap.ForegroundMonitor)
	}
}

func TestSnapshotStartWinsOverSearch(t *testing.T) {
	env := newFakeEnv()
	search := Window(20)
	env.setWindow(search, WindowInfo{
		Class: "Windows.UI.Core.CoreWindow", Title: "Search", Visible: true, Monitor: Monitor(1),
	})
	env.setForeground(search)
	env.launcher = true

	snap := TakeSnapshot(env, false)
	if !snap.StartOpen {
		t.Error("StartOpen should be set")
	}
	if snap.SearchOpen {
		t.Error("Start must win the Start-versus-search tie")
	}
}

func TestSnapshotTaskView(t *testing.T) {
	env := newFakeEnv()
	tv := Window(30)
	env.setWindow(tv, WindowInfo{Class: "MultitaskingViewFrame", Visible: true, Monitor: Monitor(1)})
	env.setForeground(tv)

	snap := TakeSnapshot(env, false)
	if !snap.TaskViewOpen {
		t.Error("MultitaskingViewFrame foreground should set TaskViewOpen")
	}
}

func TestSnapshotPerMonitorScan(t *testing.T) {
	env := newFakeEnv()
	env.setWindow(Window(1), WindowInfo{Class: "Notepad", Visible: true, Maximised: true, Monitor: Monitor(1)})
	env.setWindow(Window(2), WindowInfo{Class: "Chrome_WidgetWin_1", Visible: true, Monitor: Monitor(2)})
	// Shell windows and invisible or cloaked windows are ignored.
	env.setWindow(Window(3), WindowInfo{Class: "Shell_TrayWnd", Visible: true, Monitor: Monitor(1)})
	env.setWindow(Window(4), WindowInfo{Class: "Notepad", Visible: false, Maximised: true, Monitor: Monitor(2)})
	env.setWindow(Window(5), WindowInfo{Class: "ApplicationFrameWindow", Visible: true, Cloaked: true, Maximised: true, Monitor: Monitor(2)})

	snap := TakeSnapshot(env, false)

	if !snap.MaximisedOn[Monitor(1)] {
		t.Error("monitor 1 should have a maximised window")
	}
	if snap.MaximisedOn[Monitor(2)] {
		t.Error("monitor 2 maximised windows are invisible or cloaked and must not count")
	}
	if !snap.VisibleOn[Monitor(2)] {
		t.Error("monitor 2 should have a visible window")
	}
	if snap.VisibleOn[Monitor(1)] {
		t.Error("monitor 1 has only maximised and shell windows")
	}
}

func TestSnapshotCarriesPeek(t *testing.T) {
	env := newFakeEnv()
	if snap := TakeSnapshot(env, true); !snap.PeekActive {
		t.Error("PeekActive not carried through")
	}
	if snap := TakeSnapshot(env, false); snap.PeekActive {
		t.Error("PeekActive should be false")
	}
}
