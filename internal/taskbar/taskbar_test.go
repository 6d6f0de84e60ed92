package taskbar

import (
	"sync"
	"testing"
	"time"
)

// fakeEnv is a scriptable Environment for engine tests.
type fakeEnv struct {
	mu sync.Mutex

	taskbars   []Taskbar
	taskbarErr error
	foreground Window
	windows    map[Window]WindowInfo
	primary    Monitor
	launcher   bool

	compositions []compositionCall
	compErr      map[Window]error

	peekButton      *bool
	peekButtonCalls int

	enumerations int
}

type compositionCall struct {
	Window Window
	Accent uint32
	Color  uint32
}

func newFakeEnv() *fakeEnv {
	return &fakeEnv{
		windows: make(map[Window]WindowInfo),
		compErr: make(map[Window]error),
		primary: Monitor(1),
	}
}

func (e *fakeEnv) Taskbars() ([]Taskbar, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.enumerations++
	if e.taskbarErr != nil {
		return nil, e.taskbarErr
	}
	out := make([]Taskbar, len(e.taskbars))
	copy(out, e.taskbars)
	return out, nil
}

func (e *fakeEnv) ForegroundWindow() Window {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.foreground
}

func (e *fakeEnv) WindowInfo(w Window) (WindowInfo, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	info, ok := e.windows[w]
	return info, ok
}

func (e *fakeEnv) VisibleWindows() []Window {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []Window
	for w := range e.windows {
		out = append(out, w)
	}
	return out
}

func (e *fakeEnv) PrimaryMonitor() Monitor {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.primary
}

func (e *fakeEnv) LauncherVisible() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.launcher
}

func (e *fakeEnv) SetComposition(w Window, accent uint32, color uint32) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.compErr[w]; err != nil {
		return err
	}
	e.compositions = append(e.compositions, compositionCall{Window: w, Accent: accent, Color: color})
	return nil
}

func (e *fakeEnv) SetPeekButtonVisible(visible bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.peekButton = &visible
	e.peekButtonCalls++
	return nil
}

func (e *fakeEnv) setForeground(w Window) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.foreground = w
}

func (e *fakeEnv) setWindow(w Window, info WindowInfo) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.windows[w] = info
}

func (e *fakeEnv) removeWindow(w Window) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.windows, w)
}

func (e *fakeEnv) setCompErr(w Window, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err == nil {
		delete(e.compErr, w)
	} else {
		e.compErr[w] = err
	}
}

func (e *fakeEnv) calls() []compositionCall {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]compositionCall, len(e.compositions))
	copy(out, e.compositions)
	return out
}

func (e *fakeEnv) callsFor(w Window) []compositionCall {
	var out []compositionCall
	for _, c := range e.calls() {
		if c.Window == w {
			out = append(out, c)
		}
	}
	return out
}

func (e *fakeEnv) evalCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.enumerations
}

// fakeSource is a hand-fed EventSource.
type fakeSource struct {
	ch      chan Event
	mu      sync.Mutex
	stopped bool
}

func newFakeSource() *fakeSource {
	return &fakeSource{ch: make(chan Event, 128)}
}

func (s *fakeSource) Start() error { return nil }

func (s *fakeSource) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.stopped {
		s.stopped = true
		close(s.ch)
	}
	return nil
}

func (s *fakeSource) Events() <-chan Event { return s.ch }

func (s *fakeSource) send(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.stopped {
		s.ch <- ev
	}
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}
