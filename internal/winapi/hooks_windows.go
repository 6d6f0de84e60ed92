//go:build windows

package winapi

import (
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"syscall"
	"unsafe"

	"glaze/internal/taskbar"
)

const eventSystemMoveSizeEnd = 0x000B

// eventSource implements taskbar.EventSource using out-of-context
// WinEvent hooks plus a message-only window for display and setting
// changes. Hooks require a thread with a message pump, so Start parks a
// locked OS thread in GetMessage until Stop.
type eventSource struct {
	log    *slog.Logger
	events chan taskbar.Event

	mu      sync.Mutex
	started bool
	stopped bool
	hwnd    uintptr
	hooks   []uintptr

	done chan struct{}
}

// Only one source can own the package-level hook callbacks at a time.
var (
	activeMu     sync.Mutex
	activeSource *eventSource
)

// NewEventSource creates the Windows event source.
func NewEventSource(log *slog.Logger) taskbar.EventSource {
	if log == nil {
		log = slog.Default()
	}
	return &eventSource{
		log:    log.With("component", "winevents"),
		events: make(chan taskbar.Event, 64),
		done:   make(chan struct{}),
	}
}

func (s *eventSource) Events() <-chan taskbar.Event {
	return s.events
}

func (s *eventSource) Start() error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return taskbar.ErrAlreadyRunning
	}
	s.started = true
	s.mu.Unlock()

	activeMu.Lock()
	if activeSource != nil {
		activeMu.Unlock()
		return fmt.Errorf("winapi: an event source is already active")
	}
	activeSource = s
	activeMu.Unlock()

	ready := make(chan error, 1)
	go s.pump(ready)

	if err := <-ready; err != nil {
		activeMu.Lock()
		activeSource = nil
		activeMu.Unlock()
		return err
	}
	return nil
}

func (s *eventSource) Stop() error {
	s.mu.Lock()
	if !s.started || s.stopped {
		s.mu.Unlock()
		return nil
	}
	s.stopped = true
	hwnd := s.hwnd
	s.mu.Unlock()

	if hwnd != 0 {
		procPostMessageW.Call(hwnd, wmClose, 0, 0)
	}
	<-s.done

	activeMu.Lock()
	activeSource = nil
	activeMu.Unlock()
	return nil
}

// emit never blocks; a receiver that falls behind loses events, and the
// next one it does see triggers a full re-evaluation anyway.
func (s *eventSource) emit(ev taskbar.Event) {
	select {
	case s.events <- ev:
	default:
	}
}

// Hook and window procedure callbacks are process-wide singletons;
// syscall.NewCallback slots cannot be released.
var (
	winEventCb = syscall.NewCallback(func(hook, event, hwnd, idObject, idChild, thread, time uintptr) uintptr {
		activeMu.Lock()
		src := activeSource
		activeMu.Unlock()
		if src == nil {
			return 0
		}

		switch event {
		case eventSystemForeground:
			src.emit(taskbar.Event{Kind: taskbar.EventForeground, Window: taskbar.Window(hwnd)})
		case eventObjectCreate, eventObjectDestroy:
			// Only top-level window objects matter; child objects spam.
			if int32(idObject) != objidWindow || int32(idChild) != childidSelf {
				return 0
			}
			kind := taskbar.EventWindowCreated
			if event == eventObjectDestroy {
				kind = taskbar.EventWindowDestroyed
			}
			src.emit(taskbar.Event{Kind: kind, Window: taskbar.Window(hwnd)})
		case eventSystemMinimizeStart, eventSystemMinimizeEnd, eventSystemMoveSizeEnd:
			src.emit(taskbar.Event{Kind: taskbar.EventWindowStateChanged, Window: taskbar.Window(hwnd)})
		case eventSystemPeekStart:
			src.emit(taskbar.Event{Kind: taskbar.EventPeekStart})
		case eventSystemPeekEnd:
			src.emit(taskbar.Event{Kind: taskbar.EventPeekEnd})
		}
		return 0
	})

	wndProcCb = syscall.NewCallback(func(hwnd, message, wparam, lparam uintptr) uintptr {
		switch message {
		case wmDisplayChange, wmSettingChange:
			activeMu.Lock()
			src := activeSource
			activeMu.Unlock()
			if src != nil {
				src.emit(taskbar.Event{Kind: taskbar.EventDisplayChanged})
			}
			return 0
		case wmClose:
			procDestroyWindow.Call(hwnd)
			return 0
		case wmDestroy:
			procPostQuitMessage.Call(0)
			return 0
		}
		ret, _, _ := procDefWindowProcW.Call(hwnd, message, wparam, lparam)
		return ret
	})
)

var registerClassOnce sync.Once

const messageWindowClass = "GlazeEventWindow"

// pump runs on its own locked OS thread: it creates the message-only
// window, installs the hooks, and services the message loop until a
// WM_QUIT posted by Stop's WM_CLOSE tears it down.
func (s *eventSource) pump(ready chan<- error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(s.done)
	defer close(s.events)

	hInstance, _, _ := procGetModuleHandleW.Call(0)

	registerClassOnce.Do(func() {
		wc := wndClassExW{
			WndProc:   wndProcCb,
			Instance:  hInstance,
			ClassName: utf16Ptr(messageWindowClass),
		}
		wc.Size = uint32(unsafe.Sizeof(wc))
		procRegisterClassExW.Call(uintptr(unsafe.Pointer(&wc)))
	})

	hwnd, _, err := procCreateWindowExW.Call(
		0,
		uintptr(unsafe.Pointer(utf16Ptr(messageWindowClass))),
		0, 0, 0, 0, 0, 0,
		hwndMessage,
		0, hInstance, 0)
	if hwnd == 0 {
		ready <- fmt.Errorf("create message window: %w", err)
		return
	}

	s.mu.Lock()
	s.hwnd = hwnd
	s.mu.Unlock()

	// Hook ranges, one hook per contiguous span of interesting events.
	ranges := [][2]uintptr{
		{eventSystemForeground, eventSystemForeground},
		{eventSystemMoveSizeEnd, eventSystemMoveSizeEnd},
		{eventSystemMinimizeStart, eventSystemMinimizeEnd},
		{eventSystemPeekStart, eventSystemPeekEnd},
		{eventObjectCreate, eventObjectDestroy},
	}
	for _, r := range ranges {
		hook, _, _ := procSetWinEventHook.Call(
			r[0], r[1],
			0, winEventCb,
			0, 0,
			winEventOutOfContext)
		if hook == 0 {
			s.log.Warn("SetWinEventHook failed", "min", r[0], "max", r[1])
			continue
		}
		s.hooks = append(s.hooks, hook)
	}

	s.log.Debug("event hooks installed", "count", len(s.hooks))
	ready <- nil

	var m msg
	for {
		ret, _, _ := procGetMessageW.Call(uintptr(unsafe.Pointer(&m)), 0, 0, 0)
		// 0 is WM_QUIT, ^0 is error; both end the pump.
		if ret == 0 || int32(ret) == -1 {
			break
		}
		procTranslateMessage.Call(uintptr(unsafe.Pointer(&m)))
		procDispatchMessageW.Call(uintptr(unsafe.Pointer(&m)))
	}

	for _, hook := range s.hooks {
		procUnhookWinEvent.Call(hook)
	}
	s.hooks = nil
	s.log.Debug("event pump exited")
}
