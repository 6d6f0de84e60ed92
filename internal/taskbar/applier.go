package taskbar

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"glaze/internal/appearance"
)

// Instance is the engine's bookkeeping for one taskbar window. The
// worker owns instances; nothing here is safe for concurrent use.
type Instance struct {
	Taskbar Taskbar

	// lastApplied dedupes compositor calls. Nil until the first apply
	// succeeds after creation or reset.
	lastApplied *appearance.Taskbar

	// lastState is the classification behind lastApplied, kept for
	// state dumps and the journal.
	lastState State

	// unsupported latches after the compositor rejects this window so
	// we log the condition once instead of every evaluation. Cleared
	// by reset.
	unsupported bool

	// failures counts consecutive apply errors, for state dumps.
	failures int
}

// Recorder receives applied transitions. The journal implements it;
// a nil recorder disables recording.
type Recorder interface {
	Record(Transition) error
}

// Transition is one applied (or failed) appearance change.
type Transition struct {
	Time      time.Time
	Window    Window
	Monitor   Monitor
	Secondary bool
	State     State
	Accent    appearance.AccentState
	Color     appearance.Color
	Err       string
}

// Applier pushes resolved appearances into the environment, skipping
// calls that would not change anything.
type Applier struct {
	env Environment
	log *slog.Logger
	rec Recorder
}

// NewApplier creates an applier. rec may be nil.
func NewApplier(env Environment, log *slog.Logger, rec Recorder) *Applier {
	if log == nil {
		log = slog.Default()
	}
	return &Applier{env: env, log: log.With("component", "applier"), rec: rec}
}

// Apply sets want on the instance's taskbar. With force false, a call
// matching the last applied appearance is skipped. Errors affect only
// this instance; the caller continues with its other taskbars.
func (a *Applier) Apply(inst *Instance, want appearance.Taskbar, state State, force bool) error {
	if !force && inst.lastApplied != nil && *inst.lastApplied == want {
		return nil
	}
	if inst.unsupported && !force {
		return nil
	}

	err := a.env.SetComposition(inst.Taskbar.Window, want.Accent.CompositionValue(), want.Color.ABGR())
	a.record(inst, want, state, err)

	if err != nil {
		inst.failures++
		if errors.Is(err, ErrUnsupported) {
			if !inst.unsupported {
				inst.unsupported = true
				a.log.Warn("composition unsupported, leaving taskbar alone",
					"window", fmt.Sprintf("%#x", uintptr(inst.Taskbar.Window)))
			}
			return err
		}
		// Transient failure: keep lastApplied unset so the next
		// evaluation retries.
		inst.lastApplied = nil
		a.log.Debug("apply failed",
			"window", fmt.Sprintf("%#x", uintptr(inst.Taskbar.Window)),
			"accent", want.Accent.String(),
			"error", err)
		return err
	}

	inst.failures = 0
	inst.unsupported = false
	applied := want
	inst.lastApplied = &applied
	inst.lastState = state
	a.log.Debug("applied appearance",
		"window", fmt.Sprintf("%#x", uintptr(inst.Taskbar.Window)),
		"state", state.String(),
		"accent", want.Accent.String(),
		"color", want.Color.String())
	return nil
}

func (a *Applier) record(inst *Instance, want appearance.Taskbar, state State, applyErr error) {
	if a.rec == nil {
		return
	}
	tr := Transition{
		Time:      time.Now(),
		Window:    inst.Taskbar.Window,
		Monitor:   inst.Taskbar.Monitor,
		Secondary: inst.Taskbar.Secondary,
		State:     state,
		Accent:    want.Accent,
		Color:     want.Color,
	}
	if applyErr != nil {
		tr.Err = applyErr.Error()
	}
	if err := a.rec.Record(tr); err != nil {
		a.log.Debug("journal record failed", "error", err)
	}
}
