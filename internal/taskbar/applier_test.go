package taskbar

import (
	"errors"
	"testing"

	"glaze/internal/appearance"
)

func testInstance() *Instance {
	return &Instance{Taskbar: Taskbar{Window: Window(100), Monitor: Monitor(1)}}
}

func TestApplierDedupesIdenticalAppearance(t *testing.T) {
	env := newFakeEnv()
	a := NewApplier(env, nil, nil)
	inst := testInstance()
	want := appearance.Taskbar{Accent: appearance.AccentBlurBehind, Color: appearance.Color{A: 0x80}}

	for i := 0; i < 5; i++ {
		if err := a.Apply(inst, want, StateMaximised, false); err != nil {
			t.Fatalf("Apply: %v", err)
		}
	}

	if got := len(env.calls()); got != 1 {
		t.Errorf("expected 1 composition call, got %d", got)
	}
}

func TestApplierReappliesOnChange(t *testing.T) {
	env := newFakeEnv()
	a := NewApplier(env, nil, nil)
	inst := testInstance()

	first := appearance.Taskbar{Accent: appearance.AccentBlurBehind}
	second := appearance.Taskbar{Accent: appearance.AccentGradient, Color: appearance.Color{R: 0xFF}}

	if err := a.Apply(inst, first, StateMaximised, false); err != nil {
		t.Fatal(err)
	}
	if err := a.Apply(inst, second, StateVisible, false); err != nil {
		t.Fatal(err)
	}

	calls := env.calls()
	if len(calls) != 2 {
		t.Fatalf("expected 2 calls, got %d", len(calls))
	}
	if calls[1].Accent != second.Accent.CompositionValue() {
		t.Errorf("second call accent = %d", calls[1].Accent)
	}
	if calls[1].Color != second.Color.ABGR() {
		t.Errorf("second call color = %#x", calls[1].Color)
	}
}

func TestApplierForceBypassesDedup(t *testing.T) {
	env := newFakeEnv()
	a := NewApplier(env, nil, nil)
	inst := testInstance()
	want := appearance.Taskbar{Accent: appearance.AccentBlurBehind}

	if err := a.Apply(inst, want, StateMaximised, false); err != nil {
		t.Fatal(err)
	}
	if err := a.Apply(inst, want, StateMaximised, true); err != nil {
		t.Fatal(err)
	}

	if got := len(env.calls()); got != 2 {
		t.Errorf("expected 2 calls with force, got %d", got)
	}
}

func TestApplierRetriesAfterTransientFailure(t *testing.T) {
	env := newFakeEnv()
	a := NewApplier(env, nil, nil)
	inst := testInstance()
	want := appearance.Taskbar{Accent: appearance.AccentBlurBehind}

	env.setCompErr(inst.Taskbar.Window, errors.New("window busy"))
	if err := a.Apply(inst, want, StateMaximised, false); err == nil {
		t.Fatal("expected apply error")
	}
	if inst.failures != 1 {
		t.Errorf("failures = %d", inst.failures)
	}

	// Same appearance again: the failed apply must not count as done.
	env.setCompErr(inst.Taskbar.Window, nil)
	if err := a.Apply(inst, want, StateMaximised, false); err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if inst.failures != 0 {
		t.Errorf("failures not cleared: %d", inst.failures)
	}
	if got := len(env.calls()); got != 1 {
		t.Errorf("expected 1 successful call, got %d", got)
	}
}

func TestApplierUnsupportedLatch(t *testing.T) {
	env := newFakeEnv()
	a := NewApplier(env, nil, nil)
	inst := testInstance()
	want := appearance.Taskbar{Accent: appearance.AccentBlurBehind}

	env.setCompErr(inst.Taskbar.Window, ErrUnsupported)
	if err := a.Apply(inst, want, StateMaximised, false); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
	if !inst.unsupported {
		t.Error("unsupported latch not set")
	}

	// Latched: further non-forced applies are silent no-ops.
	if err := a.Apply(inst, want, StateMaximised, false); err != nil {
		t.Errorf("latched apply should be a no-op, got %v", err)
	}

	// Force clears the latch when the call starts working.
	env.setCompErr(inst.Taskbar.Window, nil)
	if err := a.Apply(inst, want, StateMaximised, true); err != nil {
		t.Fatalf("forced apply: %v", err)
	}
	if inst.unsupported {
		t.Error("latch should clear after a successful forced apply")
	}
}

type captureRecorder struct {
	transitions []Transition
}

func (r *captureRecorder) Record(tr Transition) error {
	r.transitions = append(r.transitions, tr)
	return nil
}

func TestApplierRecordsTransitions(t *testing.T) {
	env := newFakeEnv()
	rec := &captureRecorder{}
	a := NewApplier(env, nil, rec)
	inst := testInstance()

	want := appearance.Taskbar{Accent: appearance.AccentAcrylicBlurBehind, Color: appearance.Color{B: 0xFF, A: 0x40}}
	if err := a.Apply(inst, want, StateMaximised, false); err != nil {
		t.Fatal(err)
	}

	if len(rec.transitions) != 1 {
		t.Fatalf("expected 1 transition, got %d", len(rec.transitions))
	}
	tr := rec.transitions[0]
	if tr.Window != inst.Taskbar.Window || tr.Accent != want.Accent || tr.State != StateMaximised || tr.Err != "" {
		t.Errorf("transition = %+v", tr)
	}
}
