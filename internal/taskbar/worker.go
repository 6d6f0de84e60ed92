package taskbar

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"glaze/internal/appearance"
	"glaze/internal/config"
)

// Status is the worker lifecycle state.
type Status int

const (
	// StatusUninitialized means New has run but Start has not.
	StatusUninitialized Status = iota
	// StatusRunning means the evaluation loop is live.
	StatusRunning
	// StatusStopped means the worker has shut down. A stopped worker
	// stays stopped; create a new one to start over.
	StatusStopped
)

func (s Status) String() string {
	switch s {
	case StatusUninitialized:
		return "uninitialized"
	case StatusRunning:
		return "running"
	case StatusStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// WorkerConfig carries everything a worker needs.
type WorkerConfig struct {
	Env    Environment
	Source EventSource
	Config *config.Config
	Logger *slog.Logger

	// Recorder receives applied transitions. Nil disables recording.
	Recorder Recorder

	// SettleDelay and MaxDelay tune event coalescing. Zero means the
	// defaults.
	SettleDelay time.Duration
	MaxDelay    time.Duration
}

type commandKind int

const (
	cmdSetConfig commandKind = iota
	cmdApplyNow
	cmdReset
	cmdDump
	cmdRevert
)

type command struct {
	kind  commandKind
	cfg   *config.Config
	reply chan commandResult
}

type commandResult struct {
	dump string
	err  error
}

// Worker runs the evaluation loop. All evaluation happens on one
// goroutine: OS triggers, config replacement, and control operations
// are serialized through the same loop, so no two evaluations ever
// overlap and every operation sees a consistent view.
type Worker struct {
	mu     sync.Mutex
	status Status

	env     Environment
	mux     *Multiplexer
	applier *Applier
	log     *slog.Logger

	cfg       *config.Config
	peek      bool
	instances map[Window]*Instance

	// lastPeekButton dedupes peek button updates the same way
	// Instance.lastApplied dedupes composition calls.
	lastPeekButton *bool

	startedAt time.Time
	evals     uint64

	commands chan command
	done     chan struct{}
	wg       sync.WaitGroup
}

// NewWorker creates a worker in the uninitialized state.
func NewWorker(wc WorkerConfig) (*Worker, error) {
	if wc.Env == nil {
		return nil, fmt.Errorf("taskbar: worker needs an environment")
	}
	if wc.Source == nil {
		return nil, fmt.Errorf("taskbar: worker needs an event source")
	}
	if wc.Config == nil {
		return nil, fmt.Errorf("taskbar: worker needs a config")
	}
	log := wc.Logger
	if log == nil {
		log = slog.Default()
	}
	log = log.With("component", "worker")

	return &Worker{
		status:    StatusUninitialized,
		env:       wc.Env,
		mux:       NewMultiplexer(wc.Source, log, wc.SettleDelay, wc.MaxDelay),
		applier:   NewApplier(wc.Env, log, wc.Recorder),
		log:       log,
		cfg:       wc.Config,
		instances: make(map[Window]*Instance),
		commands:  make(chan command),
		done:      make(chan struct{}),
	}, nil
}

// Status returns the current lifecycle state.
func (w *Worker) Status() Status {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.status
}

// Start begins event delivery and runs the first evaluation.
func (w *Worker) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	switch w.status {
	case StatusRunning:
		return ErrAlreadyRunning
	case StatusStopped:
		return ErrNotRunning
	}

	if err := w.mux.Start(); err != nil {
		return fmt.Errorf("start event source: %w", err)
	}

	w.status = StatusRunning
	w.startedAt = time.Now()
	w.wg.Add(1)
	go w.loop()

	w.log.Info("worker started", "config", w.cfg.Summary())
	return nil
}

// Stop shuts the worker down. Taskbars keep whatever appearance was
// last applied; call Revert first to hand them back to the shell.
func (w *Worker) Stop() error {
	w.mu.Lock()
	if w.status != StatusRunning {
		w.mu.Unlock()
		return nil
	}
	w.status = StatusStopped
	w.mu.Unlock()

	err := w.mux.Stop()
	close(w.done)
	w.wg.Wait()

	w.log.Info("worker stopped")
	return err
}

// SetConfig atomically replaces the active configuration. The next
// evaluation, which runs immediately, sees only the new config.
func (w *Worker) SetConfig(ctx context.Context, cfg *config.Config) error {
	_, err := w.do(ctx, command{kind: cmdSetConfig, cfg: cfg})
	return err
}

// ApplyNow runs an evaluation immediately, bypassing coalescing.
func (w *Worker) ApplyNow(ctx context.Context) error {
	_, err := w.do(ctx, command{kind: cmdApplyNow})
	return err
}

// ResetState drops all per-taskbar bookkeeping, clears unsupported
// latches, re-enumerates, and force-applies. This is the recovery knob
// for when the shell restarted underneath us.
func (w *Worker) ResetState(ctx context.Context) error {
	_, err := w.do(ctx, command{kind: cmdReset})
	return err
}

// DumpState returns a human-readable description of the worker's
// internal state.
func (w *Worker) DumpState(ctx context.Context) (string, error) {
	res, err := w.do(ctx, command{kind: cmdDump})
	return res.dump, err
}

// Revert hands every known taskbar back to the system default
// appearance. Used on shutdown.
func (w *Worker) Revert(ctx context.Context) error {
	_, err := w.do(ctx, command{kind: cmdRevert})
	return err
}

func (w *Worker) do(ctx context.Context, cmd command) (commandResult, error) {
	if w.Status() != StatusRunning {
		return commandResult{}, ErrNotRunning
	}

	cmd.reply = make(chan commandResult, 1)
	select {
	case w.commands <- cmd:
	case <-w.done:
		return commandResult{}, ErrNotRunning
	case <-ctx.Done():
		return commandResult{}, ctx.Err()
	}

	select {
	case res := <-cmd.reply:
		return res, res.err
	case <-w.done:
		return commandResult{}, ErrNotRunning
	case <-ctx.Done():
		return commandResult{}, ctx.Err()
	}
}

func (w *Worker) loop() {
	defer w.wg.Done()

	w.evaluate(false)

	for {
		select {
		case <-w.done:
			return

		case t := <-w.mux.Triggers():
			if t.peek != nil {
				w.peek = *t.peek
			}
			w.log.Debug("evaluating", "reason", t.reason.String())
			w.evaluate(false)

		case cmd := <-w.commands:
			w.handleCommand(cmd)
		}
	}
}

func (w *Worker) handleCommand(cmd command) {
	var res commandResult
	switch cmd.kind {
	case cmdSetConfig:
		w.cfg = cmd.cfg
		w.log.Info("config replaced", "config", w.cfg.Summary())
		w.evaluate(false)

	case cmdApplyNow:
		w.evaluate(false)

	case cmdReset:
		w.instances = make(map[Window]*Instance)
		w.lastPeekButton = nil
		w.log.Info("worker state reset")
		w.evaluate(true)

	case cmdDump:
		res.dump = w.dumpState()

	case cmdRevert:
		res.err = w.revertAll()
	}
	cmd.reply <- res
}

// evaluate is the single evaluation step: enumerate taskbars, snapshot
// the window state once, resolve and apply per taskbar. A failure on
// one taskbar never stops the others.
func (w *Worker) evaluate(force bool) {
	w.evals++
	w.syncInstances()

	snap := TakeSnapshot(w.env, w.peek)
	for _, inst := range w.instances {
		want, state := Resolve(w.cfg, snap, inst.Taskbar.Monitor)
		// Apply logs and records; per-instance isolation means we just
		// carry on.
		_ = w.applier.Apply(inst, want, state, force)
	}

	w.updatePeekButton(snap, force)
}

// syncInstances refreshes the taskbar set, keeping bookkeeping for
// taskbars that survived and dropping ones that vanished. Enumeration
// failure keeps the previous set; the next trigger retries.
func (w *Worker) syncInstances() {
	bars, err := w.env.Taskbars()
	if err != nil {
		w.log.Debug("taskbar enumeration failed", "error", err)
		return
	}

	seen := make(map[Window]bool, len(bars))
	for _, tb := range bars {
		seen[tb.Window] = true
		if inst, ok := w.instances[tb.Window]; ok {
			// Monitor can change when displays are rearranged.
			inst.Taskbar = tb
			continue
		}
		w.instances[tb.Window] = &Instance{Taskbar: tb}
		w.log.Debug("taskbar found",
			"window", fmt.Sprintf("%#x", uintptr(tb.Window)),
			"secondary", tb.Secondary)
	}
	for win := range w.instances {
		if !seen[win] {
			delete(w.instances, win)
			w.log.Debug("taskbar gone", "window", fmt.Sprintf("%#x", uintptr(win)))
		}
	}
}

func (w *Worker) updatePeekButton(snap Snapshot, force bool) {
	show := ResolvePeekButton(w.cfg.Peek, snap, snap.Primary)
	if !force && w.lastPeekButton != nil && *w.lastPeekButton == show {
		return
	}
	if err := w.env.SetPeekButtonVisible(show); err != nil {
		w.log.Debug("peek button update failed", "error", err)
		w.lastPeekButton = nil
		return
	}
	w.lastPeekButton = &show
}

func (w *Worker) revertAll() error {
	normal := appearance.Taskbar{Accent: appearance.AccentNormal}
	var firstErr error
	for _, inst := range w.instances {
		if err := w.applier.Apply(inst, normal, StateDesktop, true); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if err := w.env.SetPeekButtonVisible(true); err == nil {
		v := true
		w.lastPeekButton = &v
	}
	return firstErr
}

func (w *Worker) dumpState() string {
	var b strings.Builder

	fmt.Fprintf(&b, "worker: status=running evaluations=%d uptime=%s\n",
		w.evals, time.Since(w.startedAt).Round(time.Second))
	fmt.Fprintf(&b, "config: %s\n", w.cfg.Summary())
	fmt.Fprintf(&b, "peek: active=%t\n", w.peek)
	if w.lastPeekButton != nil {
		fmt.Fprintf(&b, "peek_button: visible=%t\n", *w.lastPeekButton)
	}

	wins := make([]Window, 0, len(w.instances))
	for win := range w.instances {
		wins = append(wins, win)
	}
	sort.Slice(wins, func(i, j int) bool { return wins[i] < wins[j] })

	fmt.Fprintf(&b, "taskbars: %d\n", len(wins))
	for _, win := range wins {
		inst := w.instances[win]
		fmt.Fprintf(&b, "  window=%#x monitor=%#x secondary=%t",
			uintptr(win), uintptr(inst.Taskbar.Monitor), inst.Taskbar.Secondary)
		if inst.lastApplied != nil {
			fmt.Fprintf(&b, " applied=%s state=%s", inst.lastApplied, inst.lastState)
		} else {
			fmt.Fprintf(&b, " applied=none")
		}
		if inst.unsupported {
			fmt.Fprintf(&b, " unsupported=true")
		}
		if inst.failures > 0 {
			fmt.Fprintf(&b, " failures=%d", inst.failures)
		}
		b.WriteByte('\n')
	}

	return b.String()
}
