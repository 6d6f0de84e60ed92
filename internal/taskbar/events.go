package taskbar

import (
	"log/slog"
	"sync"
	"time"
)

// Coalescing windows. Window-system events arrive in bursts (a single
// maximise produces foreground, state, and paint events back to back);
// the multiplexer waits for a burst to settle before triggering an
// evaluation, but never delays one past the maximum.
const (
	// DefaultSettleDelay is how long events must be quiet before an
	// evaluation fires.
	DefaultSettleDelay = 50 * time.Millisecond

	// DefaultMaxDelay caps how long a busy event stream can postpone an
	// evaluation.
	DefaultMaxDelay = 250 * time.Millisecond
)

// evalTrigger is one coalesced request for a re-evaluation. Triggers
// merge: the latest trigger absorbs anything still queued.
type evalTrigger struct {
	// reason is the kind of the last raw event folded in, for logging.
	reason EventKind

	// reenumerate forces a fresh taskbar enumeration, set by display
	// and taskbar lifecycle changes.
	reenumerate bool

	// peek carries the latest peek transition folded into this
	// trigger, or nil if none occurred.
	peek *bool
}

func mergeTriggers(old, next evalTrigger) evalTrigger {
	next.reenumerate = next.reenumerate || old.reenumerate
	if next.peek == nil {
		next.peek = old.peek
	}
	return next
}

// Multiplexer funnels raw events from an EventSource into coalesced
// evaluation triggers. Exactly one trigger is buffered; a newer one
// replaces it, so a slow consumer sees at most one stale trigger and
// then the latest state.
type Multiplexer struct {
	src     EventSource
	log     *slog.Logger
	settle  time.Duration
	maxWait time.Duration

	out  chan evalTrigger
	stop chan struct{}
	wg   sync.WaitGroup
}

// NewMultiplexer creates a multiplexer over src. Zero durations get the
// defaults.
func NewMultiplexer(src EventSource, log *slog.Logger, settle, maxWait time.Duration) *Multiplexer {
	if log == nil {
		log = slog.Default()
	}
	if settle <= 0 {
		settle = DefaultSettleDelay
	}
	if maxWait < settle {
		maxWait = DefaultMaxDelay
	}
	return &Multiplexer{
		src:     src,
		log:     log.With("component", "events"),
		settle:  settle,
		maxWait: maxWait,
		out:     make(chan evalTrigger, 1),
		stop:    make(chan struct{}),
	}
}

// Triggers returns the coalesced trigger channel.
func (m *Multiplexer) Triggers() <-chan evalTrigger {
	return m.out
}

// Start starts the source and the coalescing loop.
func (m *Multiplexer) Start() error {
	if err := m.src.Start(); err != nil {
		return err
	}
	m.wg.Add(1)
	go m.loop()
	return nil
}

// Stop stops the source and waits for the loop to exit.
func (m *Multiplexer) Stop() error {
	err := m.src.Stop()
	close(m.stop)
	m.wg.Wait()
	return err
}

func (m *Multiplexer) loop() {
	defer m.wg.Done()

	var (
		pending     evalTrigger
		havePending bool
		deadline    time.Time
	)

	timer := time.NewTimer(time.Hour)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	rearm := func(d time.Duration) {
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(d)
	}

	flush := func() {
		if !havePending {
			return
		}
		m.emit(pending)
		pending = evalTrigger{}
		havePending = false
	}

	for {
		select {
		case <-m.stop:
			return

		case ev, ok := <-m.src.Events():
			if !ok {
				flush()
				return
			}

			next := evalTrigger{reason: ev.Kind}
			switch ev.Kind {
			case EventPeekStart:
				v := true
				next.peek = &v
			case EventPeekEnd:
				v := false
				next.peek = &v
			case EventDisplayChanged, EventWindowCreated, EventWindowDestroyed:
				next.reenumerate = true
			}

			if havePending {
				pending = mergeTriggers(pending, next)
			} else {
				pending = next
				havePending = true
				deadline = time.Now().Add(m.maxWait)
			}

			wait := m.settle
			if remaining := time.Until(deadline); remaining < wait {
				wait = remaining
			}
			if wait < 0 {
				wait = 0
			}
			rearm(wait)

		case <-timer.C:
			flush()
		}
	}
}

// emit delivers a trigger with latest-wins semantics: if one is already
// queued, it is absorbed into the new one.
func (m *Multiplexer) emit(t evalTrigger) {
	for {
		select {
		case m.out <- t:
			return
		default:
			select {
			case old := <-m.out:
				t = mergeTriggers(old, t)
			default:
			}
		}
	}
}
