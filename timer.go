package runloop

import "time"

// timerState mirrors the original's Timer state machine, with Restart
// carrying the deadline a restart-from-inside-the-callback should resume
// at once the current firing finishes.
type timerState int

const (
	timerNone timerState = iota
	timerActive
	timerProcessing
	timerRestart
)

// timerAction is the FnMut-vs-FnOnce distinction from the original Rust
// Action trait, expressed as a return value: call reports whether the
// callback should be reinstalled after firing (true for a repeating
// callback installed via SetCallback, false for a one-shot installed via
// SetCallbackOnce).
type timerAction interface {
	call() bool
}

type repeatingTimerAction struct{ fn func() }

func (a repeatingTimerAction) call() bool { a.fn(); return true }

type onceTimerAction struct{ fn func() }

func (a *onceTimerAction) call() bool {
	if a.fn != nil {
		fn := a.fn
		a.fn = nil
		fn()
	}
	return false
}

// Timer is a one-shot-or-repeating deferred callback scheduled on a Loop's
// timer heap. A Timer is loop-affine: every method must be called from the
// goroutine currently executing the owning Loop's Run — Timer performs no
// internal synchronization, the same way the original's Rc<RefCell<..>>
// Timer was never Send.
type Timer struct {
	loop *Loop
	n    actionNode
	state timerState
	act   timerAction
	// restartAt holds the pending deadline while state is timerRestart.
	restartAt     time.Time
	cancelOnDrop  bool
}

func (t *Timer) node() *actionNode { return &t.n }

// NewTimer creates a Timer bound to l, initially inactive.
func (l *Loop) NewTimer() *Timer {
	l.assertOwnGoroutine("NewTimer")
	return &Timer{loop: l, state: timerNone}
}

// WithCallback installs cb as a repeating callback (fired again on every
// restart) and returns t, for chained construction.
func (t *Timer) WithCallback(cb func()) *Timer {
	t.SetCallback(cb)
	return t
}

// WithCallbackOnce installs cb as a one-shot callback and returns t.
func (t *Timer) WithCallbackOnce(cb func()) *Timer {
	t.SetCallbackOnce(cb)
	return t
}

// WithCancelOnDrop sets the cancel-on-drop flag and returns t.
//
// Go has no deterministic destructors, so unlike the original this flag
// has no automatic effect — there is nothing in Go that runs when the
// last reference to a Timer goes out of scope. It is retained purely as
// a documented intent flag: callers that want the original's "cancel when
// this handle would have been dropped" behavior must call Close
// explicitly (e.g. in a defer) when they're done with the Timer.
func (t *Timer) WithCancelOnDrop(cancelOnDrop bool) *Timer {
	t.SetCancelOnDrop(cancelOnDrop)
	return t
}

// AndStart starts t with the given delay and returns t.
func (t *Timer) AndStart(d time.Duration) *Timer {
	t.Start(d)
	return t
}

// SetCallback installs cb as a repeating callback, replacing any
// previously installed callback. Safe to call while the timer is firing
// (from inside its own callback): the new callback takes effect on the
// next firing.
func (t *Timer) SetCallback(cb func()) {
	t.loop.assertOwnGoroutine("Timer.SetCallback")
	t.act = repeatingTimerAction{fn: cb}
}

// SetCallbackOnce installs cb as a one-shot callback: after it fires once,
// the timer holds no callback (and, if repeating via Start, fires no-ops)
// until a new one is installed.
func (t *Timer) SetCallbackOnce(cb func()) {
	t.loop.assertOwnGoroutine("Timer.SetCallbackOnce")
	t.act = &onceTimerAction{fn: cb}
}

// IsActive reports whether the timer is currently scheduled to fire
// (including while it is mid-callback with a pending restart).
func (t *Timer) IsActive() bool {
	return t.state == timerActive || t.state == timerRestart
}

// SetCancelOnDrop sets the cancel-on-drop intent flag. See WithCancelOnDrop.
func (t *Timer) SetCancelOnDrop(cancelOnDrop bool) { t.cancelOnDrop = cancelOnDrop }

// IsCancelOnDrop reports the cancel-on-drop intent flag.
func (t *Timer) IsCancelOnDrop() bool { return t.cancelOnDrop }

// Start (re)schedules the timer to fire after d. Calling Start on an
// already-active timer reschedules it without firing early; calling it
// from inside the timer's own callback defers the reschedule until the
// callback returns (handled via the Restart state), matching the
// original's re-entrancy contract.
func (t *Timer) Start(d time.Duration) {
	t.loop.assertOwnGoroutine("Timer.Start")
	deadline := t.loop.now().Add(d)
	switch t.state {
	case timerNone:
		t.state = timerActive
		t.loop.heap.push(t, deadline)
	case timerActive:
		t.loop.heap.adjust(&t.n, deadline)
	case timerProcessing, timerRestart:
		t.state = timerRestart
		t.restartAt = deadline
	}
}

// Cancel stops the timer if active. Idempotent; safe from inside the
// timer's own callback (it cancels the pending restart instead of the
// in-flight firing, which always completes).
func (t *Timer) Cancel() {
	t.loop.assertOwnGoroutine("Timer.Cancel")
	switch t.state {
	case timerNone, timerProcessing:
	case timerActive:
		t.loop.heap.remove(&t.n)
		t.state = timerNone
	case timerRestart:
		t.state = timerProcessing
	}
}

// Close cancels the timer. Provided so callers following the original's
// cancel-on-drop idiom have an explicit call to defer; see
// WithCancelOnDrop.
func (t *Timer) Close() { t.Cancel() }

// process fires the timer's callback, if any, and resolves the
// post-callback state. It implements timedAction and is only ever called
// by the Loop's timer-firing excursion, never directly.
func (t *Timer) process(now time.Time) (time.Time, bool) {
	if t.act == nil {
		t.state = timerNone
		return time.Time{}, false
	}
	act := t.act
	t.act = nil
	t.state = timerProcessing
	keep := act.call()
	if t.act == nil && keep {
		t.act = act
	}
	switch t.state {
	case timerProcessing:
		t.state = timerNone
		return time.Time{}, false
	case timerRestart:
		t.state = timerActive
		return t.restartAt, true
	default:
		panic("runloop: unreachable timer state after process")
	}
}
