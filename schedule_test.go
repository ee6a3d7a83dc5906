package runloop

import (
	"testing"
	"time"
)

func TestSchedulePeriodicAccumulator(t *testing.T) {
	l := newTestLoop()
	var fires int
	var accumulated time.Duration
	sched := l.NewSchedule().
		WithPeriod(100 * time.Millisecond).
		WithCallback(func(dt time.Duration) {
			fires++
			accumulated += dt
		}).
		AndStart()

	for accumulated < time.Second {
		now, ok := l.heap.peekTime()
		if !ok {
			t.Fatal("heap empty while schedule should still be active")
		}
		l.fireTimers(now)
	}

	if fires < 8 || fires > 12 {
		t.Fatalf("fires = %d accumulating %v, want roughly 10 (8-12)", fires, accumulated)
	}
	if !sched.IsActive() {
		t.Fatal("schedule not active after ticking")
	}
}

func TestScheduleCancelStopsFutureFirings(t *testing.T) {
	l := newTestLoop()
	calls := 0
	sched := l.NewSchedule().WithPeriod(10 * time.Millisecond).WithCallback(func(time.Duration) { calls++ }).AndStart()

	now, ok := l.heap.peekTime()
	if !ok {
		t.Fatal("heap empty right after Start")
	}
	l.fireTimers(now)
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}

	sched.Cancel()
	if sched.IsActive() {
		t.Fatal("schedule active after Cancel")
	}
	if l.heap.len() != 0 {
		t.Fatalf("heap len = %d after cancel, want 0", l.heap.len())
	}

	// Idempotent.
	sched.Cancel()
	sched.Close()
}

func TestScheduleCancelsItselfFromCallback(t *testing.T) {
	l := newTestLoop()
	calls := 0
	var sched *Schedule
	sched = l.NewSchedule().WithPeriod(10 * time.Millisecond).WithCallback(func(time.Duration) {
		calls++
		sched.Cancel()
	})
	sched.Start()

	now, ok := l.heap.peekTime()
	if !ok {
		t.Fatal("heap empty right after Start")
	}
	l.fireTimers(now)

	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
	if sched.IsActive() {
		t.Fatal("schedule active after cancelling itself from its own callback")
	}
	if l.heap.len() != 0 {
		t.Fatalf("heap len = %d after self-cancel, want 0", l.heap.len())
	}
}

func TestSchedulePhaseAdvancesThroughOverrunTick(t *testing.T) {
	l := newTestLoop()
	var dts []time.Duration
	sched := l.NewSchedule().WithPeriod(10 * time.Millisecond).WithCallback(func(dt time.Duration) {
		dts = append(dts, dt)
	}).AndStart()

	firstDeadline := sched.target
	// Fire well past the deadline, simulating an overrun tick.
	overrun := firstDeadline.Add(35 * time.Millisecond)
	l.fireTimers(overrun)

	// Each firing advances target by exactly one period, never jumping to
	// "now"; fireTimers keeps firing while the new target is still in the
	// past, so the deadlines first, +10ms, +20ms and +30ms all fire and the
	// next target is firstDeadline+40ms (not overrun+period).
	wantNextTarget := firstDeadline.Add(40 * time.Millisecond)
	if !sched.target.Equal(wantNextTarget) {
		t.Fatalf("target after overrun = %v, want %v", sched.target, wantNextTarget)
	}
	if len(dts) != 4 {
		t.Fatalf("fired %d times, want 4", len(dts))
	}
}

func TestScheduleSetPeriodRebasesActiveDeadline(t *testing.T) {
	l := newTestLoop()
	sched := l.NewSchedule().WithPeriod(10 * time.Millisecond).AndStart()

	sched.SetPeriod(200 * time.Millisecond)
	deadline, ok := l.heap.peekTime()
	if !ok {
		t.Fatal("heap empty after SetPeriod on an active schedule")
	}
	want := sched.last.Add(200 * time.Millisecond)
	if !deadline.Equal(want) {
		t.Fatalf("deadline after SetPeriod = %v, want %v", deadline, want)
	}
}
