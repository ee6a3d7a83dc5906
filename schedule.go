package runloop

import "time"

// scheduleState mirrors the original's Schedule state machine. Unlike
// Timer, a cancel requested from inside the callback has nothing to carry
// (no pending restart time), so Cancelled needs no payload.
type scheduleState int

const (
	scheduleNone scheduleState = iota
	scheduleActive
	scheduleProcessing
	scheduleCancelled
)

// defaultSchedulePeriod matches the original's Schedule::new default.
const defaultSchedulePeriod = 100 * time.Millisecond

// Schedule is a periodic callback scheduled on a Loop's timer heap, fired
// repeatedly at period intervals until cancelled. Like Timer, a Schedule is
// loop-affine: every method must be called from the goroutine currently
// executing the owning Loop's Run.
type Schedule struct {
	loop   *Loop
	n      actionNode
	state  scheduleState
	period time.Duration
	last   time.Time
	target time.Time
	// act is the installed callback, given the elapsed time since it last
	// fired. nil means no callback is installed; the schedule still ticks
	// (advancing last/target) but does nothing observable.
	act          func(dt time.Duration)
	cancelOnDrop bool
}

func (s *Schedule) node() *actionNode { return &s.n }

// NewSchedule creates a Schedule bound to l, initially inactive, with the
// default 100ms period.
func (l *Loop) NewSchedule() *Schedule {
	l.assertOwnGoroutine("NewSchedule")
	now := l.now()
	return &Schedule{loop: l, state: scheduleNone, period: defaultSchedulePeriod, last: now, target: now}
}

// WithCallback installs cb and returns s, for chained construction.
func (s *Schedule) WithCallback(cb func(dt time.Duration)) *Schedule {
	s.SetCallback(cb)
	return s
}

// WithPeriod sets the firing period and returns s.
func (s *Schedule) WithPeriod(period time.Duration) *Schedule {
	s.SetPeriod(period)
	return s
}

// WithCancelOnDrop sets the cancel-on-drop intent flag and returns s. See
// Timer.WithCancelOnDrop for why this has no automatic effect in Go.
func (s *Schedule) WithCancelOnDrop(cancelOnDrop bool) *Schedule {
	s.SetCancelOnDrop(cancelOnDrop)
	return s
}

// AndStart starts s and returns it.
func (s *Schedule) AndStart() *Schedule {
	s.Start()
	return s
}

// SetCallback installs cb, replacing any previously installed callback.
func (s *Schedule) SetCallback(cb func(dt time.Duration)) {
	s.loop.assertOwnGoroutine("Schedule.SetCallback")
	s.act = cb
}

// SetPeriod changes the firing period. If the schedule is currently
// active, its next deadline is rebased from its last firing time, taking
// effect immediately rather than waiting for the next firing.
func (s *Schedule) SetPeriod(period time.Duration) {
	s.loop.assertOwnGoroutine("Schedule.SetPeriod")
	if s.period == period {
		return
	}
	s.period = period
	if s.state == scheduleActive {
		s.loop.heap.adjust(&s.n, s.last.Add(period))
	}
}

// GetPeriod returns the current firing period.
func (s *Schedule) GetPeriod() time.Duration { return s.period }

// SetCancelOnDrop sets the cancel-on-drop intent flag.
func (s *Schedule) SetCancelOnDrop(cancelOnDrop bool) { s.cancelOnDrop = cancelOnDrop }

// IsCancelOnDrop reports the cancel-on-drop intent flag.
func (s *Schedule) IsCancelOnDrop() bool { return s.cancelOnDrop }

// IsActive reports whether the schedule is currently ticking.
func (s *Schedule) IsActive() bool {
	return s.state != scheduleNone && s.state != scheduleCancelled
}

// Start (re)starts the schedule, resetting its phase so the next firing
// is exactly one period from now. Calling Start from inside the
// schedule's own callback (state Processing) resumes ticking once the
// callback returns, without re-pushing into the heap (it's already there).
func (s *Schedule) Start() {
	s.loop.assertOwnGoroutine("Schedule.Start")
	now := s.loop.now()
	s.last = now
	s.target = now.Add(s.period)
	switch s.state {
	case scheduleNone:
		s.state = scheduleActive
		s.loop.heap.push(s, s.target)
	case scheduleActive:
		s.loop.heap.adjust(&s.n, s.target)
	case scheduleProcessing:
	case scheduleCancelled:
		s.state = scheduleProcessing
	}
}

// Cancel stops the schedule if active. Idempotent; safe from inside the
// schedule's own callback.
func (s *Schedule) Cancel() {
	s.loop.assertOwnGoroutine("Schedule.Cancel")
	switch s.state {
	case scheduleNone, scheduleCancelled:
	case scheduleActive:
		s.loop.heap.remove(&s.n)
		s.state = scheduleNone
	case scheduleProcessing:
		s.state = scheduleCancelled
	}
}

// Close cancels the schedule. See Timer.Close.
func (s *Schedule) Close() { s.Cancel() }

// process fires the schedule's callback (if any) with the elapsed time
// since its last firing, sets last to now, and unconditionally advances
// target by one period — phase is maintained even through an overrun tick, so a
// schedule that falls behind catches its target up by fixed increments
// rather than drifting forever.
func (s *Schedule) process(now time.Time) (time.Time, bool) {
	dt := now.Sub(s.last)
	s.last = now
	s.target = s.target.Add(s.period)
	if s.act == nil {
		return s.target, true
	}
	cb := s.act
	s.state = scheduleProcessing
	cb(dt)
	switch s.state {
	case scheduleProcessing:
		s.state = scheduleActive
		return s.target, true
	case scheduleCancelled:
		s.state = scheduleNone
		return time.Time{}, false
	default:
		panic("runloop: unreachable schedule state after process")
	}
}
