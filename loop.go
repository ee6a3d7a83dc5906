package runloop

import (
	"sync/atomic"
	"time"
)

// Loop is the per-goroutine message loop runtime. It owns exactly one
// message queue, one timer heap, and one object registry; Run drives all
// three until Stop is observed. Exactly one goroutine at a time may
// execute Run on a given Loop.
type Loop struct {
	mq       *messageQueue
	heap     timerHeap
	registry objectRegistry

	logger *Logger

	postLatency *latencyTracker
	timerJitter *latencyTracker
}

// New creates a Loop, initially stopped.
func New(opts ...LoopOption) *Loop {
	cfg := resolveLoopOptions(opts)
	logger := cfg.logger
	if logger == nil {
		logger = disabledLogger()
	}
	return &Loop{
		mq:          newMessageQueue(),
		logger:      logger,
		postLatency: newLatencyTracker(),
		timerJitter: newLatencyTracker(),
	}
}

// Handle is a cloneable, goroutine-safe reference to a Loop's message
// queue. Any goroutine holding a Handle may Post work or Stop the loop;
// Handle carries no access to the timer heap or object registry, which
// are never touched off the loop's own goroutine.
type Handle struct {
	mq *messageQueue
}

// Post appends fn to the loop's message queue; it will run on the loop's
// goroutine, after every message posted before it. Safe from any
// goroutine, including the loop's own.
func (h *Handle) Post(fn func()) { h.mq.post(fn) }

// Stop requests the owning loop to return from Run once its current batch
// of work (and any due timers) finishes. Idempotent; safe from any
// goroutine.
func (h *Handle) Stop() { h.mq.stop() }

// CloneHandle returns a new Handle to l, usable from any goroutine.
func (l *Loop) CloneHandle() *Handle { return l.handle() }

func (l *Loop) handle() *Handle { return &Handle{mq: l.mq} }

// IsOwnHandle reports whether h refers to this same Loop.
func (l *Loop) IsOwnHandle(h *Handle) bool { return h.mq == l.mq }

// Metrics returns a snapshot of the loop's post-to-run latency and timer
// jitter distributions. Safe to call only from the loop's own goroutine,
// matching the rest of the engine-exclusive surface (heap, registry).
func (l *Loop) Metrics() MetricsSnapshot {
	return MetricsSnapshot{
		PostLatency: l.postLatency.snapshot(),
		TimerJitter: l.timerJitter.snapshot(),
	}
}

func (l *Loop) now() time.Time { return time.Now() }

// isOwnGoroutine reports whether the calling goroutine is the one
// currently executing this Loop's Run.
func (l *Loop) isOwnGoroutine() bool { return l.mq.isOwnGoroutine() }

// assertOwnGoroutine panics if the calling goroutine is not the one
// currently executing Run. Every Timer, Schedule, and object-registry
// mutator is engine-exclusive by contract (see spec), and Go has no
// compile-time equivalent of the original's !Send marker to enforce it —
// this is the runtime substitute, grounded on the teacher package's own
// isLoopThread-gated fast path.
func (l *Loop) assertOwnGoroutine(who string) {
	if !l.isOwnGoroutine() {
		panic("runloop: " + who + " called from a goroutine other than the one running this Loop")
	}
}

// Run drives the loop: draining posted messages, firing expired timers,
// and parking on the message queue's condition variable when there is no
// work, until Stop is observed. Run blocks until the loop stops, and
// returns ErrLoopAlreadyRunning if called while another goroutine is
// already running this same Loop.
//
// The control flow mirrors the original's run(): drain-greedily, then
// fire timers, then recompute how long there is to wait, repeating from
// the top every time state changes underneath it.
func (l *Loop) Run() error {
	l.mq.mu.Lock()
	switch l.mq.state {
	case mqStopped:
		l.mq.state = mqRunning
	case mqStopping:
		l.mq.state = mqStopped
		l.mq.mu.Unlock()
		return nil
	default:
		// Running, Waiting, or MsgArrived: some goroutine is already
		// driving this Loop. If it's this one (a reentrant Run call from
		// inside a posted closure or callback), that mirrors a no-op in
		// the original; otherwise it's a genuine concurrent Run, which
		// the single-threaded original never had to consider.
		reentrant := l.mq.isOwnGoroutine()
		l.mq.mu.Unlock()
		if reentrant {
			return nil
		}
		return ErrLoopAlreadyRunning
	}
	atomic.StoreUint64(&l.mq.ownerGoroutine, getGoroutineID())
	l.processMsgsLocked()
	l.mq.mu.Unlock()

	l.logger.Info().Log(`loop started`)
	defer func() {
		atomic.StoreUint64(&l.mq.ownerGoroutine, 0)
		l.logger.Info().Log(`loop stopped`)
	}()

	l.fireTimers(l.now())

	l.mq.mu.Lock()
	for {
		switch l.mq.state {
		case mqStopping:
			l.mq.state = mqStopped
			l.mq.mu.Unlock()
			return nil
		case mqWaiting, mqMsgArrived:
			l.mq.state = mqRunning
		case mqRunning:
		}

		if l.processMsgsLocked() {
			l.mq.mu.Unlock()
			l.fireTimers(l.now())
			l.mq.mu.Lock()
			continue
		}

		// The queue was empty; mu is still held. Decide how long to wait.
		deadline, hasDeadline := l.heap.peekTime()
		switch {
		case !hasDeadline:
			l.mq.waitTimeout(0)
		case !deadline.After(l.now()):
			l.mq.mu.Unlock()
			l.fireTimers(l.now())
			l.mq.mu.Lock()
		default:
			if expired := l.mq.waitTimeout(deadline.Sub(l.now())); expired {
				l.mq.mu.Unlock()
				l.fireTimers(l.now())
				l.mq.mu.Lock()
			}
		}
	}
}

// processMsgsLocked drains and runs every message currently queued. It
// must be called with mu held; it returns with mu held. Reports whether
// there was anything to run — the caller uses this to decide whether to
// loop back for another drain-and-fire-timers pass (true) or move on to
// computing a wait duration (false).
func (l *Loop) processMsgsLocked() bool {
	head := l.mq.drainLocked()
	if head == nil {
		return false
	}
	l.mq.mu.Unlock()
	for n := head; n != nil; n = n.next {
		l.runMessage(n)
	}
	l.mq.mu.Lock()
	return true
}

// runMessage executes one posted closure with panic recovery, and records
// its post-to-run latency.
func (l *Loop) runMessage(n *msgNode) {
	l.postLatency.observe(l.now().Sub(n.postedAt))
	defer func() {
		if r := recover(); r != nil {
			l.logPanic(`posted message`, r)
		}
	}()
	n.fn()
}

// fireTimers fires every timedAction in the heap whose deadline has
// passed now, re-inserting or removing each as its process result
// dictates. It never holds the heap "borrow" across a callback — there is
// no separate lock to drop here, since the heap is only ever touched from
// this same goroutine, but peek/process/adjust-or-remove still happens in
// that order so a callback is free to mutate the heap (start or cancel
// other timers) without corrupting the in-progress traversal.
func (l *Loop) fireTimers(now time.Time) {
	for {
		act := l.heap.peek(now)
		if act == nil {
			return
		}
		deadline := act.node().deadline
		next, ok := act.process(now)
		if ok {
			l.heap.adjust(act.node(), next)
		} else {
			l.heap.remove(act.node())
		}
		l.timerJitter.observe(now.Sub(deadline))
	}
}

// Close tears down a stopped Loop: any messages still queued are
// discarded (never executed, matching spec.md's "posting to a loop whose
// stop() has been called" rule), and every object remaining in the
// registry is unlinked. Close returns ErrLoopNotStopped if the loop is
// currently running.
func (l *Loop) Close() error {
	l.mq.mu.Lock()
	if l.mq.state != mqStopped {
		l.mq.mu.Unlock()
		return ErrLoopNotStopped
	}
	l.mq.drainLocked()
	l.mq.mu.Unlock()

	for n := l.registry.head; n != nil; {
		next := n.getNext()
		l.registry.remove(n)
		n = next
	}

	l.logger.Info().Log(`loop closed`)
	return nil
}
