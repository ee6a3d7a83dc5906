package runloop

import "sync/atomic"

// newTestLoop returns a Loop with its owner goroutine pinned to the calling
// goroutine, without going through Run. This lets tests exercise
// goroutine-affine APIs (Timer, Schedule, object registry) directly and
// synchronously, the same way Run would from inside the loop.
func newTestLoop() *Loop {
	l := New()
	atomic.StoreUint64(&l.mq.ownerGoroutine, getGoroutineID())
	return l
}
