// Package runloop provides a per-goroutine message loop runtime: a
// cross-goroutine work-posting queue, a timed-action scheduler (one-shot
// [Timer] and periodic [Schedule]), and a loop-affine object registry that
// hands out thread-safe, reference-counted handles ([ObjectHandle],
// [ObjectWeak]) to data that is only ever read or dropped on the owning
// loop's goroutine.
//
// # Architecture
//
// A [Loop] owns exactly one message queue, one timer heap, and one object
// registry. Exactly one goroutine — whichever calls [Loop.Run] — ever
// touches the timer heap or the object registry; any goroutine may hold a
// [Handle] (via [Loop.CloneHandle]) and post work via [Handle.Post].
//
// Composition: [Loop.Run] pulls work from the message queue, then from the
// timer heap; [Timer] and [Schedule] push into the timer heap; object
// handles push closures into the message queue to guarantee loop-goroutine
// execution of both user callbacks and of the object's destruction.
//
// # Goroutine Affinity
//
// Go has no user-visible OS threads, so "the owning thread" becomes "the
// goroutine that called Run". [ObjectHandle.GetRef], and the loop-affine
// Timer, Schedule and object-registry operations, rely on comparing the
// calling goroutine's id against the one recorded at Run entry to guarantee
// loop-affine access. [Loop.IsOwnHandle] is a plain identity test on the
// Handle's message queue.
//
// # Non-goals
//
// This package performs no network, file, or UI I/O: the loop wakes only on
// posted work and timer expiry. It does not implement cross-loop object
// migration, fair scheduling between timers and posted messages (messages
// are always drained greedily before timers are re-examined), priority
// queues keyed on anything but absolute deadline, work-stealing across
// loops, or blocking submit/response — all submissions are fire-and-forget.
//
// # Usage
//
//	l := runloop.New()
//
//	go func() {
//	    h := l.CloneHandle()
//	    h.Post(func() {
//	        fmt.Println("hello from the loop goroutine")
//	        h.Stop()
//	    })
//	}()
//
//	l.Run()
package runloop
