package runloop

import "errors"

// Sentinel errors returned by Loop and Handle operations, matched with
// errors.Is.
var (
	// ErrLoopAlreadyRunning is returned by Run when called on a loop that
	// is already running on a different goroutine.
	ErrLoopAlreadyRunning = errors.New("runloop: loop is already running")

	// ErrLoopNotStopped is returned by Close when the loop is still
	// running; Close only tears down a loop that has already returned
	// from Run.
	ErrLoopNotStopped = errors.New("runloop: loop is not stopped")
)

// overflowGuard panics with a message identifying the refcount kind. The
// panic is deliberately never recovered anywhere in this package: a
// spec-mandated refcount overflow guards against wraparound-to-use-after-free,
// and must bring the process down the way Rust's std::process::abort() would
// for the same condition. A caller-installed recover() elsewhere cannot
// observe this panic unless it unwinds through the same goroutine, which is
// the intended failure mode — there is no portable "abort the process"
// primitive appropriate for a library, so an unrecovered panic is the
// closest equivalent.
func overflowGuard(kind string) {
	panic("runloop: " + kind + " refcount overflow")
}
