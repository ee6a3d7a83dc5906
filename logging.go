package runloop

import (
	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
)

// Logger is the structured logger type accepted by WithLogger. It's a type
// alias rather than a new interface because logiface.Logger[*stumpy.Event]
// is itself the complete builder/level API (Info, Err, Warning, ...) — an
// indirection here would just be a second name for the same thing.
type Logger = logiface.Logger[*stumpy.Event]

// disabledLogger returns a logger that drops everything at LevelDisabled,
// used as the zero-overhead default when no WithLogger option is supplied.
func disabledLogger() *Logger {
	return stumpy.L.New(stumpy.L.WithLevel(logiface.LevelDisabled))
}

// logPanic records a recovered user-callback panic at Error level. This is
// the one log site on the hot path; everything else (loop start/stop,
// registry teardown) only fires once per Loop lifetime.
func (l *Loop) logPanic(site string, recovered any) {
	l.logger.Err().
		Str(`site`, site).
		Interface(`recovered`, recovered).
		Log(`recovered panic from user callback`)
}
