// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package runloop

// loopOptions holds configuration options for Loop creation.
type loopOptions struct {
	logger *Logger
}

// LoopOption configures a Loop instance.
type LoopOption interface {
	applyLoop(*loopOptions)
}

// loopOptionImpl implements LoopOption.
type loopOptionImpl struct {
	applyLoopFunc func(*loopOptions)
}

func (l *loopOptionImpl) applyLoop(opts *loopOptions) { l.applyLoopFunc(opts) }

// WithLogger sets the structured logger a Loop uses for its lifecycle and
// panic-recovery log sites. Without this option, a disabled (zero
// overhead) logger is used.
func WithLogger(logger *Logger) LoopOption {
	return &loopOptionImpl{func(opts *loopOptions) {
		opts.logger = logger
	}}
}

// resolveLoopOptions applies LoopOption instances to loopOptions.
func resolveLoopOptions(opts []LoopOption) *loopOptions {
	cfg := &loopOptions{}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt.applyLoop(cfg)
	}
	return cfg
}
