package uthreads

import "runtime"

// options configures Init beyond the mandatory quantum length. The
// original library gets its "exactly one thread runs at a time"
// invariant for free from being single-threaded C; Go's runtime is free
// to run goroutines across every available core, so that same invariant
// has to be requested explicitly here.
type options struct {
	singleOSThread bool
}

func defaultOptions() options {
	return options{singleOSThread: true}
}

// Option configures Init. See WithSingleOSThread.
type Option func(*options)

// WithSingleOSThread controls whether Init pins the process to
// GOMAXPROCS(1) for as long as the library is initialized. Defaults to
// true, which is what makes "exactly one logical thread is ever actually
// executing" (spec §4, invariant I-ONE-RUN) hold as more than a
// scheduling convention: with more than one P, two goroutines that are
// each, from the scheduler's point of view, "the current thread" and "a
// thread mid-Jump" can briefly run on different cores at once (see
// gate.Gate's own doc comment). Callers who are confident their own
// process already runs single-threaded, or who accept that narrow
// overlap window, may disable it.
func WithSingleOSThread(enabled bool) Option {
	return func(o *options) { o.singleOSThread = enabled }
}

// pinSingleOSThread applies WithSingleOSThread, returning the previous
// GOMAXPROCS value so Shutdown can restore it.
func (o options) pinSingleOSThread() (previous int) {
	if !o.singleOSThread {
		return runtime.GOMAXPROCS(0)
	}
	return runtime.GOMAXPROCS(1)
}
