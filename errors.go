package uthreads

import "errors"

// Sentinel errors for every invalid-argument and resource-exhaustion
// condition named in the spec. Callers can compare with errors.Is; each
// is also logged (at Warn) through internal/obslog when returned from a
// public API call.
var (
	// ErrNotInitialized is returned when a public API function other
	// than Init is called before Init has succeeded.
	ErrNotInitialized = errors.New("uthreads: library not initialized")

	// ErrAlreadyInitialized is returned by Init when called again
	// without an intervening Terminate(0)/Shutdown.
	ErrAlreadyInitialized = errors.New("uthreads: library already initialized")

	// ErrInvalidQuantum is returned by Init for a non-positive quantum.
	ErrInvalidQuantum = errors.New("uthreads: quantum_usecs must be positive")

	// ErrMaxThreads is returned by Spawn when MaxThreadNum threads are
	// already live.
	ErrMaxThreads = errors.New("uthreads: maximum thread count reached")

	// ErrNilEntry is returned by Spawn when entry is nil.
	ErrNilEntry = errors.New("uthreads: spawn entry point must not be nil")

	// ErrUnknownThread is returned when tid does not name a live thread.
	ErrUnknownThread = errors.New("uthreads: unknown thread id")

	// ErrInvalidThread is returned for tid 0 where the operation forbids
	// the main thread (Block). A negative tid names no live thread and
	// gets ErrUnknownThread.
	ErrInvalidThread = errors.New("uthreads: invalid thread id")

	// ErrMainThreadSleep is returned by Sleep when called from the main
	// thread (id 0), which is forbidden.
	ErrMainThreadSleep = errors.New("uthreads: the main thread cannot sleep")
)
