package uthreads

// Compile-time constants controlling the library's resource limits.
const (
	// MaxThreadNum caps the number of simultaneously live threads,
	// including the main thread (id 0).
	MaxThreadNum = 128

	// StackSize is the size in bytes of the private stack buffer every
	// TCB retains for its lifetime. The goroutine backing a thread uses
	// the Go runtime's own growable stack to actually execute - see
	// DESIGN.md for why this buffer is still allocated and released.
	StackSize = 4096
)

// awake is the wakeAt sentinel for a thread that is not sleeping.
const awake = ^uint64(0)
