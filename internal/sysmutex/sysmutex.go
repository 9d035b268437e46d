// Package sysmutex provides the single low-level lock uthreads uses to
// guard all scheduler state, the Go analog of masking the quantum signal
// around a critical section.
package sysmutex

import _ "unsafe" // for go:linkname

// Mutex is a futex-style lock borrowed directly from the Go runtime's own
// internal mutex. Unlike sync.Mutex it never allocates and never parks the
// calling goroutine through the channel/select machinery, which keeps the
// scheduler's critical sections as close as possible to the original
// library's sigprocmask-guarded sections: cheap, uncontended-fast, and not
// reentrant.
//
// Mutual exclusion locks.  In the uncontended case, as fast as spin locks
// (just a few user-level instructions), but on the contention path they
// sleep in the kernel.
// A zeroed Mutex is unlocked (no need to initialize each lock).
type Mutex struct {
	// Futex-based impl treats it as uint32 key,
	// while sema-based impl as M* waitm.
	key uintptr
}

//go:linkname runtimeLock runtime.lock
func runtimeLock(l *Mutex)

//go:linkname runtimeUnlock runtime.unlock
func runtimeUnlock(l *Mutex)

// Lock acquires the mutex, blocking until it is available.
func (m *Mutex) Lock() { runtimeLock(m) }

// Unlock releases the mutex. Unlocking an unlocked Mutex is undefined,
// same as the runtime primitive it wraps.
func (m *Mutex) Unlock() { runtimeUnlock(m) }
