// Package uthreads is a user-space cooperative-preemptive thread library:
// a single process-wide scheduler multiplexes up to MaxThreadNum logical
// threads, each a goroutine, onto one logical CPU, switching between
// them either when a timer quantum expires or when a thread voluntarily
// blocks, sleeps, or terminates. See SPEC_FULL.md for the full design.
package uthreads

import (
	"os"
	"runtime"
	"sync"

	"github.com/nyxcode/uthreads/internal/obslog"
)

var (
	globalMu   sync.Mutex
	global     *scheduler
	prevGOMAXP int
)

// Init brings the library up with the given quantum length in
// microseconds. It must be called exactly once before any other
// function in this package, and must not be called again until a
// prior initialization has been torn down with Shutdown.
func Init(quantumUsecs int64, opts ...Option) error {
	globalMu.Lock()
	defer globalMu.Unlock()

	if global != nil {
		obslog.Application("Init", ErrAlreadyInitialized)
		return ErrAlreadyInitialized
	}
	if quantumUsecs <= 0 {
		obslog.Application("Init", ErrInvalidQuantum)
		return ErrInvalidQuantum
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	prevGOMAXP = o.pinSingleOSThread()

	s := newScheduler(quantumUsecs, o)

	// Reserve id 0 for the main thread through the normal minting path,
	// the same way the original routes uthread_init's implicit main
	// thread through uthread_spawn, so nextFreshID is correctly bumped
	// to 1 and the first real Spawn doesn't collide with id 0.
	id0, err := s.ids.alloc()
	if err != nil {
		obslog.System("Init", err)
		return err
	}
	tcb0 := newTCB(id0, nil)
	tcb0.state = stateRunning
	s.table.occupy(id0, tcb0)
	s.ready.Enqueue(tcb0)
	s.currentTid = id0

	if err := s.timer.install(); err != nil {
		obslog.System("Init", err)
		os.Exit(1)
	}
	obslog.Log.Info().Int64("quantum_usecs", s.quantumUsecs).Msg("uthreads initialized")

	// Thread 0's first (and only) trip through the scheduler: the
	// single-ready-thread fast path in runRound increments its quantum
	// count and arms the timer without any Jump/Save, since there is
	// nothing yet to switch to. This is the uniform "everyone, including
	// id 0, enters through the scheduler once" framing from spec §9
	// applied without needing a literal save/jump round trip for the
	// one case where it would be a no-op anyway.
	s.mu.Lock()
	s.runRound(modeTick)
	s.mu.Unlock()

	global = s
	return nil
}

// Shutdown tears down a previously Init'd library, releasing the timer
// and watcher goroutine and restoring GOMAXPROCS. It must be called from
// the main thread (id 0) with no other threads live; calling it at any
// other time leaves orphaned goroutines parked forever on their gates.
func Shutdown() error {
	globalMu.Lock()
	defer globalMu.Unlock()

	if global == nil {
		obslog.Application("Shutdown", ErrNotInitialized)
		return ErrNotInitialized
	}
	global.timer.shutdown()
	runtime.GOMAXPROCS(prevGOMAXP)
	global = nil
	return nil
}

// current returns the live scheduler, or ErrNotInitialized.
func current() (*scheduler, error) {
	globalMu.Lock()
	s := global
	globalMu.Unlock()
	if s == nil {
		return nil, ErrNotInitialized
	}
	return s, nil
}

// Spawn creates a new thread running entry and returns its id. The new
// thread starts in the READY state; it is not guaranteed to run before
// Spawn returns.
func Spawn(entry EntryPoint) (int, error) {
	s, err := current()
	if err != nil {
		obslog.Application("Spawn", err)
		return 0, err
	}
	if entry == nil {
		obslog.Application("Spawn", ErrNilEntry)
		return 0, ErrNilEntry
	}

	s.mu.Lock()
	s.checkpoint()

	id, err := s.ids.alloc()
	if err != nil {
		s.mu.Unlock()
		obslog.Application("Spawn", err)
		return 0, err
	}

	tcb := newTCB(id, entry)
	s.table.occupy(id, tcb)
	s.ready.Enqueue(tcb)
	s.mu.Unlock()

	go runThread(s, tcb)

	return id, nil
}

// runThread is the body of every spawned thread's backing goroutine: it
// parks immediately, waiting for the scheduler to Jump to it the first
// time it is selected to run, then runs the user entry point, then
// terminates itself exactly as if the thread had called Terminate on its
// own id.
func runThread(s *scheduler, tcb *threadControlBlock) {
	tcb.gate.Save()
	tcb.entry()
	terminateCurrent(s, tcb)
}

// Terminate ends the thread named by tid. Terminating thread 0 (the
// main thread) ends the whole process, exactly as in the original
// library, since there is no caller left to return control to.
func Terminate(tid int) error {
	s, err := current()
	if err != nil {
		obslog.Application("Terminate", err)
		return err
	}

	s.mu.Lock()
	s.checkpoint()

	t := s.table.get(tid)
	if t == nil {
		s.mu.Unlock()
		obslog.Application("Terminate", ErrUnknownThread)
		return ErrUnknownThread
	}

	if tid == 0 {
		s.mu.Unlock()
		_ = Shutdown()
		os.Exit(0)
	}

	if tid == s.currentTid {
		s.mu.Unlock()
		terminateCurrent(s, t) // never returns: ends via runtime.Goexit
		return nil
	}

	// Terminating another, non-running thread: remove it from wherever
	// it is and reclaim its resources immediately, no scheduler round
	// needed since the CPU ownership doesn't change.
	switch {
	case t.state == stateSleeping || t.blocked:
		s.sleep.purge(t)
	default:
		s.ready.Remove(t)
	}
	t.stack = nil
	s.table.vacate(tid)
	s.ids.release(tid)
	s.mu.Unlock()
	return nil
}

// terminateCurrent runs the TERMINATE_SELF scheduler round for t, which
// must be the currently running thread, then ends the calling goroutine
// via runtime.Goexit. It locks s.mu itself since every caller path
// reaches it without the lock held.
//
// Goexit is what makes this "never return to the caller" the way the
// original's siglongjmp-based terminate never returns: a plain function
// return would hand control straight back to whatever entry() code
// called Terminate(self), which is exactly the thread that is supposed
// to no longer exist.
func terminateCurrent(s *scheduler, t *threadControlBlock) {
	s.mu.Lock()
	s.runRound(modeTerminateSelf)
	// mu is left unlocked by runRound for modeTerminateSelf; t's
	// resources were already reclaimed inside runRound under the lock.
	runtime.Goexit()
}

// Block prevents tid from being scheduled until a matching Resume. tid
// may name the calling thread, in which case Block does not return until
// some other thread calls Resume on it. Thread 0 may not be blocked.
func Block(tid int) error {
	s, err := current()
	if err != nil {
		obslog.Application("Block", err)
		return err
	}

	s.mu.Lock()
	s.checkpoint()

	t := s.table.get(tid)
	if t == nil {
		s.mu.Unlock()
		obslog.Application("Block", ErrUnknownThread)
		return ErrUnknownThread
	}
	if tid == 0 {
		s.mu.Unlock()
		obslog.Application("Block", ErrInvalidThread)
		return ErrInvalidThread
	}

	if t.blocked {
		s.mu.Unlock()
		return nil
	}
	t.blocked = true

	switch {
	case t.state == stateSleeping:
		// Stays in the sleep index; runRound's wake sweep will leave it
		// BLOCKED instead of re-enqueuing it when its timer fires.
		s.mu.Unlock()
		return nil
	case tid == s.currentTid:
		t.state = stateBlocked
		s.runRound(modeYieldBlocked)
		s.mu.Unlock()
		return nil
	default:
		t.state = stateBlocked
		s.ready.Remove(t)
		s.mu.Unlock()
		return nil
	}
}

// Resume makes tid eligible to run again after a Block, and is a no-op
// if tid was not blocked. It does not itself yield the CPU.
func Resume(tid int) error {
	s, err := current()
	if err != nil {
		obslog.Application("Resume", err)
		return err
	}

	s.mu.Lock()
	s.checkpoint()

	t := s.table.get(tid)
	if t == nil {
		s.mu.Unlock()
		obslog.Application("Resume", ErrUnknownThread)
		return ErrUnknownThread
	}
	if !t.blocked {
		s.mu.Unlock()
		return nil
	}
	t.blocked = false
	if t.state == stateSleeping {
		// Still waiting for its own wake quantum; the sleep sweep will
		// enqueue it once that arrives, since blocked is now false.
		s.mu.Unlock()
		return nil
	}
	t.state = stateReady
	s.ready.Enqueue(t)
	s.mu.Unlock()
	return nil
}

// Sleep puts the calling thread to sleep for numQuantums full quantums,
// after which it becomes READY again (immediately, if nothing else also
// blocks it). The main thread (id 0) may not sleep.
func Sleep(numQuantums uint64) error {
	s, err := current()
	if err != nil {
		obslog.Application("Sleep", err)
		return err
	}

	s.mu.Lock()
	s.checkpoint()

	tid := s.currentTid
	if tid == 0 {
		s.mu.Unlock()
		obslog.Application("Sleep", ErrMainThreadSleep)
		return ErrMainThreadSleep
	}
	t := s.table.get(tid)

	t.state = stateSleeping
	t.wakeAt = s.totalQuantums + numQuantums + 1
	s.sleep.insert(t.wakeAt, t)
	s.runRound(modeYieldBlocked)
	s.mu.Unlock()
	return nil
}

// GetTid returns the id of the currently running thread.
func GetTid() (int, error) {
	s, err := current()
	if err != nil {
		obslog.Application("GetTid", err)
		return 0, err
	}
	s.mu.Lock()
	s.checkpoint()
	tid := s.currentTid
	s.mu.Unlock()
	return tid, nil
}

// GetTotalQuantums returns the total number of quantums started since
// Init, counting the one the currently running thread is spending now.
func GetTotalQuantums() (uint64, error) {
	s, err := current()
	if err != nil {
		obslog.Application("GetTotalQuantums", err)
		return 0, err
	}
	s.mu.Lock()
	s.checkpoint()
	n := s.totalQuantums
	s.mu.Unlock()
	return n, nil
}

// GetQuantums returns the number of quantums thread tid has run so far,
// including its current one if it is the running thread.
func GetQuantums(tid int) (int, error) {
	s, err := current()
	if err != nil {
		obslog.Application("GetQuantums", err)
		return 0, err
	}
	s.mu.Lock()
	s.checkpoint()
	t := s.table.get(tid)
	if t == nil {
		s.mu.Unlock()
		obslog.Application("GetQuantums", ErrUnknownThread)
		return 0, ErrUnknownThread
	}
	n := t.quantaRun
	s.mu.Unlock()
	return n, nil
}
