package uthreads

import (
	"github.com/nyxcode/uthreads/internal/sysmutex"
)

// mode names the reason the scheduler is being entered, mirroring the
// three-way switch (TICK / YIELD_BLOCKED / TERMINATE_SELF) from spec §4.6.
type mode int

const (
	modeTick mode = iota
	modeYieldBlocked
	modeTerminateSelf
)

// scheduler is the process-wide singleton holding every piece of
// scheduling state described in spec §3-4: the thread table, ready queue,
// sleep index, id allocator, and quantum bookkeeping, all guarded by a
// single sysmutex in place of the original's signal mask.
type scheduler struct {
	mu sysmutex.Mutex

	table   threadTable
	ready   *readyQueue
	sleep   *sleepIndex
	ids     *idAllocator
	timer   *quantumTimer
	options options

	quantumUsecs  int64
	totalQuantums uint64
	currentTid    int
}

// newScheduler builds a scheduler with the given quantum length in
// microseconds, ready to have thread 0 installed by Init.
func newScheduler(quantumUsecs int64, opts options) *scheduler {
	return &scheduler{
		ready:        newReadyQueue(),
		sleep:        newSleepIndex(),
		ids:          newIDAllocator(),
		timer:        newQuantumTimer(quantumUsecs),
		options:      opts,
		quantumUsecs: quantumUsecs,
	}
}

// checkpoint is the cooperative preemption hook: every exported API
// function calls it first, after taking the lock. If the quantum timer
// has fired since the last checkpoint, it runs a full TICK round on the
// caller's behalf before the caller's own request proceeds.
//
// This is the adaptation discussed in DESIGN.md ("Cooperative
// preemption"): Go cannot
// forcibly suspend an arbitrary running goroutine from a signal handler,
// so the switch away from the running thread is deferred to the next
// point that thread re-enters the library. Every demo scenario in spec
// §8 has its thread bodies poll GetQuantums/GetTid every loop iteration,
// which is exactly such a point.
//
// Must be called with mu held; mu is held throughout and only released
// inside runRound when a real switch happens.
func (s *scheduler) checkpoint() {
	if !s.timer.takePending() {
		return
	}
	s.runRound(modeTick)
}

// runRound executes the nine-step algorithm from spec §4.6 for the given
// mode. checkpoint calls it for modeTick; Block, Sleep and Terminate call
// it directly for modeYieldBlocked/modeTerminateSelf when the running
// thread must give up the CPU immediately rather than waiting for the
// next checkpoint. Called with mu held; mu is held again on return unless
// m is modeTerminateSelf, in which case the caller must not touch
// scheduler state again.
func (s *scheduler) runRound(m mode) {
	// Step 1: stop the timer - we are now in a critical section.
	_ = s.timer.stop()

	// Step 2: wake sweep. total_quantums is about to advance by one;
	// anyone sleeping until that new value wakes now.
	wakeQuantum := s.totalQuantums + 1
	for _, t := range s.sleep.sweep(wakeQuantum) {
		t.wakeAt = awake
		if t.blocked {
			// still blocked: stays off the ready queue until Resume, but
			// is no longer sleeping either.
			t.state = stateBlocked
			continue
		}
		t.state = stateReady
		s.ready.Enqueue(t)
	}

	outgoing := s.ready.Front()

	switch m {
	case modeTick:
		s.ready.MoveFrontToTail()
	case modeYieldBlocked:
		s.ready.Dequeue()
		if outgoing != nil && outgoing.state == stateReady {
			// The wake sweep above already revived outgoing within this
			// same round - e.g. Sleep(0), whose wakeAt equals the very
			// quantum this round is about to start - overriding whatever
			// BLOCKED/SLEEPING state its caller set just before invoking
			// runRound. Put it back at the tail instead of dropping it
			// off the ready queue entirely.
			s.ready.Enqueue(outgoing)
		}
	case modeTerminateSelf:
		s.ready.Dequeue()
	}

	next := s.ready.Front()

	s.totalQuantums++
	if next != nil {
		next.quantaRun++
		s.currentTid = next.id
	}

	switch m {
	case modeTick:
		outgoing.state = stateReady
	case modeYieldBlocked:
		// outgoing's state was already set by the caller (BLOCKED or
		// SLEEPING) before runRound was invoked.
	case modeTerminateSelf:
		// Reclaim the departing thread's id and table slot now, still
		// under the lock, rather than after the jump: unlike the
		// original's raw stack, nothing here is unsafe to free while the
		// outgoing goroutine is still the one executing this code, and
		// doing it here avoids a race with whatever next (or anyone
		// else) does immediately after waking.
		s.table.vacate(outgoing.id)
		s.ids.release(outgoing.id)
	}
	if next != nil {
		next.state = stateRunning
	}

	// Step 9: rearm the timer and release the critical section before
	// handing control to next. Rearming before the jump (rather than
	// after) means next starts its quantum with a live timer exactly as
	// the original's set_alarm does right before siglongjmp.
	_ = s.timer.arm()
	s.mu.Unlock()

	if next != nil && next != outgoing {
		next.gate.Jump()
	}

	if m != modeTerminateSelf {
		if outgoing != nil && next != outgoing {
			outgoing.gate.Save()
		}
		// outgoing resumes here on a later Jump; mu is not held - the
		// caller that invoked checkpoint/runRound originally released it
		// above and must not assume it is still held either.
		s.mu.Lock()
	}
}

