package uthreads

import (
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"golang.org/x/sys/unix"
)

// quantumTimer arms a real ITIMER_VIRTUAL and turns delivery of the
// resulting SIGVTALRM into a pending flag the currently running thread
// honors at its next library call (see checkpoint in scheduler.go).
//
// This is the one place this library is forced to depart from the
// original's true asynchronous-signal-handler preemption: Go delivers
// signals to a dedicated runtime-managed goroutine via signal.Notify,
// never by interrupting whatever goroutine happens to be running user
// code. A flag checked at the next uthreads call is the closest faithful
// equivalent available without reaching into undocumented runtime
// preemption internals - see DESIGN.md.
type quantumTimer struct {
	usecs   int64
	sigCh   chan os.Signal
	stopCh  chan struct{}
	pending atomic.Bool
}

func newQuantumTimer(usecs int64) *quantumTimer {
	return &quantumTimer{
		usecs:  usecs,
		sigCh:  make(chan os.Signal, 1),
		stopCh: make(chan struct{}),
	}
}

// install registers the SIGVTALRM watcher goroutine. signal.Notify has
// no failure result, so install always returns nil; Init treats a
// non-nil error from it as an unrecoverable system failure.
func (t *quantumTimer) install() error {
	signal.Notify(t.sigCh, syscall.SIGVTALRM)
	go t.watch()
	return nil
}

func (t *quantumTimer) watch() {
	for {
		select {
		case <-t.sigCh:
			t.pending.Store(true)
		case <-t.stopCh:
			signal.Stop(t.sigCh)
			return
		}
	}
}

// takePending reports whether a quantum has expired since the last call,
// clearing the flag.
func (t *quantumTimer) takePending() bool {
	return t.pending.CompareAndSwap(true, false)
}

// arm (re)starts the virtual timer with the configured interval - the Go
// equivalent of the original's set_alarm.
func (t *quantumTimer) arm() error {
	iv := unix.Itimerval{
		Interval: unix.Timeval{
			Sec:  t.usecs / 1e6,
			Usec: t.usecs % 1e6,
		},
	}
	iv.Value = iv.Interval
	return unix.Setitimer(unix.ITIMER_VIRTUAL, &iv, nil)
}

// stop disarms the virtual timer - the Go equivalent of the original's
// stop_timer, called at the start of every scheduler round (runRound)
// and by shutdown. Other critical sections hold the scheduler lock and
// leave the timer running.
func (t *quantumTimer) stop() error {
	var iv unix.Itimerval
	return unix.Setitimer(unix.ITIMER_VIRTUAL, &iv, nil)
}

// shutdown permanently stops the watcher goroutine and disarms the timer.
func (t *quantumTimer) shutdown() {
	_ = t.stop()
	close(t.stopCh)
}
