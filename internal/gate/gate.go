// Package gate provides the context-switch primitive uthreads uses in
// place of sigsetjmp/siglongjmp: a 1:1 park/wake pair targeting one
// specific goroutine, built directly on the Go runtime's own goroutine
// scheduling hooks rather than on channels or sync.Cond.
//
// Known Limitations:-
//
// 1. Jump can only complete once the goroutine owning the Gate has
//    parked in Save. The scheduler may select a freshly spawned TCB
//    before its goroutine has reached its first Save; Jump then spins
//    until that goroutine has parked.
// 2. A Gate serves exactly one goroutine for its whole lifetime. It is not
//    a general wait queue - see thread_parker.go in the teacher for that
//    shape, which this package deliberately does not carry forward.
package gate

import (
	"runtime"
	"sync/atomic"
	"unsafe"
)

// Gate is the per-thread-control-block parking point. The zero value has
// no goroutine parked on it and is ready for use; New returns one.
type Gate struct {
	g unsafe.Pointer
}

// New returns a Gate with no goroutine parked on it yet.
func New() *Gate {
	return new(Gate)
}

// Save parks the calling goroutine until a later Jump call targets this
// Gate. It must only be called by the goroutine that owns the Gate.
//
// This is the Go analog of the "save" half of the original library's
// sigsetjmp/siglongjmp pair: control leaves here and later re-enters here
// restarted, woken by whichever scheduler decision calls Jump.
func (gt *Gate) Save() {
	atomic.StorePointer(&gt.g, GetG())
	mcall(fastPark)
}

// Jump wakes the goroutine parked on this Gate, transferring it back onto
// a P to run. It never returns to a caller that is itself being parked by
// the same call - by the time Jump's caller is done, the target is merely
// runnable again, it isn't guaranteed to be running yet.
//
// A freshly spawned goroutine may not have reached its first Save call
// yet when Jump targets it, so this also spins for g itself to be
// published, not just for its status to flip to waiting.
func (gt *Gate) Jump() {
	iter := 0
	var g unsafe.Pointer
	for {
		g = atomic.LoadPointer(&gt.g)
		if g != nil && readgstatus(g) == gWaiting {
			break
		}
		if runtimeCanSpin(iter) {
			iter++
			runtimeDoSpin()
		} else {
			runtime.Gosched()
		}
	}
	goready(g, 1)
}

// fastPark is run on the system stack via mcall; it drops the calling
// goroutine from its P, marks it waiting, and asks the scheduler to find
// something else to run - the Go-level equivalent of the original
// library's scheduler handing the freed OS thread of control to the next
// ready thread.
func fastPark(gp unsafe.Pointer) {
	dropg()
	casgstatus(gp, gRunning, gWaiting)
	schedule()
}
