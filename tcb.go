package uthreads

import "github.com/nyxcode/uthreads/internal/gate"

// EntryPoint is the zero-argument function a spawned thread runs.
type EntryPoint func()

// state is a thread's position in the lifecycle described in spec §3/§4.6.
type state int

const (
	stateReady state = iota
	stateRunning
	stateBlocked
	stateSleeping
)

func (s state) String() string {
	switch s {
	case stateReady:
		return "READY"
	case stateRunning:
		return "RUNNING"
	case stateBlocked:
		return "BLOCKED"
	case stateSleeping:
		return "SLEEPING"
	default:
		return "UNKNOWN"
	}
}

// threadControlBlock is the per-thread record: identity, saved execution
// context, private stack, scheduling state, and quantum bookkeeping.
//
// prev/next make the TCB an intrusive doubly linked list node so the
// ready queue can append, pop, and remove it in O(1) - see readyqueue.go.
type threadControlBlock struct {
	id    int
	entry EntryPoint
	stack []byte // retained STACK_SIZE-byte resource; see DESIGN.md
	gate  *gate.Gate

	state state
	// blocked is orthogonal to state: a thread can be SLEEPING and
	// blocked at once (spec §9, Open Question / composition rule).
	// resolution (a): keep an explicit flag rather than a fourth state.
	blocked bool

	quantaRun int
	wakeAt    uint64 // absolute quantum to wake at, or `awake` sentinel

	prev, next *threadControlBlock
	// linked reports whether this TCB is currently a member of the ready
	// queue. A bare prev/next nil check can't tell a lone queue member
	// from one that was never enqueued, and a TCB can only ever be
	// linked into the list once - see readyQueue.Enqueue.
	linked bool
}

// newTCB allocates a TCB with its STACK_SIZE buffer and gate, in the
// READY state with no wake target.
func newTCB(id int, entry EntryPoint) *threadControlBlock {
	return &threadControlBlock{
		id:     id,
		entry:  entry,
		stack:  make([]byte, StackSize),
		gate:   gate.New(),
		state:  stateReady,
		wakeAt: awake,
	}
}
