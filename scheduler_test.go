package uthreads

import (
	"sync/atomic"
	"testing"
	"time"
)

// The quantum is kept short and every test drives the scheduler the same
// way the spec's own demo scenarios do: by polling a public API function
// (GetTid/GetQuantums) in a loop from the thread whose turn it is to make
// progress. That polling call is exactly the checkpoint a real SIGVTALRM
// tick gets honored at (see scheduler.checkpoint) - without it, nothing
// ever switches away from whichever thread is currently running, main
// included.
const testQuantumUsecs = 2000

func initForTest(t *testing.T) {
	t.Helper()
	if err := Init(testQuantumUsecs, WithSingleOSThread(false)); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	t.Cleanup(func() {
		_ = Shutdown()
	})
}

// pollUntil busy-calls GetTid, the same single-word checkpoint the spec's
// own scenario threads poll, until cond reports true or timeout elapses.
func pollUntil(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for {
		if cond() {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("condition never became true within %s", timeout)
		}
		if _, err := GetTid(); err != nil {
			t.Fatalf("GetTid() error = %v", err)
		}
	}
}

func TestInitRejectsNonPositiveQuantum(t *testing.T) {
	if err := Init(0); err != ErrInvalidQuantum {
		t.Fatalf("Init(0) error = %v, want ErrInvalidQuantum", err)
	}
	if err := Init(-1); err != ErrInvalidQuantum {
		t.Fatalf("Init(-1) error = %v, want ErrInvalidQuantum", err)
	}
}

func TestInitRejectsDoubleInit(t *testing.T) {
	initForTest(t)
	if err := Init(1); err != ErrAlreadyInitialized {
		t.Fatalf("second Init() error = %v, want ErrAlreadyInitialized", err)
	}
}

func TestCallsBeforeInitReturnErrNotInitialized(t *testing.T) {
	if _, err := GetTid(); err != ErrNotInitialized {
		t.Fatalf("GetTid() before Init error = %v, want ErrNotInitialized", err)
	}
	if _, err := Spawn(func() {}); err != ErrNotInitialized {
		t.Fatalf("Spawn() before Init error = %v, want ErrNotInitialized", err)
	}
}

func TestSpawnAssignsSequentialIDsAndSelfTerminates(t *testing.T) {
	initForTest(t)

	var ran1, ran2 atomic.Bool
	id1, err := Spawn(func() { ran1.Store(true) })
	if err != nil {
		t.Fatalf("Spawn() error = %v", err)
	}
	id2, err := Spawn(func() { ran2.Store(true) })
	if err != nil {
		t.Fatalf("Spawn() error = %v", err)
	}
	if id1 != 1 || id2 != 2 {
		t.Fatalf("Spawn() ids = (%d, %d), want (1, 2)", id1, id2)
	}

	pollUntil(t, 5*time.Second, func() bool {
		_, err := GetQuantums(id1)
		_, err2 := GetQuantums(id2)
		return err == ErrUnknownThread && err2 == ErrUnknownThread
	})
	if !ran1.Load() || !ran2.Load() {
		t.Fatalf("spawned threads reported gone from the table without running their entry points")
	}
}

func TestSpawnRejectsNilEntry(t *testing.T) {
	initForTest(t)
	if _, err := Spawn(nil); err != ErrNilEntry {
		t.Fatalf("Spawn(nil) error = %v, want ErrNilEntry", err)
	}
}

// TestIDRecycling is scenario S4 from the spec: terminating a thread
// frees its id for reuse before any fresh id is minted.
func TestIDRecycling(t *testing.T) {
	initForTest(t)

	hold := make(chan struct{})
	spawnHeld := func() int {
		id, err := Spawn(func() {
			for {
				select {
				case <-hold:
					return
				default:
				}
				if _, err := GetTid(); err != nil {
					return
				}
			}
		})
		if err != nil {
			t.Fatalf("Spawn() error = %v", err)
		}
		return id
	}

	idA := spawnHeld()
	idB := spawnHeld()
	idC := spawnHeld()
	if idA != 1 || idB != 2 || idC != 3 {
		t.Fatalf("ids = (%d, %d, %d), want (1, 2, 3)", idA, idB, idC)
	}

	pollUntil(t, 5*time.Second, func() bool {
		n, err := GetQuantums(idB)
		return err == nil && n > 0
	})

	if err := Terminate(idB); err != nil {
		t.Fatalf("Terminate(B) error = %v", err)
	}

	idD, err := Spawn(func() {
		for {
			select {
			case <-hold:
				return
			default:
			}
			if _, err := GetTid(); err != nil {
				return
			}
		}
	})
	if err != nil {
		t.Fatalf("Spawn() error = %v", err)
	}
	if idD != idB {
		t.Fatalf("Spawn() after freeing id %d returned %d, want the freed id", idB, idD)
	}

	close(hold)
	pollUntil(t, 5*time.Second, func() bool {
		_, errA := GetQuantums(idA)
		_, errC := GetQuantums(idC)
		_, errD := GetQuantums(idD)
		return errA == ErrUnknownThread && errC == ErrUnknownThread && errD == ErrUnknownThread
	})
}

// TestBlockResume is scenario S3: a blocked thread accrues no quantums
// until resumed.
func TestBlockResume(t *testing.T) {
	initForTest(t)

	proceed := make(chan struct{})
	id, err := Spawn(func() {
		for {
			select {
			case <-proceed:
				return
			default:
			}
			if _, err := GetTid(); err != nil {
				return
			}
		}
	})
	if err != nil {
		t.Fatalf("Spawn() error = %v", err)
	}

	pollUntil(t, 5*time.Second, func() bool {
		n, err := GetQuantums(id)
		return err == nil && n > 0
	})

	if err := Block(id); err != nil {
		t.Fatalf("Block() error = %v", err)
	}
	before, err := GetQuantums(id)
	if err != nil {
		t.Fatalf("GetQuantums() error = %v", err)
	}

	quiet := time.Now().Add(100 * time.Millisecond)
	for time.Now().Before(quiet) {
		if _, err := GetTid(); err != nil {
			t.Fatalf("GetTid() error = %v", err)
		}
	}
	after, err := GetQuantums(id)
	if err != nil {
		t.Fatalf("GetQuantums() error = %v", err)
	}
	if after != before {
		t.Fatalf("blocked thread's quanta_run changed from %d to %d", before, after)
	}

	close(proceed)
	if err := Resume(id); err != nil {
		t.Fatalf("Resume() error = %v", err)
	}

	pollUntil(t, 5*time.Second, func() bool {
		_, err := GetQuantums(id)
		return err == ErrUnknownThread
	})
}

func TestBlockMainThreadIsRejected(t *testing.T) {
	initForTest(t)
	if err := Block(0); err != ErrInvalidThread {
		t.Fatalf("Block(0) error = %v, want ErrInvalidThread", err)
	}
}

func TestSleepMainThreadIsRejected(t *testing.T) {
	initForTest(t)
	if err := Sleep(1); err != ErrMainThreadSleep {
		t.Fatalf("Sleep() on main thread error = %v, want ErrMainThreadSleep", err)
	}
}

// TestSleepDoesNotAccrueQuantums is scenario S2: a sleeping thread's
// quanta_run does not change while it sleeps.
func TestSleepDoesNotAccrueQuantums(t *testing.T) {
	initForTest(t)

	var woke atomic.Bool
	id, err := Spawn(func() {
		_ = Sleep(3)
		woke.Store(true)
	})
	if err != nil {
		t.Fatalf("Spawn() error = %v", err)
	}

	var quantaBeforeWake int
	pollUntil(t, 5*time.Second, func() bool {
		if n, err := GetQuantums(id); err == nil && n > 0 {
			quantaBeforeWake = n
		}
		return woke.Load()
	})

	if quantaBeforeWake != 1 {
		t.Fatalf("thread ran %d quantums before its only Sleep call, want 1", quantaBeforeWake)
	}
}

func TestTerminateUnknownThread(t *testing.T) {
	initForTest(t)
	if err := Terminate(42); err != ErrUnknownThread {
		t.Fatalf("Terminate(42) error = %v, want ErrUnknownThread", err)
	}
}

func TestGetQuantumsUnknownThread(t *testing.T) {
	initForTest(t)
	if _, err := GetQuantums(42); err != ErrUnknownThread {
		t.Fatalf("GetQuantums(42) error = %v, want ErrUnknownThread", err)
	}
}
