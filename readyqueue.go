package uthreads

// readyQueue is the FIFO of runnable TCBs from spec §4.2. By convention
// the front element is the currently running thread.
//
// Adapted from the teacher's list.go, a lock-free Michael-Scott queue
// (head/tail pointers, Enqueue/Dequeue vocabulary). That queue cannot
// remove an arbitrary id from the middle, which block(other) requires,
// and its lock-freedom serves concurrent producers/consumers that
// readyQueue doesn't have - every call here already runs under the
// scheduler's sysmutex. What's kept is the node-pointer shape; what's
// dropped is the CAS machinery, replaced by a plain intrusive doubly
// linked list using each TCB's own prev/next fields.
type readyQueue struct {
	head, tail *threadControlBlock
	length     int
}

func newReadyQueue() *readyQueue {
	return &readyQueue{}
}

// Len reports the number of TCBs currently queued.
func (q *readyQueue) Len() int { return q.length }

// Front returns the currently running thread (the queue head), or nil if
// the queue is empty.
func (q *readyQueue) Front() *threadControlBlock { return q.head }

// Enqueue appends t to the tail of the queue. A t that is already a
// member of the queue is left exactly where it is: the intrusive list
// can only hold each TCB once, so re-enqueuing it (e.g. a thread that
// sleeps for zero quantums and wakes within the very round that is
// still processing it) would rewrite its links and silently drop
// whatever used to follow it.
func (q *readyQueue) Enqueue(t *threadControlBlock) {
	if t.linked {
		return
	}
	t.prev, t.next = nil, nil
	if q.tail == nil {
		q.head, q.tail = t, t
	} else {
		t.prev = q.tail
		q.tail.next = t
		q.tail = t
	}
	t.linked = true
	q.length++
}

// Dequeue removes and returns the front TCB, or nil if the queue is
// empty.
func (q *readyQueue) Dequeue() *threadControlBlock {
	t := q.head
	if t == nil {
		return nil
	}
	q.remove(t)
	return t
}

// Remove unlinks t from the queue in place, wherever it is. t must
// currently be a member of this queue.
func (q *readyQueue) remove(t *threadControlBlock) {
	if t.prev != nil {
		t.prev.next = t.next
	} else {
		q.head = t.next
	}
	if t.next != nil {
		t.next.prev = t.prev
	} else {
		q.tail = t.prev
	}
	t.prev, t.next = nil, nil
	t.linked = false
	q.length--
}

// Remove is the exported-within-package name used by callers outside
// this file removing a thread that may be anywhere in the queue (e.g.
// block(other)).
func (q *readyQueue) Remove(t *threadControlBlock) {
	q.remove(t)
}

// MoveFrontToTail moves the current front to the tail of the queue. Used
// by the scheduler's TICK path: a preempted thread that remains runnable
// goes to the back of the line.
func (q *readyQueue) MoveFrontToTail() {
	t := q.head
	if t == nil || t.next == nil {
		return
	}
	q.remove(t)
	q.Enqueue(t)
}
