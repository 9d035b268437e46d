package uthreads

import "container/heap"

// freedIDHeap is a min-heap of ids returned by prior terminations,
// translating the original library's std::priority_queue<int, ...,
// MinHeapComparator> into the corpus's own idiom for this exact concern
// (see eventloop.timerHeap / barn.TaskQueue in the pack, both built on
// container/heap).
type freedIDHeap []int

func (h freedIDHeap) Len() int            { return len(h) }
func (h freedIDHeap) Less(i, j int) bool  { return h[i] < h[j] }
func (h freedIDHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *freedIDHeap) Push(x interface{}) { *h = append(*h, x.(int)) }
func (h *freedIDHeap) Pop() interface{} {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// idAllocator hands out the smallest unused non-negative id in
// [0, MaxThreadNum), reusing ids released by terminate before minting new
// ones.
type idAllocator struct {
	freed       freedIDHeap
	nextFreshID int
	liveCount   int
}

func newIDAllocator() *idAllocator {
	return &idAllocator{freed: freedIDHeap{}}
}

// alloc returns the next id to use, or ErrMaxThreads if the library is
// already at capacity.
func (a *idAllocator) alloc() (int, error) {
	if a.liveCount >= MaxThreadNum {
		return 0, ErrMaxThreads
	}
	a.liveCount++
	if len(a.freed) > 0 {
		return heap.Pop(&a.freed).(int), nil
	}
	id := a.nextFreshID
	a.nextFreshID++
	return id, nil
}

// release returns id to the pool of ids available for reuse.
func (a *idAllocator) release(id int) {
	a.liveCount--
	heap.Push(&a.freed, id)
}
