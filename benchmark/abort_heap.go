package benchmark

import "container/heap"

// abortEntry is a backed-off query waiting to be retried once readyTime
// passes.
type abortEntry struct {
	query     Query
	readyTime int64 // unix nanos
	startTime int64 // unix nanos, the original txn's start, kept across retries
	index     int
}

// readyHeap is a min-heap on readyTime: a bounded priority queue that
// finds either an expired entry or the minimum ready time to sleep until
// without a linear scan over every buffered retry on each poll.
type readyHeap []*abortEntry

func (h readyHeap) Len() int            { return len(h) }
func (h readyHeap) Less(i, j int) bool  { return h[i].readyTime < h[j].readyTime }
func (h readyHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i]; h[i].index, h[j].index = i, j }
func (h *readyHeap) Push(x interface{}) {
	e := x.(*abortEntry)
	e.index = len(*h)
	*h = append(*h, e)
}
func (h *readyHeap) Pop() interface{} {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return e
}

// AbortBuffer is a worker-local, bounded min-heap of backed-off queries served
// ahead of the shared query queue.
type AbortBuffer struct {
	cap int
	h   readyHeap
}

func NewAbortBuffer(capacity int) *AbortBuffer {
	b := &AbortBuffer{cap: capacity}
	heap.Init(&b.h)
	return b
}

func (b *AbortBuffer) Full() bool { return len(b.h) >= b.cap }

// Add queues query for retry at readyTime. Panics if the buffer is full;
// callers must check Full() first.
func (b *AbortBuffer) Add(query Query, readyTime, startTime int64) {
	if b.Full() {
		panic("abort buffer overflow")
	}
	heap.Push(&b.h, &abortEntry{query: query, readyTime: readyTime, startTime: startTime})
}

// Ready pops and returns the earliest-ready entry if its readyTime has
// passed now. ok is false if the buffer is empty or nothing is ready yet,
// in which case minReady reports the earliest pending readyTime so the
// caller can sleep until it.
func (b *AbortBuffer) Ready(now int64) (query Query, startTime int64, minReady int64, ok bool) {
	if len(b.h) == 0 {
		return Query{}, 0, 0, false
	}
	head := b.h[0]
	if head.readyTime > now {
		return Query{}, 0, head.readyTime, false
	}
	e := heap.Pop(&b.h).(*abortEntry)
	return e.query, e.startTime, 0, true
}
