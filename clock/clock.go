// Package clock implements the lazy, batched timestamp service the row lock
// managers use to order transactions. A timestamp of 0 means "unassigned";
// the first lock acquisition that actually needs to compare ages assigns
// one via a single compare-and-swap, so read-only and uncontended
// transactions never pay for a timestamp at all.
package clock

import (
	"sync/atomic"

	"bamboo/configs"
)

// Source is the process-wide monotonic counter every Allocator draws from.
// Workers never call it directly per-transaction; they reserve batches
// through an Allocator instead, amortizing the atomic add over many
// transactions.
type Source struct {
	next uint64
}

func NewSource() *Source {
	return &Source{next: 1}
}

// ReserveN atomically reserves n consecutive timestamps and returns the
// first one of the batch.
func (s *Source) ReserveN(n uint64) uint64 {
	if n == 0 {
		n = 1
	}
	end := atomic.AddUint64(&s.next, n)
	return end - n
}

// Allocator is a per-worker batched front-end onto a shared Source: most
// calls are served out of a locally held batch and only one in
// configs.TsBatchNum calls touches the shared counter.
type Allocator struct {
	source   *Source
	curr     uint64
	batchEnd uint64
}

func NewAllocator(source *Source) *Allocator {
	return &Allocator{source: source}
}

// Next returns the next timestamp for this worker, refilling its local
// batch from the shared Source when exhausted.
func (a *Allocator) Next() uint64 {
	if a.curr >= a.batchEnd {
		a.curr = a.source.ReserveN(configs.TsBatchNum)
		a.batchEnd = a.curr + configs.TsBatchNum
	}
	ts := a.curr
	a.curr++
	return ts
}

// ReserveN reserves a batch of n timestamps directly from the shared
// Source, bypassing the worker's local batch. Row lock managers use this
// when a single lock acquisition needs to stamp several still-unassigned
// predecessors at once (CLV's owners+retired walk).
func (a *Allocator) ReserveN(n uint64) uint64 {
	return a.source.ReserveN(n)
}

// SetIfZero performs the "assign only if still unassigned" compare-and-swap
// used throughout the lock managers to lazily stamp a transaction the first
// time its relative age actually matters. It returns true if this call won
// the race and installed ts.
func SetIfZero(target *uint64, ts uint64) bool {
	return atomic.CompareAndSwapUint64(target, 0, ts)
}
