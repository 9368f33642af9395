package storage

import (
	"runtime"
	"sync/atomic"
	"time"

	"bamboo/clock"
	"bamboo/configs"
)

// Transaction states.
const (
	TxnRunning   int32 = 0
	TxnCommitted int32 = 1
	TxnAborted   int32 = 2
)

const barrierCommitted int64 = -1

// Transaction is the per-transaction state the row lock managers read and
// mutate: its lazily assigned timestamp, its abort flag (set by a wounder),
// and its commit-barrier counter (incremented by CLV's cohead bookkeeping
// and by every BAMBOO access that RAW-chains onto this transaction's
// uncommitted write, decremented again when that dependent releases).
type Transaction struct {
	id        uint64
	timestamp uint64 // 0 means unassigned
	status    int32

	commitBarriers int64
	lockReady      bool

	allocator *clock.Allocator

	startTS      time.Time
	commitStart  time.Time
	retireThresh int

	accesses []*Access
	rowCnt   int
}

func NewTransaction(allocator *clock.Allocator) *Transaction {
	return &Transaction{
		id:        configs.GetTxnID(),
		status:    TxnRunning,
		allocator: allocator,
		startTS:   time.Now(),
		accesses:  make([]*Access, 0, configs.MaxAccessesPerTxn),
	}
}

func (t *Transaction) ID() uint64 { return t.id }

// Reset prepares a pooled Transaction object for a new run: a fresh id, a
// cleared timestamp, and all counters zeroed.
func (t *Transaction) Reset() {
	t.id = configs.GetTxnID()
	atomic.StoreUint64(&t.timestamp, 0)
	atomic.StoreInt32(&t.status, TxnRunning)
	atomic.StoreInt64(&t.commitBarriers, 0)
	t.lockReady = false
	t.accesses = t.accesses[:0]
	t.rowCnt = 0
	t.retireThresh = 0
	t.startTS = time.Now()
}

func (t *Transaction) GetTS() uint64 {
	return atomic.LoadUint64(&t.timestamp)
}

func (t *Transaction) SetTS(ts uint64) {
	atomic.StoreUint64(&t.timestamp, ts)
}

// AtomicSetTS assigns ts only if the transaction has no timestamp yet.
func (t *Transaction) AtomicSetTS(ts uint64) bool {
	return clock.SetIfZero(&t.timestamp, ts)
}

// SetNextTS reserves a batch of n fresh timestamps and tries to install the
// first of the batch as this transaction's timestamp. Returns 0 if another
// goroutine already assigned one first; callers must re-read GetTS() in
// that case.
func (t *Transaction) SetNextTS(n uint64) uint64 {
	ts := t.allocator.ReserveN(n)
	if t.AtomicSetTS(ts) {
		return ts
	}
	return 0
}

// AssignTSFrom lazily stamps t with a timestamp drawn from runner's
// thread-local allocator if t does not already have one, returning
// whichever timestamp ends up installed. runner is typically the
// transaction currently executing LockGet; it may be assigning a
// timestamp to itself or to an owner/retired transaction it is comparing
// itself against.
func (t *Transaction) AssignTSFrom(runner *Transaction) uint64 {
	if ts := t.GetTS(); ts != 0 {
		return ts
	}
	ts := runner.allocator.ReserveN(1)
	if t.AtomicSetTS(ts) {
		return ts
	}
	return t.GetTS()
}

func (t *Transaction) Status() int32 {
	return atomic.LoadInt32(&t.status)
}

func (t *Transaction) IsAborted() bool {
	return atomic.LoadInt32(&t.status) == TxnAborted
}

// Wound attempts to move the transaction RUNNING -> ABORTED on behalf of a
// conflicting predecessor. If the transaction already committed the
// wounder has lost the race against commit and must abort itself instead,
// signalled by returning ERROR.
func (t *Transaction) Wound() RC {
	if atomic.CompareAndSwapInt32(&t.status, TxnRunning, TxnAborted) {
		return RCOK
	}
	if atomic.LoadInt32(&t.status) == TxnCommitted {
		return ERROR
	}
	return RCOK
}

func (t *Transaction) IncrementCommitBarriers() {
	atomic.AddInt64(&t.commitBarriers, 1)
}

func (t *Transaction) DecrementCommitBarriers() {
	atomic.AddInt64(&t.commitBarriers, -1)
}

// StartAccess allocates the next Access slot for a row this transaction is
// about to touch.
func (t *Transaction) StartAccess() *Access {
	a := &Access{}
	t.accesses = append(t.accesses, a)
	t.rowCnt++
	return a
}

// Finish runs the commit-barrier spin and then releases every access in
// reverse acquisition order. The late-retire heuristic (configs.LastRetire)
// is honored by retiring outstanding write accesses partway through the
// spin once it has run long relative to the transaction's own lifetime.
func (t *Transaction) Finish(rc RC) RC {
	if rc == Abort {
		atomic.StoreInt32(&t.status, TxnAborted)
	} else {
		t.commitStart = time.Now()
		t.retireEagerAccesses()
		for {
			if atomic.CompareAndSwapInt64(&t.commitBarriers, 0, barrierCommitted) {
				break
			}
			if t.IsAborted() {
				rc = Abort
				break
			}
			t.maybeLateRetire()
			runtime.Gosched()
		}
		if rc != Abort {
			atomic.StoreInt32(&t.status, TxnCommitted)
		}
	}
	t.cleanup(rc)
	return rc
}

// retireEagerAccesses retires every owned write access up front for
// algorithms that retire as part of their baseline commit path (CLV),
// before the commit-barrier spin even starts.
func (t *Transaction) retireEagerAccesses() {
	eager := false
	for rid := 0; rid < t.rowCnt; rid++ {
		a := t.accesses[rid]
		if (a.Type != TxnWrite && a.Type != TxnCommutative) || a.OrigRow == nil {
			continue
		}
		if !a.OrigRow.Manager.RetiresEagerly() {
			continue
		}
		a.OrigRow.RetireRow(a)
		eager = true
	}
	if eager {
		t.retireThresh = t.rowCnt - 1
	} else {
		t.retireThresh = -1
	}
}

func (t *Transaction) maybeLateRetire() {
	if configs.LastRetire <= 0 || t.retireThresh >= t.rowCnt-1 {
		return
	}
	spinElapsed := time.Since(t.commitStart)
	lifetime := time.Since(t.startTS)
	if float64(spinElapsed) < float64(lifetime)*configs.LastRetire {
		return
	}
	for rid := t.rowCnt - 1; rid > t.retireThresh; rid-- {
		a := t.accesses[rid]
		if (a.Type != TxnWrite && a.Type != TxnCommutative) || a.OrigRow == nil {
			continue
		}
		a.OrigRow.RetireRow(a)
	}
	t.retireThresh = t.rowCnt - 1
}

// cleanup releases every access in reverse acquisition order, rolling back
// writes that lost the transaction.
func (t *Transaction) cleanup(rc RC) {
	for rid := t.rowCnt - 1; rid >= 0; rid-- {
		a := t.accesses[rid]
		if a.OrigRow == nil {
			continue
		}
		typ := a.Type
		if rc == Abort && typ == TxnWrite {
			typ = TxnRollBack
		}
		a.OrigRow.ReturnRow(typ, t, a, rc)
		a.OrigRow = nil
	}
}

