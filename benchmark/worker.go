package benchmark

import (
	"math/rand"
	"sync/atomic"
	"time"

	"bamboo/configs"
	"bamboo/storage"
)

// Worker owns one client routine: it pulls queries (fresh or backed-off),
// runs them against a shared Store, and retries aborted queries through its
// own AbortBuffer. Without an AbortBuffer it sleeps out the abort penalty
// and then moves on to a fresh query; the aborted one is not rerun.
type Worker struct {
	id       uint64
	store    *storage.Store
	workload Workload
	stats    *Stats
	abortBuf *AbortBuffer
	rnd      *rand.Rand

	txnCount  uint64
	startedAt time.Time
}

func NewWorker(id uint64, store *storage.Store, workload Workload, stats *Stats) *Worker {
	w := &Worker{
		id:       id,
		store:    store,
		workload: workload,
		stats:    stats,
		rnd:      rand.New(rand.NewSource(int64(id)*11 + 31)),
	}
	if configs.AbortBufferEnabled {
		w.abortBuf = NewAbortBuffer(configs.AbortBufferSize)
	}
	return w
}

// nextQuery returns the next query to run and the time its transaction
// conceptually began (the original start time for a rerun out of the
// abort buffer, or now for a fresh query). A matured abort-buffer entry is
// served first; otherwise a fresh query is pulled while the buffer has a
// free slot, and only a full buffer makes it sleep until its earliest
// entry matures.
func (w *Worker) nextQuery() (Query, time.Time) {
	if w.abortBuf == nil {
		return w.workload.NextQuery(), time.Now()
	}
	for {
		now := time.Now()
		query, startNanos, minReady, ok := w.abortBuf.Ready(now.UnixNano())
		if ok {
			return query, time.Unix(0, startNanos)
		}
		if w.abortBuf.Full() {
			sleep := time.Duration(minReady - now.UnixNano())
			if sleep > 0 {
				time.Sleep(sleep)
			}
			continue
		}
		return w.workload.NextQuery(), now
	}
}

func (w *Worker) runQuery(txnID uint64, query Query) storage.RC {
	if _, err := w.store.Begin(txnID); err != nil {
		panic(err)
	}
	configs.TxnPrint(txnID, "worker %d starting query with %d ops", w.id, len(query.Ops))
	for _, op := range query.Ops {
		var rc storage.RC
		var err error
		switch {
		case op.IsRead:
			_, rc, err = w.store.Read(op.Table, op.Key, txnID)
		case op.Commutative:
			rc, err = w.store.Decrement(op.Table, op.Key, txnID, op.ComCol, op.ComVal)
		default:
			rc, err = w.store.Write(op.Table, op.Key, txnID, op.Mutate)
		}
		configs.CheckError(err)
		if rc == storage.Abort {
			configs.CheckError(w.store.RollBack(txnID))
			return storage.Abort
		}
	}
	rc, err := w.store.Commit(txnID)
	configs.CheckError(err)
	return rc
}

func (w *Worker) abortPenalty() time.Duration {
	return time.Duration(w.rnd.Float64() * float64(configs.InitPenalty4Abort))
}

// Run drives the worker's client routine until done is set (by this
// worker reaching its termination condition, or another worker reaching
// theirs first).
func (w *Worker) Run(done *int32) {
	w.startedAt = time.Now()
	for atomic.LoadInt32(done) == 0 {
		query, startTime := w.nextQuery()
		txnID := configs.GetTxnID()
		rc := w.runQuery(txnID, query)

		switch rc {
		case storage.Abort:
			penalty := w.abortPenalty()
			w.stats.Abort()
			if w.abortBuf != nil && !w.abortBuf.Full() {
				w.abortBuf.Add(query, time.Now().Add(penalty).UnixNano(), startTime.UnixNano())
			} else {
				time.Sleep(penalty)
			}
			continue
		case storage.ERROR:
			w.stats.UserAbort()
			continue
		}

		w.stats.Commit(time.Since(startTime))
		w.txnCount++
		if w.shouldStop() {
			atomic.StoreInt32(done, 1)
			return
		}
	}
}

func (w *Worker) shouldStop() bool {
	if configs.TerminateByCount {
		return w.txnCount >= uint64(configs.MaxTxnPerPart)
	}
	return time.Since(w.startedAt) >= configs.MaxRuntime
}
