package storage

import (
	"testing"

	"github.com/magiconair/properties/assert"

	"bamboo/clock"
)

func TestTransactionTimestampLazyAssignment(t *testing.T) {
	txn := newTestTxn()
	assert.Equal(t, txn.GetTS(), uint64(0))
	ts := txn.AssignTSFrom(txn)
	assert.Equal(t, ts != 0, true)
	assert.Equal(t, txn.GetTS(), ts)
	// A second assignment attempt is a no-op: the first CAS already won.
	again := txn.AssignTSFrom(txn)
	assert.Equal(t, again, ts)
}

func TestAtomicSetTSOnlyWinsOnce(t *testing.T) {
	txn := newTestTxn()
	ok1 := txn.AtomicSetTS(5)
	ok2 := txn.AtomicSetTS(9)
	assert.Equal(t, ok1, true)
	assert.Equal(t, ok2, false)
	assert.Equal(t, txn.GetTS(), uint64(5))
}

func TestWoundRunningTransactionSucceeds(t *testing.T) {
	txn := newTestTxn()
	rc := txn.Wound()
	assert.Equal(t, rc, RCOK)
	assert.Equal(t, txn.IsAborted(), true)
}

func TestWoundCommittedTransactionReturnsError(t *testing.T) {
	txn := newTestTxn()
	txn.status = TxnCommitted
	rc := txn.Wound()
	assert.Equal(t, rc, ERROR)
}

func TestCommitBarrierSpinClearsOnZero(t *testing.T) {
	src := clock.NewSource()
	txn := NewTransaction(clock.NewAllocator(src))
	rc := txn.Finish(RCOK)
	assert.Equal(t, rc, RCOK)
	assert.Equal(t, txn.Status(), TxnCommitted)
}

func TestFinishAbortNeverEntersCommitSpin(t *testing.T) {
	txn := newTestTxn()
	rc := txn.Finish(Abort)
	assert.Equal(t, rc, Abort)
	assert.Equal(t, txn.Status(), TxnAborted)
}

func TestFinishObservesAbortDuringSpin(t *testing.T) {
	txn := newTestTxn()
	txn.IncrementCommitBarriers()
	done := make(chan RC, 1)
	go func() {
		done <- txn.Finish(RCOK)
	}()
	txn.Wound()
	rc := <-done
	assert.Equal(t, rc, Abort)
}
