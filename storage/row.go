package storage

import (
	"fmt"
	"sync"
	"sync/atomic"

	"bamboo/configs"
)

// Access type codes, naming the slot a row plays in a transaction's local
// buffer.
const (
	TxnScan        uint8 = 0
	TxnRead        uint8 = 1
	TxnWrite       uint8 = 2
	TxnRollBack    uint8 = 3
	TxnCommutative uint8 = 4
)

// Commutative operation kinds applied at cleanup time instead of being
// folded into the working copy immediately.
const (
	ComNone uint8 = iota
	ComInc
	ComDec
)

type Key uint64

type Table struct {
	primaryIndex          *BTree
	tableName             string
	attributesNum         int
	autoIncreasingPrimary int32
}

func NewTable(name string, attributesNum int) *Table {
	return &Table{tableName: name, attributesNum: attributesNum, primaryIndex: NewBTree(name)}
}

func (tab *Table) GenPrimaryKey() Key {
	return Key(atomic.AddInt32(&tab.autoIncreasingPrimary, 1))
}

func (tab *Table) Name() string {
	return tab.tableName
}

type RowData struct {
	Length    uint
	Value     []interface{}
	fromTable *Table
}

func NewRowData(tb *Table) *RowData {
	res := &RowData{fromTable: tb}
	if tb != nil {
		res.Length = uint(tb.attributesNum)
	} else {
		res.Length = 1
	}
	res.Value = make([]interface{}, res.Length)
	return res
}

func (c *RowData) Clone() *RowData {
	cp := &RowData{Length: c.Length, fromTable: c.fromTable}
	cp.Value = make([]interface{}, len(c.Value))
	copy(cp.Value, c.Value)
	return cp
}

func (c *RowData) SetAttribute(idx uint, value interface{}) {
	configs.Assert(idx < c.Length, "attribute access out of range")
	c.Value[idx] = value
}

func (c *RowData) GetAttribute(idx uint) interface{} {
	configs.Assert(idx < c.Length, "attribute access out of range")
	return c.Value[idx]
}

func (c *RowData) String() string {
	return fmt.Sprintf("%v", c.Value)
}

// RowRecord is the shared, latched row every transaction's Access points
// into. Data is the row's current committed-or-being-written contents;
// individual in-flight views live in each transaction's Access.
type RowRecord struct {
	RowID      Key
	FromTable  *Table
	PrimaryKey Key
	Data       *RowData
	Manager    LockManager

	// dataMu guards Data against concurrent commutative folds: unlike a
	// plain write, two commutative accesses can be retired against the row
	// at once (they do not conflict), so their deferred deltas can land at
	// the same time and need their own serialization independent of the
	// lock manager's latch.
	dataMu sync.Mutex
}

func NewRowRecord(table *Table, primaryKey Key) *RowRecord {
	res := &RowRecord{
		RowID:      primaryKey,
		FromTable:  table,
		PrimaryKey: primaryKey,
		Data:       NewRowData(table),
	}
	res.Manager = NewLockManager(res)
	return res
}

// Access is a transaction's private view of a row it has touched: the lock
// manager bookkeeping needed to release the row, the pre-image needed to
// roll a write back, and (for commutative writes) the deferred delta to
// apply at cleanup time instead of at acquisition time.
type Access struct {
	Txn      *Transaction
	Type     uint8
	OrigRow  *RowRecord
	Data     *RowData
	OrigData *RowData
	Entry    *LockEntry

	ComOp  uint8
	ComCol uint
	ComVal float64
}

// GetRow is the row contract's acquisition entry point: it asks the row's
// lock manager for lockType, and on success or short-circuit (FINISH)
// populates access with the appropriate working copy.
func (r *RowRecord) GetRow(accessType uint8, txn *Transaction, access *Access) RC {
	lockType := uint8(configs.LockShared)
	switch accessType {
	case TxnWrite:
		lockType = configs.LockExclusive
	case TxnCommutative:
		lockType = configs.LockCM
	}
	access.Txn = txn
	access.Type = accessType
	access.OrigRow = r

	rc := r.Manager.LockGet(lockType, txn, access)
	if rc == Abort {
		access.OrigRow = nil
		return Abort
	}
	if accessType == TxnWrite {
		access.OrigData = r.Data.Clone()
		access.Data = r.Data.Clone()
	} else if rc == FINISH {
		// RAW short circuit: access.Data was already filled in by the
		// lock manager with the predecessor's pre-image. A commutative
		// access never reads it; its delta is folded against whatever
		// Data holds at cleanup time instead.
	} else if rc == RCOK && accessType != TxnCommutative {
		access.Data = r.Data.Clone()
	}
	return rc
}

// ReturnRow is the row contract's release entry point, called during
// cleanup in reverse acquisition order. On a committing write it folds the
// access's working copy back into the shared row before releasing the
// lock; on a committing commutative access it folds the deferred delta
// into the row's live value instead, under dataMu rather than against a
// pre-image snapshot, since the whole point of CM is that it was never
// ordered against other concurrent CM/read accesses to begin with.
func (r *RowRecord) ReturnRow(accessType uint8, txn *Transaction, access *Access, rc RC) {
	if access == nil || access.OrigRow == nil {
		return
	}
	switch {
	case accessType == TxnWrite && rc != Abort:
		r.Data = access.Data
	case accessType == TxnCommutative && rc != Abort:
		r.dataMu.Lock()
		applyComOp(r.Data, access)
		r.dataMu.Unlock()
	}
	r.Manager.ReturnRow(txn, access, rc)
}

// RetireRow lets the transaction manager proactively retire a still-owned
// write access before its transaction finishes committing, per the
// late-retire heuristic.
func (r *RowRecord) RetireRow(access *Access) RC {
	return r.Manager.RetireRow(access)
}
