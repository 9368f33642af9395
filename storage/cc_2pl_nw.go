package storage

import (
	"fmt"

	"github.com/viney-shih/go-lock"

	"bamboo/configs"
)

// twoPLEntry is the no-wait 2PL manager's own owner-list node; it predates
// LockEntry and does not need the retired/cohead bookkeeping BAMBOO and CLV
// carry, so it stays a private, narrower type.
type twoPLEntry struct {
	lockType uint8
	txn      *Transaction
	next     *twoPLEntry
	prev     *twoPLEntry
}

// TwoPhaseLockNoWaitManager is the baseline algorithm kept alongside
// BAMBOO/CLV: on any conflict it aborts immediately rather than queueing,
// giving a reference point with zero cascading-abort surface.
type TwoPhaseLockNoWaitManager struct {
	Latch     lock.Mutex
	LockType  uint8
	Owners    *twoPLEntry
	OwnerCnt  uint32
	from      *RowRecord
}

// lockCompatible only special-cases Shared/Shared; LockCM falls through to
// the conservative default like LockExclusive does, so no-wait 2PL never
// relaxes commutative conflicts the way BAMBOO/CLV's conflictLock does.
func lockCompatible(a, b uint8) bool {
	if a == configs.LockNone || b == configs.LockNone {
		return true
	}
	if a == configs.LockShared && b == configs.LockShared {
		return true
	}
	return false
}

func (c *TwoPhaseLockNoWaitManager) ToString() string {
	c.Latch.Lock()
	defer c.Latch.Unlock()
	if c.Owners == nil {
		return fmt.Sprintf("LockType:%v; Owner:none; OwnerCnt:%v", c.LockType, c.OwnerCnt)
	}
	return fmt.Sprintf("LockType:%v; Owner:%v; OwnerCnt:%v", c.LockType, c.Owners.txn.ID(), c.OwnerCnt)
}

func (c *TwoPhaseLockNoWaitManager) LockGet(lockType uint8, txn *Transaction, access *Access) RC {
	c.Latch.Lock()
	defer c.Latch.Unlock()

	if lockType == configs.LockExclusive && c.Owners != nil && c.Owners.txn.ID() == txn.ID() {
		if c.LockType == configs.LockExclusive {
			return RCOK
		}
		if c.LockType == configs.LockShared && c.OwnerCnt == 1 {
			c.LockType = configs.LockExclusive
			c.Owners.lockType = configs.LockExclusive
			return RCOK
		}
	}
	if !lockCompatible(lockType, c.LockType) {
		return Abort
	}
	entry := &twoPLEntry{lockType: lockType, txn: txn, next: c.Owners}
	if c.Owners != nil {
		c.Owners.prev = entry
	}
	c.Owners = entry
	c.OwnerCnt++
	c.LockType = lockType
	return RCOK
}

func (c *TwoPhaseLockNoWaitManager) ReturnRow(txn *Transaction, access *Access, rc RC) {
	c.Latch.Lock()
	defer c.Latch.Unlock()
	var prev, cur *twoPLEntry
	for cur = c.Owners; cur != nil && cur.txn.ID() != txn.ID(); cur = cur.next {
		prev = cur
	}
	if cur == nil {
		return
	}
	if prev != nil {
		prev.next = cur.next
	} else {
		c.Owners = cur.next
	}
	if cur.next != nil {
		cur.next.prev = prev
	}
	c.OwnerCnt--
	if c.OwnerCnt == 0 {
		c.LockType = configs.LockNone
	}
}

func (c *TwoPhaseLockNoWaitManager) RetireRow(access *Access) RC {
	return RCOK
}

func (c *TwoPhaseLockNoWaitManager) RetiresEagerly() bool { return false }

func NewTwoPLNWManager(row *RowRecord) LockManager {
	return &TwoPhaseLockNoWaitManager{
		from:     row,
		LockType: configs.LockNone,
		Latch:    lock.NewCASMutex(),
	}
}
