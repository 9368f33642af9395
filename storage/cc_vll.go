package storage

import (
	"sync"

	"bamboo/configs"
)

// VLLManager is a minimal non-queueing lock manager: any conflict aborts
// immediately and no waiters are tracked at all, the lightest-weight
// baseline in the pack alongside the no-wait 2PL manager.
type VLLManager struct {
	mu           sync.Mutex
	shareCount   uint
	exclusiveCnt uint
	from         *RowRecord
}

func (c *VLLManager) ToString() string {
	return ""
}

// LockGet treats anything other than LockShared as a full exclusive
// acquire, so LockCM gets none of BAMBOO/CLV's conflict relaxation here;
// VLL stays the simplest possible baseline rather than special-casing it.
func (c *VLLManager) LockGet(lockType uint8, txn *Transaction, access *Access) RC {
	c.mu.Lock()
	defer c.mu.Unlock()
	if lockType == configs.LockShared {
		if c.exclusiveCnt > 0 {
			return Abort
		}
		c.shareCount++
		return RCOK
	}
	if c.exclusiveCnt > 0 || c.shareCount > 0 {
		return Abort
	}
	c.exclusiveCnt++
	return RCOK
}

func (c *VLLManager) ReturnRow(txn *Transaction, access *Access, rc RC) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if access.Type == TxnWrite || access.Type == TxnCommutative {
		configs.Assert(c.exclusiveCnt > 0, "lock error")
		c.exclusiveCnt--
	} else {
		configs.Assert(c.shareCount > 0, "lock error")
		c.shareCount--
	}
}

func (c *VLLManager) RetireRow(access *Access) RC {
	return RCOK
}

func (c *VLLManager) RetiresEagerly() bool { return false }

func NewVLLManager(row *RowRecord) LockManager {
	return &VLLManager{from: row}
}
