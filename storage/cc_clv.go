package storage

import (
	"fmt"

	"github.com/viney-shih/go-lock"

	"bamboo/configs"
)

// clvManager is the commit-latency variant: every owned write access is
// retired as soon as the transaction manager starts finishing, instead of
// staying an owner until the very end. Retired entries track a delta/cohead
// pair so each transaction can tell exactly how many still-uncommitted
// conflicting predecessors (its commit barriers) it must wait behind.
type clvManager struct {
	latch lock.Mutex
	row   *RowRecord

	owners  entryList
	waiters entryList
	retired entryList
}

func newCLVManager(row *RowRecord) LockManager {
	return &clvManager{row: row, latch: lock.NewCASMutex()}
}

func (c *clvManager) ToString() string {
	c.latch.Lock()
	defer c.latch.Unlock()
	return fmt.Sprintf("owners:%d waiters:%d retired:%d", c.owners.cnt, c.waiters.cnt, c.retired.cnt)
}

func (c *clvManager) RetiresEagerly() bool { return true }

func (c *clvManager) LockGet(lockType uint8, txn *Transaction, access *Access) RC {
	c.latch.Lock()
	defer c.latch.Unlock()

	var localTS uint64
	unassigned := false
	if txn.GetTS() == 0 && (c.waiters.cnt != 0 || c.retired.cnt != 0 ||
		(c.owners.cnt != 0 && conflictLock(c.owners.head.Type, lockType))) {
		batch := uint64(c.retired.cnt + c.owners.cnt + 1)
		if ts := txn.SetNextTS(batch); ts != 0 {
			localTS = ts
			unassigned = true
		}
	}

	if rc := c.woundConflict(lockType, txn, &c.retired, &localTS, unassigned); rc == Abort {
		c.bringNext()
		return Abort
	}
	if rc := c.woundConflict(lockType, txn, &c.owners, &localTS, unassigned); rc == Abort {
		c.bringNext()
		return Abort
	}

	e := newLockEntry(lockType, txn, access)
	c.waiters.insertSortedByTS(e)
	c.bringNext()
	if c.inOwners(e) {
		return RCOK
	}
	return WAIT
}

// woundConflict walks list, skipping entries already aborted. From the
// first entry that conflicts with lockType and is younger than txn (or any
// conflicting entry while txn has no timestamp) onward, it wounds every
// entry that already carries a timestamp and, when unassigned is set,
// stamps still-unassigned entries from the batch reserved at localTS
// instead of wounding them. It returns WAIT if such a conflict was found,
// RCOK if not, and Abort if a wound discovered its victim already
// committed.
func (c *clvManager) woundConflict(lockType uint8, txn *Transaction, list *entryList, localTS *uint64, unassigned bool) RC {
	status := RCOK
	selfTS := txn.GetTS()
	for cur := list.head; cur != nil; cur = cur.next {
		if cur.Txn.IsAborted() {
			continue
		}
		if status == RCOK && conflictLock(cur.Type, lockType) && (selfTS == 0 || cur.Txn.GetTS() > selfTS) {
			status = WAIT
		}
		if status == WAIT {
			if cur.Txn.GetTS() != 0 {
				if wrc := cur.Txn.Wound(); wrc == ERROR {
					return Abort
				}
			}
			if unassigned {
				if cur.Txn.AtomicSetTS(*localTS) {
					*localTS++
				}
			}
		}
	}
	return status
}

func (c *clvManager) inOwners(e *LockEntry) bool {
	for cur := c.owners.head; cur != nil; cur = cur.next {
		if cur == e {
			return true
		}
	}
	return false
}

// bringNext promotes compatible waiters into owners, advancing past (and
// discarding) any waiter already wounded. The cursor is captured before
// each entry is possibly removed from the list, so every entry is visited
// exactly once regardless of whether it gets promoted or dropped.
func (c *clvManager) bringNext() {
	c.cleanAbortedRetired()
	c.cleanAbortedOwner()
	for cur := c.waiters.head; cur != nil; {
		next := cur.next
		if cur.Txn.IsAborted() {
			c.waiters.remove(cur)
			cur = next
			continue
		}
		if c.owners.cnt > 0 && conflictLock(c.owners.head.Type, cur.Type) {
			break
		}
		c.waiters.remove(cur)
		c.owners.append(cur)
		cur.Txn.lockReady = true
		cur = next
	}
}

func (c *clvManager) cleanAbortedOwner() {
	for cur := c.owners.head; cur != nil; {
		next := cur.next
		if cur.Txn.IsAborted() {
			c.owners.remove(cur)
		}
		cur = next
	}
}

func (c *clvManager) cleanAbortedRetired() {
	for {
		var victim *LockEntry
		for cur := c.retired.head; cur != nil; cur = cur.next {
			if cur.Txn.IsAborted() {
				victim = cur
				break
			}
		}
		if victim == nil {
			return
		}
		c.removeDescendants(victim)
	}
}

// removeDescendants removes e from the retired list and, if some later
// conflicting entry exists, truncates the list from there onward, aborting
// every entry it drops. If nothing downstream conflicts with e's lock type,
// the removal cannot invalidate any retired entry, but it may invalidate
// the current owners if they conflicted only through e.
func (c *clvManager) removeDescendants(e *LockEntry) {
	next := e.next
	removedType := e.Type
	c.retired.remove(e)

	var conflictor *LockEntry
	for cur := next; cur != nil; cur = cur.next {
		if conflictLock(cur.Type, removedType) {
			conflictor = cur
			break
		}
	}
	if conflictor == nil {
		if c.owners.cnt == 0 || conflictLock(c.owners.head.Type, removedType) {
			for cur := c.owners.head; cur != nil; {
				nxt := cur.next
				cur.Txn.Wound()
				c.owners.remove(cur)
				cur = nxt
			}
		}
		return
	}
	removed := c.retired.removeFrom(conflictor)
	for _, v := range removed {
		v.Txn.Wound()
	}
}

// releaseRetired is the non-abort release path: it unlinks e and propagates
// its delta/cohead state to its neighbours, so that a predecessor's normal
// commit clears the commit barrier of every retired entry that becomes a
// cohead as a result.
func (c *clvManager) releaseRetired(e *LockEntry) {
	prev := e.prev
	next := e.next
	c.retired.remove(e)

	if prev != nil && next != nil {
		if e.Delta && !next.Delta {
			next.Delta = true
		}
		return
	}
	if prev == nil && next != nil && next.Delta {
		next.Delta = false
		for cur := next; cur != nil && !cur.Delta; cur = cur.next {
			if !cur.IsCohead {
				cur.IsCohead = true
				cur.Txn.DecrementCommitBarriers()
			}
		}
	}
	// retired_head, if one remains, is always its own cohead: it has no
	// predecessor left to conflict with.
	if c.retired.head != nil {
		configs.Assert(c.retired.head.IsCohead, "retired head must be a cohead")
	}
}

// RetireRow moves an owned access into the retired list, computing its
// delta/cohead classification against the current retired tail and
// charging its transaction a commit barrier when it is not a cohead.
func (c *clvManager) RetireRow(access *Access) RC {
	c.latch.Lock()
	defer c.latch.Unlock()
	e := access.Entry
	if e == nil || e.inList != &c.owners {
		return RCOK
	}
	c.owners.remove(e)
	c.cleanAbortedRetired()

	if c.retired.tail != nil && conflictLock(c.retired.tail.Type, e.Type) {
		e.Delta = true
		e.Txn.IncrementCommitBarriers()
	} else if c.retired.tail == nil {
		e.IsCohead = true
	} else {
		e.IsCohead = c.retired.tail.IsCohead
		if !e.IsCohead {
			e.Txn.IncrementCommitBarriers()
		}
	}
	c.retired.append(e)
	c.bringNext()
	return RCOK
}

func (c *clvManager) ReturnRow(txn *Transaction, access *Access, rc RC) {
	c.latch.Lock()
	defer c.latch.Unlock()
	e := access.Entry
	if e == nil {
		return
	}
	switch e.inList {
	case &c.retired:
		if rc == Abort {
			c.removeDescendants(e)
		} else {
			c.releaseRetired(e)
		}
	case &c.owners:
		c.owners.remove(e)
	case &c.waiters:
		c.waiters.remove(e)
	}
	c.bringNext()
}
