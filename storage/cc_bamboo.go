package storage

import (
	"fmt"

	"github.com/viney-shih/go-lock"

	"bamboo/configs"
)

// bambooManager implements retire-before-commit with dependency-ordered
// cascading aborts. Shared readers that arrive behind an uncommitted
// writer can short-circuit straight into the retired list by copying the
// writer's in-flight pre-image (the BB_OPT_RAW fast path) instead of
// waiting for it to commit; exclusive acquirers wound every younger
// conflicting predecessor instead of queueing behind them.
type bambooManager struct {
	latch lock.Mutex
	row   *RowRecord

	owners  entryList
	waiters entryList
	retired entryList
}

func newBambooManager(row *RowRecord) LockManager {
	return &bambooManager{row: row, latch: lock.NewCASMutex()}
}

func (c *bambooManager) ToString() string {
	c.latch.Lock()
	defer c.latch.Unlock()
	return fmt.Sprintf("owners:%d waiters:%d retired:%d", c.owners.cnt, c.waiters.cnt, c.retired.cnt)
}

func (c *bambooManager) LockGet(lockType uint8, txn *Transaction, access *Access) RC {
	c.latch.Lock()
	defer c.latch.Unlock()
	if lockType == configs.LockShared || lockType == configs.LockCM {
		return c.lockGetShared(txn, access, lockType)
	}
	return c.lockGetExclusive(txn, access)
}

// retiredHasWrite reports whether the tail of the retired list is, or
// descends from, a not-yet-committed write: either the tail itself is an
// exclusive entry (only possible when the late-retire heuristic moved an
// owner into retired early), or it is a shared entry that RAW-copied its
// pre-image from a predecessor that has not committed yet.
func (c *bambooManager) retiredHasWrite() bool {
	t := c.retired.tail
	if t == nil {
		return false
	}
	return t.Type == configs.LockExclusive || t.RawFrom != nil
}

// lockGetShared is the non-wounding acquisition path for both plain reads
// and commutative accesses: lockType distinguishes the two only for the
// entry's own bookkeeping (conflictLock, ToString) and for whether a
// pre-image is worth copying at all. A commutative access never reads a
// predecessor's value, so it skips every access.Data clone below even
// where a read would take one, but it still needs the same RawFrom/commit
// barrier dependency a read would get: it must not fold its delta before a
// conflicting uncommitted write in front of it in the retired list commits.
func (c *bambooManager) lockGetShared(txn *Transaction, access *Access, lockType uint8) RC {
	isRead := lockType == configs.LockShared
	if !c.retiredHasWrite() {
		if c.owners.cnt == 0 {
			e := newLockEntry(lockType, txn, access)
			c.retired.append(e)
			return RCOK
		}
		owner := c.owners.head
		ownerTxn := owner.Txn
		ownerTS := ownerTxn.AssignTSFrom(txn)
		selfTS := txn.AssignTSFrom(txn)
		if selfTS > ownerTS {
			e := newLockEntry(lockType, txn, access)
			c.waiters.append(e)
			return WAIT
		}
		e := newLockEntry(lockType, txn, access)
		if configs.BBOptRaw {
			if isRead {
				access.Data = owner.Access.Data.Clone()
			}
			e.RawFrom = owner
			owner.Txn.IncrementCommitBarriers()
			c.retired.append(e)
			return FINISH
		}
		c.waiters.append(e)
		return WAIT
	}

	if c.retired.cnt == 1 && c.retired.head.Type == configs.LockExclusive {
		c.retired.head.Txn.AssignTSFrom(txn)
	}
	selfTS := txn.AssignTSFrom(txn)

	hasOwner := c.owners.cnt > 0
	var ownerTS uint64
	if hasOwner {
		ownerTS = c.owners.head.Txn.GetTS()
	}

	if !hasOwner || ownerTS == 0 || ownerTS > selfTS {
		var target *LockEntry
		for cur := c.retired.head; cur != nil; cur = cur.next {
			if cur.Type == configs.LockExclusive && cur.Txn.GetTS() > selfTS {
				target = cur
				break
			}
		}
		e := newLockEntry(lockType, txn, access)
		switch {
		case target != nil:
			if configs.BBOptRaw {
				if isRead {
					access.Data = target.Access.Data.Clone()
				}
				e.RawFrom = target
				target.Txn.IncrementCommitBarriers()
			}
			c.retired.insertBefore(target, e)
		case hasOwner && configs.BBOptRaw:
			if isRead {
				access.Data = c.owners.head.Access.Data.Clone()
			}
			e.RawFrom = c.owners.head
			c.owners.head.Txn.IncrementCommitBarriers()
			c.retired.append(e)
		default:
			// No younger write ahead to insert before, and no live
			// owner either: the only way retiredHasWrite() could still
			// be true is an older uncommitted write already sitting in
			// retired (reachable once the late-retire heuristic moves an
			// owner into retired out from under this scan). Chain onto
			// it explicitly instead of silently appending with no
			// dependency at all.
			if configs.BBOptRaw {
				if src := c.pendingWrite(); src != nil {
					if isRead {
						access.Data = src.Access.Data.Clone()
					}
					e.RawFrom = src
					src.Txn.IncrementCommitBarriers()
				}
			}
			c.retired.append(e)
		}
		return FINISH
	}

	e := newLockEntry(lockType, txn, access)
	c.waiters.append(e)
	return WAIT
}

// pendingWrite returns the nearest not-yet-committed exclusive entry the
// retired list's tail depends on, walking the RawFrom chain when the tail
// itself is a dependent shared/commutative entry rather than the write
// directly. Returns nil only if retiredHasWrite() would also be false.
func (c *bambooManager) pendingWrite() *LockEntry {
	for e := c.retired.tail; e != nil; e = e.RawFrom {
		if e.Type == configs.LockExclusive {
			return e
		}
	}
	return nil
}

func (c *bambooManager) lockGetExclusive(txn *Transaction, access *Access) RC {
	if c.retired.cnt == 0 && c.owners.cnt == 0 {
		e := newLockEntry(configs.LockExclusive, txn, access)
		c.owners.append(e)
		return RCOK
	}
	if configs.BBOptMaxWaiter != 0 && c.waiters.cnt >= configs.BBOptMaxWaiter {
		return Abort
	}

	retiredHasWrite := c.retiredHasWrite()
	hasOwner := c.owners.cnt > 0
	switch {
	case hasOwner && !retiredHasWrite:
		c.owners.head.Txn.AssignTSFrom(txn)
		txn.AssignTSFrom(txn)
	case !hasOwner && retiredHasWrite && c.retired.cnt == 1 && c.retired.head.Type == configs.LockExclusive:
		c.retired.head.Txn.AssignTSFrom(txn)
		txn.AssignTSFrom(txn)
	case hasOwner && retiredHasWrite:
		txn.AssignTSFrom(txn)
	default:
		for cur := c.retired.head; cur != nil; cur = cur.next {
			cur.Txn.AssignTSFrom(txn)
		}
		txn.AssignTSFrom(txn)
	}

	selfTS := txn.GetTS()
	ownerUnsafe := false
	if hasOwner {
		ots := c.owners.head.Txn.GetTS()
		ownerUnsafe = ots == 0 || ots > selfTS
	}

	if !hasOwner || ownerUnsafe {
		for cur := c.retired.head; cur != nil; {
			next := cur.next
			ts := cur.Txn.GetTS()
			if ts == 0 || ts > selfTS {
				if rc := c.wound(cur); rc == Abort {
					return Abort
				}
			}
			cur = next
		}
		if hasOwner {
			if rc := c.wound(c.owners.head); rc == Abort {
				return Abort
			}
		}
		e := newLockEntry(configs.LockExclusive, txn, access)
		c.waiters.append(e)
		c.bringNext()
		if c.inOwners(e) {
			return RCOK
		}
		return WAIT
	}

	e := newLockEntry(configs.LockExclusive, txn, access)
	c.waiters.append(e)
	c.bringNext()
	if c.inOwners(e) {
		return RCOK
	}
	return WAIT
}

// wound aborts the transaction behind e and removes e (and anything that
// depended on its pre-image) from whichever list it currently sits in. If
// the victim had already committed, the caller itself must abort.
func (c *bambooManager) wound(e *LockEntry) RC {
	if rc := e.Txn.Wound(); rc == ERROR {
		return Abort
	}
	c.removeDescendants(e)
	return RCOK
}

func (c *bambooManager) removeDescendants(e *LockEntry) {
	if e.inList != nil {
		e.inList.remove(e)
	}
	var victims []*LockEntry
	for cur := c.retired.head; cur != nil; cur = cur.next {
		if cur.RawFrom == e {
			victims = append(victims, cur)
		}
	}
	for _, v := range victims {
		v.Txn.Wound()
		c.removeDescendants(v)
	}
}

func (c *bambooManager) inOwners(e *LockEntry) bool {
	for cur := c.owners.head; cur != nil; cur = cur.next {
		if cur == e {
			return true
		}
	}
	return false
}

// bringNext promotes waiters into owners while the head of the waiters
// list is compatible with the current owners, skipping (and discarding)
// any waiter whose transaction has since been wounded.
func (c *bambooManager) bringNext() {
	for c.waiters.head != nil {
		w := c.waiters.head
		if w.Txn.IsAborted() {
			c.waiters.remove(w)
			continue
		}
		if c.owners.cnt > 0 && conflictLock(c.owners.head.Type, w.Type) {
			break
		}
		c.waiters.remove(w)
		c.owners.append(w)
		w.Txn.lockReady = true
	}
}

func (c *bambooManager) ReturnRow(txn *Transaction, access *Access, rc RC) {
	c.latch.Lock()
	defer c.latch.Unlock()
	e := access.Entry
	if e == nil {
		return
	}
	if e.RawFrom != nil {
		e.RawFrom.Txn.DecrementCommitBarriers()
	}
	if e.inList != nil {
		e.inList.remove(e)
	}
	c.bringNext()
}

// RetireRow moves a still-owned write access straight into the retired
// list ahead of schedule. The entry carries no RawFrom of its own (it is
// the write, not a dependent of one); any access arriving afterward finds
// it via pendingWrite() and chains onto it there instead.
func (c *bambooManager) RetireRow(access *Access) RC {
	c.latch.Lock()
	defer c.latch.Unlock()
	e := access.Entry
	if e == nil || e.inList != &c.owners {
		return RCOK
	}
	c.owners.remove(e)
	c.retired.append(e)
	c.bringNext()
	return RCOK
}

func (c *bambooManager) RetiresEagerly() bool { return false }
