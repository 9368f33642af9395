package storage

import "bamboo/configs"

// LockEntry is the intrusive queue node both the BAMBOO and CLV row
// managers thread through their waiters/owners/retired lists. A single
// access produces at most one LockEntry, which moves between lists as the
// access progresses from waiting to owning to retired.
type LockEntry struct {
	Type     uint8
	Txn      *Transaction
	Access   *Access
	IsCohead bool
	Delta    bool

	// RawFrom records which uncommitted exclusive entry (owner or retired),
	// if any, this entry chained onto via the read-after-write short
	// circuit; a read also copied its pre-image from it, a commutative
	// access copies nothing. Wounding RawFrom cascades to every entry that
	// depended on it.
	RawFrom *LockEntry

	prev   *LockEntry
	next   *LockEntry
	inList *entryList
}

func newLockEntry(lockType uint8, txn *Transaction, access *Access) *LockEntry {
	e := &LockEntry{Type: lockType, Txn: txn, Access: access}
	if access != nil {
		access.Entry = e
	}
	return e
}

// entryList is a small doubly linked list with head/tail and a running
// count, shared by every list (waiters, owners, retired) that the row
// managers maintain.
type entryList struct {
	head *LockEntry
	tail *LockEntry
	cnt  int
}

func (l *entryList) append(e *LockEntry) {
	e.prev = l.tail
	e.next = nil
	if l.tail != nil {
		l.tail.next = e
	} else {
		l.head = e
	}
	l.tail = e
	l.cnt++
	e.inList = l
}

// insertBefore inserts e immediately before at. at must belong to l.
func (l *entryList) insertBefore(at, e *LockEntry) {
	e.prev = at.prev
	e.next = at
	if at.prev != nil {
		at.prev.next = e
	} else {
		l.head = e
	}
	at.prev = e
	l.cnt++
	e.inList = l
}

// insertSortedByTS inserts e into a list kept in ascending transaction
// timestamp order, used for the waiters list.
func (l *entryList) insertSortedByTS(e *LockEntry) {
	ts := e.Txn.GetTS()
	cur := l.head
	for cur != nil && cur.Txn.GetTS() <= ts {
		cur = cur.next
	}
	if cur == nil {
		l.append(e)
		return
	}
	l.insertBefore(cur, e)
}

func (l *entryList) remove(e *LockEntry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		l.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		l.tail = e.prev
	}
	e.prev = nil
	e.next = nil
	e.inList = nil
	l.cnt--
}

// removeFrom truncates the list starting at (and including) e, returning
// the removed entries in order. Used by cascading-abort cleanup that needs
// to sever a whole tail of the retired list at once.
func (l *entryList) removeFrom(e *LockEntry) []*LockEntry {
	var removed []*LockEntry
	if e.prev != nil {
		e.prev.next = nil
		l.tail = e.prev
	} else {
		l.head = nil
		l.tail = nil
	}
	for cur := e; cur != nil; {
		next := cur.next
		cur.prev = nil
		cur.next = nil
		removed = append(removed, cur)
		l.cnt--
		cur = next
	}
	return removed
}

// conflictLock reports whether two lock types held on the same row cannot
// coexist. LockExclusive conflicts with everything. LockShared and LockCM
// never conflict with each other or with themselves: a commutative access
// only ever needs to be ordered against an actual write, never against a
// read or another commutative access to the same row.
func conflictLock(a, b uint8) bool {
	if a == configs.LockNone || b == configs.LockNone {
		return false
	}
	if a == configs.LockExclusive || b == configs.LockExclusive {
		return true
	}
	return false
}
