package storage

import (
	"testing"

	"github.com/magiconair/properties/assert"

	"bamboo/configs"
)

func TestEntryListAppendAndRemove(t *testing.T) {
	var l entryList
	e1 := newLockEntry(configs.LockShared, nil, nil)
	e2 := newLockEntry(configs.LockShared, nil, nil)
	l.append(e1)
	l.append(e2)
	assert.Equal(t, l.cnt, 2)
	assert.Equal(t, l.head, e1)
	assert.Equal(t, l.tail, e2)

	l.remove(e1)
	assert.Equal(t, l.cnt, 1)
	assert.Equal(t, l.head, e2)
	assert.Equal(t, l.tail, e2)
	assert.Equal(t, e1.inList == nil, true)
}

func TestEntryListInsertBefore(t *testing.T) {
	var l entryList
	e1 := newLockEntry(configs.LockShared, nil, nil)
	e2 := newLockEntry(configs.LockShared, nil, nil)
	e3 := newLockEntry(configs.LockShared, nil, nil)
	l.append(e1)
	l.append(e3)
	l.insertBefore(e3, e2)
	assert.Equal(t, l.cnt, 3)
	assert.Equal(t, l.head, e1)
	assert.Equal(t, e1.next, e2)
	assert.Equal(t, e2.next, e3)
	assert.Equal(t, l.tail, e3)
}

func TestEntryListRemoveFromTruncatesTail(t *testing.T) {
	var l entryList
	e1 := newLockEntry(configs.LockShared, nil, nil)
	e2 := newLockEntry(configs.LockShared, nil, nil)
	e3 := newLockEntry(configs.LockShared, nil, nil)
	l.append(e1)
	l.append(e2)
	l.append(e3)

	removed := l.removeFrom(e2)
	assert.Equal(t, len(removed), 2)
	assert.Equal(t, l.cnt, 1)
	assert.Equal(t, l.head, e1)
	assert.Equal(t, l.tail, e1)
}

func TestConflictLock(t *testing.T) {
	assert.Equal(t, conflictLock(configs.LockShared, configs.LockShared), false)
	assert.Equal(t, conflictLock(configs.LockShared, configs.LockExclusive), true)
	assert.Equal(t, conflictLock(configs.LockExclusive, configs.LockExclusive), true)
	assert.Equal(t, conflictLock(configs.LockNone, configs.LockExclusive), false)
}
