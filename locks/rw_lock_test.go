package locks

import (
	"fmt"
	"sync"
	"testing"

	"github.com/magiconair/properties/assert"
)

const concurrentThreadNumber = 8

func TestLatchExclusive(t *testing.T) {
	lock := NewLatch()
	x := 1
	wait := sync.WaitGroup{}
	for i := 0; i < concurrentThreadNumber; i++ {
		go func(i int, x *int, lock *NodeLatch) {
			for t := 0; t < 10; t++ {
				lock.Lock()
				*x = i
				lock.Unlock()
			}
			wait.Done()
		}(i, &x, lock)
		wait.Add(1)
	}
	wait.Wait()
}

func TestLatchShare(t *testing.T) {
	lock := NewLatch()
	x := 1
	wait := sync.WaitGroup{}
	for i := 0; i < concurrentThreadNumber; i++ {
		go func(i int, x *int, lock *NodeLatch) {
			for t := 0; t < 10; t++ {
				lock.RLock()
				_ = fmt.Sprint(*x)
				lock.RUnlock()
			}
			wait.Done()
		}(i, &x, lock)
		wait.Add(1)
	}
	wait.Wait()
}

func TestLatchMixed(t *testing.T) {
	lock := NewLatch()
	x := 1
	wait := sync.WaitGroup{}
	for i := 0; i < concurrentThreadNumber; i++ {
		go func(i int, x *int, lock *NodeLatch) {
			for t := 0; t < 100; t++ {
				lock.RLock()
				_ = fmt.Sprint(*x)
				lock.RUnlock()
			}
			wait.Done()
		}(i, &x, lock)
		wait.Add(1)
		go func(i int, x *int, lock *NodeLatch) {
			for t := 0; t < 100; t++ {
				for !lock.TryLock() {
				}
				*x = i
				lock.Unlock()
			}
			wait.Done()
		}(i, &x, lock)
		wait.Add(1)
	}
	wait.Wait()
}

// TestUpgradeLockFailsUnderMultipleReaders mirrors the guard findLeaf
// relies on: UpgradeLock must refuse to promote a shared holder to
// exclusive while a second reader is still in, the case that forces the
// descent to drop back to latch-coupling instead of upgrading in place.
func TestUpgradeLockFailsUnderMultipleReaders(t *testing.T) {
	latch := NewLatch()
	assert.Equal(t, latch.TryRLock(), true)
	assert.Equal(t, latch.TryRLock(), true)
	assert.Equal(t, latch.UpgradeLock(), false)
	latch.ClearOnce()
	assert.Equal(t, latch.UpgradeLock(), true)
}

func TestClearOncePanicsWithNothingHeld(t *testing.T) {
	latch := NewLatch()
	defer func() {
		r := recover()
		assert.Equal(t, r != nil, true)
	}()
	latch.ClearOnce()
}
