package storage

import "bamboo/configs"

// RC is the result code a row lock manager hands back to the transaction
// manager.
type RC uint8

const (
	RCOK RC = iota
	WAIT
	Abort
	FINISH
	ERROR
)

func (rc RC) String() string {
	switch rc {
	case RCOK:
		return "RCOK"
	case WAIT:
		return "WAIT"
	case Abort:
		return "ABORT"
	case FINISH:
		return "FINISH"
	case ERROR:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// LockManager is the per-row contract every concurrency control algorithm
// implements. A row owns exactly one LockManager, constructed once by
// NewLockManager and never swapped, so dispatch is a single interface call
// rather than a per-call type switch.
type LockManager interface {
	// LockGet attempts to acquire lockType on behalf of txn. access is
	// populated with lock-manager-specific bookkeeping (its LockEntry) and,
	// on FINISH, with a read-after-write pre-image. The returned RC is one
	// of RCOK (acquired), WAIT (queued), Abort (caller must abort), or
	// FINISH (acquired via a short-circuit, no further wait needed).
	LockGet(lockType uint8, txn *Transaction, access *Access) RC
	// ReturnRow releases the lock held by access, waking the next eligible
	// waiter if any.
	ReturnRow(txn *Transaction, access *Access, rc RC)
	// RetireRow moves an owned write access into the retired list ahead of
	// commit completing, when the late-retire heuristic requests it. No-op
	// for managers that do not distinguish a retired state.
	RetireRow(access *Access) RC
	// RetiresEagerly reports whether this algorithm retires owned write
	// accesses as soon as a transaction starts finishing (CLV's baseline
	// behavior) rather than only on an explicit late-retire heuristic.
	RetiresEagerly() bool
	ToString() string
}

func NewLockManager(row *RowRecord) LockManager {
	switch configs.SelectedCC {
	case configs.Bamboo:
		return newBambooManager(row)
	case configs.CLV:
		return newCLVManager(row)
	case configs.TwoPLNoWait:
		return NewTwoPLNWManager(row)
	case configs.VeryLightLock:
		return NewVLLManager(row)
	default:
		panic("unknown concurrency control algorithm: " + configs.SelectedCC)
	}
}
