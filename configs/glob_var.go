package configs

import (
	"time"
)

// Debugging parameters.
var (
	ShowDebugInfo = false
	ShowWarnings  = ShowDebugInfo
	ShowTestInfo  = ShowDebugInfo
	LogToFile     = true
	TraceFile     = false
)

// Status codes used for ambient logging of row lifecycle transitions.
const (
	Retired  string = "[row] access moved to retired list"
	Owned    string = "[row] access promoted to owner"
	Waiting  string = "[row] access queued onto waiters"
	Wounded  string = "[row] access wounded by an older conflicting transaction"
	Finished string = "transaction finished"
)

// Lock type and row-manager status codes.
const (
	LockNone      = 0
	LockShared    = 1
	LockExclusive = 2
	LockCM        = 3 // commutative: non-conflicting with RD/CM, conflicting only with WR.

	LockWait    = 0
	LockAbort   = 1
	LockSucceed = 2
)

// Concurrency control algorithm names, selectable via SelectedCC.
const (
	Bamboo        = "BAMBOO"
	CLV           = "CLV"
	TwoPLNoWait   = "2PL_NW"
	VeryLightLock = "VLL"
)

// System parameters.
const (
	MaxAccessesPerTxn = 64
	BTreeOrder        = 16
	LogBatchInterval  = 10 * time.Millisecond
	WarmUpTime        = 2 * time.Second
	MaxTID            = 2000000

	// AbortBufferSize is the number of ready-time slots a worker keeps for
	// its own backed-off transactions, served ahead of the shared queue.
	AbortBufferSize = 16
	// InitPenalty4Abort is the base of the randomized abort backoff window.
	InitPenalty4Abort = 1 * time.Millisecond
	// TsBatchNum is how many timestamps a worker reserves from the shared
	// counter per batch allocation, amortizing the atomic add over many txns.
	TsBatchNum = 32
)

// Workload parameters that could be changed by CLI args.
var (
	Benchmark               = "ycsb"
	NumberOfRecordsPerShard = 10000
	TransactionLength       = 16
	ReadPercentage          = 0.5
	YCSBDataSkewness        = 0.9
	ClientRoutineNumber     = 10
	SelectedCC              = Bamboo

	// BBOptRaw enables the BAMBOO read-after-write short circuit: a reader
	// may copy a not-yet-committed writer's pre-image instead of waiting.
	BBOptRaw = true
	// BBOptMaxWaiter bounds the waiter queue depth for exclusive acquires;
	// 0 disables the cap.
	BBOptMaxWaiter = 0
	// CommutativeOps switches the stock workload's decrements from plain
	// Store.Write mutations to Store.Decrement, which acquires a
	// LockCM lock instead of LockExclusive and defers the subtraction to
	// cleanup time.
	CommutativeOps = false
	// LastRetire drives the late-retire heuristic: a WR access is retired
	// before commit-spin finishes once the spin has run this fraction of
	// the txn's total lifetime so far. 0 disables the heuristic.
	LastRetire = float64(0)

	// LatchWriteProtectNs is how long a B-tree node latch refuses new
	// readers after losing a lock/upgrade race, so a steady stream of
	// short readers can't starve out a waiting writer.
	LatchWriteProtectNs = int64(5 * 1000)

	// TerminateByCount, when true, stops a worker after MaxTxnPerPart
	// committed transactions instead of after MaxRuntime.
	TerminateByCount = true
	MaxTxnPerPart    = 100000
	MaxRuntime       = 10 * time.Second

	// AbortBufferEnabled toggles the per-worker abort-backoff ring; when
	// false a wounded worker just sleeps out its penalty inline.
	AbortBufferEnabled = true
)

// YCSB single-table field indices.
const (
	F0 = 0
	F9 = 9
)

// Lightweight TPC-C-flavored New-Order workload, table names and field
// offsets, trimmed to the tables exercised by the supplemental workload.
const (
	WAREHOUSE = "TPCC_Warehouse"
	STOCK     = "TPCC_Stock"
	ORDER     = "TPCC_Order"

	WhId   = 0
	WhYTD  = 1
	WhName = 2

	SIId      = 0
	SWId      = 1
	SQuantity = 2
	SYTD      = 3
	SOrderCnt = 4

	OId     = 0
	OWId    = 1
	OIId    = 2
	OAmount = 3
)
