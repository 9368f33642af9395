package benchmark

import "bamboo/storage"

// Op is one row access within a Query: either a plain read, a plain write
// (Mutate fills in the new value), or a commutative decrement staged
// through storage.Transaction.DecValue.
type Op struct {
	IsRead      bool
	Table       string
	Key         storage.Key
	Mutate      func(*storage.RowData)
	Commutative bool
	ComCol      uint
	ComVal      float64
}

// Query is one transaction's worth of row accesses, generated fresh for
// every attempt except a rerun out of the abort buffer, which replays the
// same Ops.
type Query struct {
	Ops []Op
}

// Workload generates the queries a worker's client routine issues.
type Workload interface {
	Name() string
	NextQuery() Query
}
