package storage

import (
	"sync"

	"bamboo/clock"
	"bamboo/configs"
)

// Store is a single-node table space plus the pool of transactions
// currently executing against it. It plays the role the kernel's sharded
// key-value store plays for a single partition, with the distributed
// prepare/pre-commit lifecycle and the Postgres/Mongo backends stripped
// out: everything here lives in in-process BTree-indexed tables.
type Store struct {
	id     string
	clock  *clock.Source
	tables sync.Map // name -> *Table
	txns   sync.Map // id -> *Transaction
	log    *LogManager
}

func NewStore(id string) *Store {
	return &Store{id: id, clock: clock.NewSource(), log: NewLogManager(id)}
}

func (s *Store) AddTable(name string, attributesNum int) *Table {
	tab := NewTable(name, attributesNum)
	s.tables.Store(name, tab)
	return tab
}

func (s *Store) table(name string) (*Table, error) {
	v, ok := s.tables.Load(name)
	if !ok {
		return nil, ErrTableNotFound
	}
	return v.(*Table), nil
}

// Begin starts a new transaction under txnID, handing it a fresh batched
// timestamp allocator drawn from the store's shared clock source.
func (s *Store) Begin(txnID uint64) (*Transaction, error) {
	if _, loaded := s.txns.Load(txnID); loaded {
		return nil, ErrTxnInFlight
	}
	txn := NewTransaction(clock.NewAllocator(s.clock))
	txn.id = txnID
	s.txns.Store(txnID, txn)
	return txn, nil
}

func (s *Store) lookup(txnID uint64) (*Transaction, error) {
	v, ok := s.txns.Load(txnID)
	if !ok {
		return nil, ErrTxnNotFound
	}
	return v.(*Transaction), nil
}

// Read performs a scan/read access against tableName's row for key on
// behalf of txnID, returning the visible RowData on success.
func (s *Store) Read(tableName string, key Key, txnID uint64) (*RowData, RC, error) {
	tab, err := s.table(tableName)
	if err != nil {
		return nil, ERROR, err
	}
	row, ierr := tab.primaryIndex.IndexRead(key)
	if ierr != nil {
		return nil, ERROR, ierr
	}
	txn, err := s.lookup(txnID)
	if err != nil {
		return nil, ERROR, err
	}
	access := txn.StartAccess()
	rc := row.GetRow(TxnRead, txn, access)
	if rc == Abort {
		return nil, Abort, nil
	}
	return access.Data, rc, nil
}

// Write performs a write access against tableName's row for key on behalf
// of txnID, applying mutate to the transaction's private copy. The
// write only becomes visible to other transactions once txnID commits.
func (s *Store) Write(tableName string, key Key, txnID uint64, mutate func(*RowData)) (RC, error) {
	tab, err := s.table(tableName)
	if err != nil {
		return ERROR, err
	}
	row, ierr := tab.primaryIndex.IndexRead(key)
	if ierr != nil {
		return ERROR, ierr
	}
	txn, err := s.lookup(txnID)
	if err != nil {
		return ERROR, err
	}
	access := txn.StartAccess()
	rc := row.GetRow(TxnWrite, txn, access)
	if rc == Abort {
		return Abort, nil
	}
	mutate(access.Data)
	return rc, nil
}

// Decrement stages a commutative DecValue against col, deferring the
// actual subtraction to cleanup time instead of computing it against the
// value visible at acquisition time.
func (s *Store) Decrement(tableName string, key Key, txnID uint64, col uint, val float64) (RC, error) {
	tab, err := s.table(tableName)
	if err != nil {
		return ERROR, err
	}
	row, ierr := tab.primaryIndex.IndexRead(key)
	if ierr != nil {
		return ERROR, ierr
	}
	txn, err := s.lookup(txnID)
	if err != nil {
		return ERROR, err
	}
	access := txn.StartAccess()
	rc := row.GetRow(TxnCommutative, txn, access)
	if rc == Abort {
		return Abort, nil
	}
	txn.DecValue(col, val)
	return rc, nil
}

// Insert creates a brand new row, outside of any transaction's lock
// manager, mirroring the bulk load path every workload generator uses.
func (s *Store) Insert(tableName string, key Key, value *RowData) error {
	tab, err := s.table(tableName)
	if err != nil {
		return err
	}
	row := NewRowRecord(tab, key)
	row.Data = value
	return tab.primaryIndex.IndexInsert(key, row)
}

func (s *Store) Commit(txnID uint64) (RC, error) {
	txn, err := s.lookup(txnID)
	if err != nil {
		return ERROR, err
	}
	rc := txn.Finish(RCOK)
	if rc != Abort {
		s.log.WriteRedoEntries(txn)
	}
	s.log.WriteOutcome(txn, rc)
	s.txns.Delete(txnID)
	configs.TxnPrint(txnID, "finished with "+rc.String())
	return rc, nil
}

func (s *Store) RollBack(txnID uint64) error {
	txn, err := s.lookup(txnID)
	if err != nil {
		return err
	}
	txn.Finish(Abort)
	s.log.WriteOutcome(txn, Abort)
	s.txns.Delete(txnID)
	return nil
}
