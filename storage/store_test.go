package storage

import (
	"testing"

	"github.com/magiconair/properties/assert"

	"bamboo/configs"
)

func TestStoreBeginReadWriteCommit(t *testing.T) {
	configs.SelectedCC = configs.Bamboo
	s := NewStore("test")
	s.AddTable("T", 1)
	assert.Equal(t, s.Insert("T", Key(1), func() *RowData {
		d := NewRowData(nil)
		d.SetAttribute(0, "initial")
		return d
	}()), nil)

	txn, err := s.Begin(1)
	assert.Equal(t, err, nil)
	assert.Equal(t, txn.ID(), uint64(1))

	data, rc, err := s.Read("T", Key(1), 1)
	assert.Equal(t, err, nil)
	assert.Equal(t, rc, RCOK)
	assert.Equal(t, data.GetAttribute(0), "initial")

	rc, err = s.Write("T", Key(1), 1, func(d *RowData) {
		d.SetAttribute(0, "updated")
	})
	assert.Equal(t, err, nil)
	assert.Equal(t, rc, RCOK)

	rc, err = s.Commit(1)
	assert.Equal(t, err, nil)
	assert.Equal(t, rc, RCOK)

	row, ierr := func() (*RowRecord, error) {
		tab, terr := s.table("T")
		if terr != nil {
			return nil, terr
		}
		return tab.primaryIndex.IndexRead(Key(1))
	}()
	assert.Equal(t, ierr, nil)
	assert.Equal(t, row.Data.GetAttribute(0), "updated")
}

func TestStoreBeginRejectsDuplicateInFlightID(t *testing.T) {
	s := NewStore("test")
	_, err := s.Begin(7)
	assert.Equal(t, err, nil)
	_, err = s.Begin(7)
	assert.Equal(t, err, ErrTxnInFlight)
}

func TestStoreReadUnknownTableReturnsError(t *testing.T) {
	s := NewStore("test")
	_, err := s.Begin(1)
	assert.Equal(t, err, nil)
	_, _, err = s.Read("missing", Key(1), 1)
	assert.Equal(t, err, ErrTableNotFound)
}

func TestStoreWriteUnknownTxnReturnsError(t *testing.T) {
	s := NewStore("test")
	s.AddTable("T", 1)
	assert.Equal(t, s.Insert("T", Key(1), NewRowData(nil)), nil)
	_, err := s.Write("T", Key(1), 999, func(d *RowData) {})
	assert.Equal(t, err, ErrTxnNotFound)
}

func TestStoreRollBackDiscardsWrite(t *testing.T) {
	configs.SelectedCC = configs.Bamboo
	s := NewStore("test")
	s.AddTable("T", 1)
	d := NewRowData(nil)
	d.SetAttribute(0, "original")
	assert.Equal(t, s.Insert("T", Key(1), d), nil)

	_, err := s.Begin(1)
	assert.Equal(t, err, nil)
	rc, err := s.Write("T", Key(1), 1, func(d *RowData) {
		d.SetAttribute(0, "should not stick")
	})
	assert.Equal(t, err, nil)
	assert.Equal(t, rc, RCOK)

	assert.Equal(t, s.RollBack(1), nil)

	tab, terr := s.table("T")
	assert.Equal(t, terr, nil)
	row, ierr := tab.primaryIndex.IndexRead(Key(1))
	assert.Equal(t, ierr, nil)
	assert.Equal(t, row.Data.GetAttribute(0), "original")
}

func TestStoreDecrementDefersSubtraction(t *testing.T) {
	configs.SelectedCC = configs.Bamboo
	s := NewStore("test")
	s.AddTable("T", 1)
	d := NewRowData(nil)
	d.SetAttribute(0, float64(10))
	assert.Equal(t, s.Insert("T", Key(1), d), nil)

	_, err := s.Begin(1)
	assert.Equal(t, err, nil)
	rc, err := s.Decrement("T", Key(1), 1, 0, 3)
	assert.Equal(t, err, nil)
	assert.Equal(t, rc, RCOK)

	rc, err = s.Commit(1)
	assert.Equal(t, err, nil)
	assert.Equal(t, rc, RCOK)

	tab, terr := s.table("T")
	assert.Equal(t, terr, nil)
	row, ierr := tab.primaryIndex.IndexRead(Key(1))
	assert.Equal(t, ierr, nil)
	assert.Equal(t, row.Data.GetAttribute(0), float64(7))
}
