package storage

import (
	"fmt"
	"sync"
	"time"

	"github.com/tidwall/wal"

	"bamboo/configs"
)

// LogManager is a debug/trace journal, not a durability mechanism: it
// records the commit/abort decision and write set of every finished
// transaction to a local write-ahead log so a run can be replayed for
// inspection. Batches writes on a fixed interval the same way the kernel's
// redo log batches across a replication round.
type LogManager struct {
	latch  sync.Mutex
	lsn    uint64
	logs   *wal.Log
	buffer *wal.Batch
	stop   chan struct{}
}

func NewLogManager(traceID string) *LogManager {
	res := &LogManager{stop: make(chan struct{})}
	if !configs.TraceFile {
		return res
	}
	log, err := wal.Open(fmt.Sprintf("./logs/%s", traceID), nil)
	if err != nil {
		panic(err)
	}
	res.logs = log
	res.lsn, err = log.LastIndex()
	if err != nil {
		panic(err)
	}
	res.buffer = &wal.Batch{}
	go res.batchSync()
	return res
}

// WriteRedoEntries appends one entry per write access in the committing
// transaction, recording the row's final value.
func (c *LogManager) WriteRedoEntries(txn *Transaction) {
	if !configs.TraceFile {
		return
	}
	c.latch.Lock()
	defer c.latch.Unlock()
	for rid := 0; rid < txn.rowCnt; rid++ {
		a := txn.accesses[rid]
		if a.Type != TxnWrite || a.Data == nil {
			continue
		}
		e := fmt.Sprintf("(w,%v,%v,%v)", txn.ID(), a.OrigRow, a.Data)
		c.lsn++
		c.buffer.Write(c.lsn, []byte(e))
	}
}

// WriteOutcome appends the final RC a transaction finished with.
func (c *LogManager) WriteOutcome(txn *Transaction, rc RC) {
	if !configs.TraceFile {
		return
	}
	c.latch.Lock()
	defer c.latch.Unlock()
	e := fmt.Sprintf("(t,%v,%v)", txn.ID(), rc)
	c.lsn++
	c.buffer.Write(c.lsn, []byte(e))
}

func (c *LogManager) Close() {
	if !configs.TraceFile {
		return
	}
	close(c.stop)
}

func (c *LogManager) batchSync() {
	lastLSN := c.lsn
	ticker := time.NewTicker(configs.LogBatchInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.latch.Lock()
			if c.lsn == lastLSN || c.buffer == nil {
				c.latch.Unlock()
				continue
			}
			if err := c.logs.WriteBatch(c.buffer); err != nil {
				panic(err)
			}
			c.buffer.Clear()
			lastLSN = c.lsn
			c.latch.Unlock()
		case <-c.stop:
			return
		}
	}
}
