package benchmark

import (
	"testing"

	"github.com/magiconair/properties/assert"

	"bamboo/configs"
)

func TestStockWorkloadNextQueryShape(t *testing.T) {
	origCom := configs.CommutativeOps
	defer func() { configs.CommutativeOps = origCom }()
	configs.CommutativeOps = false

	w := NewStockWorkload(1, 2, 50, 10)
	q := w.NextQuery()
	assert.Equal(t, len(q.Ops), itemsPerOrder+1)

	seen := map[interface{}]bool{}
	for _, op := range q.Ops[:itemsPerOrder] {
		assert.Equal(t, op.Table, configs.STOCK)
		assert.Equal(t, seen[op.Key], false)
		seen[op.Key] = true
	}
	last := q.Ops[itemsPerOrder]
	assert.Equal(t, last.Table, configs.ORDER)
}

func TestStockWorkloadUsesCommutativeOpsWhenEnabled(t *testing.T) {
	origCom := configs.CommutativeOps
	defer func() { configs.CommutativeOps = origCom }()
	configs.CommutativeOps = true

	w := NewStockWorkload(2, 1, 20, 5)
	q := w.NextQuery()
	for _, op := range q.Ops[:itemsPerOrder] {
		assert.Equal(t, op.Commutative, true)
		assert.Equal(t, op.ComCol, uint(configs.SQuantity))
	}
}
