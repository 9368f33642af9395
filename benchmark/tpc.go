package benchmark

import (
	"math/rand"

	set "github.com/deckarep/golang-set"

	"bamboo/configs"
	"bamboo/storage"
)

// itemsPerOrder mirrors a trimmed New-Order transaction: a handful of
// stock rows get their quantity decremented and one order row gets a new
// amount written, without the full customer/district/warehouse chain the original
// TPC-C New-Order touches.
const itemsPerOrder = 8

// StockWorkload exercises the commutative-operation deferral path: every
// query picks one warehouse and decrements the quantities of several of its
// stock rows. When
// configs.CommutativeOps is set the decrements are staged through
// Store.Decrement (conflict-free between concurrent decrementers);
// otherwise they read-modify-write the quantity directly, so enabling the
// flag and re-running is how the conflict-rate difference is observed.
type StockWorkload struct {
	r                  *rand.Rand
	warehouses         int
	stockPerWarehouse  int
	ordersPerWarehouse int
}

func NewStockWorkload(seed int64, warehouses, stockPerWarehouse, ordersPerWarehouse int) *StockWorkload {
	return &StockWorkload{
		r:                  rand.New(rand.NewSource(seed)),
		warehouses:         warehouses,
		stockPerWarehouse:  stockPerWarehouse,
		ordersPerWarehouse: ordersPerWarehouse,
	}
}

func (w *StockWorkload) Name() string { return "stock" }

func (w *StockWorkload) NextQuery() Query {
	wh := w.r.Intn(w.warehouses)
	q := Query{Ops: make([]Op, 0, itemsPerOrder+1)}
	picked := set.NewThreadUnsafeSet()
	for len(q.Ops) < itemsPerOrder {
		sid := w.r.Intn(w.stockPerWarehouse)
		if !picked.Add(sid) {
			continue // an order line never touches the same stock row twice
		}
		key := storage.Key(wh*10000 + sid)
		qty := float64(w.r.Intn(5) + 1)
		if configs.CommutativeOps {
			q.Ops = append(q.Ops, Op{
				Table:       configs.STOCK,
				Key:         key,
				Commutative: true,
				ComCol:      configs.SQuantity,
				ComVal:      qty,
			})
		} else {
			q.Ops = append(q.Ops, Op{
				Table: configs.STOCK,
				Key:   key,
				Mutate: func(row *storage.RowData) {
					cur, _ := row.GetAttribute(configs.SQuantity).(float64)
					row.SetAttribute(configs.SQuantity, cur-qty)
				},
			})
		}
	}
	oid := w.r.Intn(w.ordersPerWarehouse)
	orderKey := storage.Key(wh*1000 + oid)
	amount := w.r.Float64() * 100
	q.Ops = append(q.Ops, Op{
		Table: configs.ORDER,
		Key:   orderKey,
		Mutate: func(row *storage.RowData) {
			row.SetAttribute(configs.OAmount, amount)
		},
	})
	return q
}
