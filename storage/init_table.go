package storage

import (
	"math/rand"

	"bamboo/configs"
)

const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

func genRandString(length int) string {
	result := make([]byte, length)
	for i := range result {
		result[i] = charset[rand.Intn(len(charset))]
	}
	return string(result)
}

// WrapYCSBValue fills a 10 field row the way the YCSB workload's payload
// is laid out, every field set to val.
func WrapYCSBValue(tb *Table, val string) *RowData {
	value := NewRowData(tb)
	for i := configs.F0; i <= configs.F9; i++ {
		value.SetAttribute(uint(i), val)
	}
	return value
}

// NewYCSBStore builds a single YCSB_MAIN table of
// configs.NumberOfRecordsPerShard rows, each with 10 string fields.
func NewYCSBStore(id string) *Store {
	s := NewStore(id)
	tb := s.AddTable("YCSB_MAIN", 10)
	for i := 0; i < configs.NumberOfRecordsPerShard; i++ {
		value := WrapYCSBValue(tb, "init_value")
		if err := s.Insert("YCSB_MAIN", Key(i), value); err != nil {
			panic(err)
		}
	}
	return s
}

func getTableKey(tab string, whID, sID, oID int) int {
	switch tab {
	case configs.WAREHOUSE:
		return whID
	case configs.STOCK:
		return whID*10000 + sID
	case configs.ORDER:
		return whID*1000 + oID
	default:
		return 0
	}
}

func (s *Store) initWarehouseTable(whID int) {
	tb, err := s.table(configs.WAREHOUSE)
	configs.CheckError(err)
	key := getTableKey(configs.WAREHOUSE, whID, 0, 0)
	value := NewRowData(tb)
	value.SetAttribute(configs.WhId, key)
	value.SetAttribute(configs.WhName, genRandString(6))
	value.SetAttribute(configs.WhYTD, 300000.00)
	configs.CheckError(s.Insert(configs.WAREHOUSE, Key(key), value))
}

func (s *Store) initStockTable(whID int, stockCount int) {
	tb, err := s.table(configs.STOCK)
	configs.CheckError(err)
	for sid := 0; sid < stockCount; sid++ {
		key := getTableKey(configs.STOCK, whID, sid, 0)
		value := NewRowData(tb)
		value.SetAttribute(configs.SIId, sid)
		value.SetAttribute(configs.SWId, whID)
		value.SetAttribute(configs.SQuantity, float64(rand.Intn(900)+100))
		value.SetAttribute(configs.SYTD, float64(0))
		value.SetAttribute(configs.SOrderCnt, 0)
		configs.CheckError(s.Insert(configs.STOCK, Key(key), value))
	}
}

func (s *Store) initOrderTable(whID int, orderCount int) {
	tb, err := s.table(configs.ORDER)
	configs.CheckError(err)
	for i := 0; i < orderCount; i++ {
		key := getTableKey(configs.ORDER, whID, 0, i)
		value := NewRowData(tb)
		value.SetAttribute(configs.OId, key)
		value.SetAttribute(configs.OWId, whID)
		value.SetAttribute(configs.OIId, rand.Intn(stockPerWarehouseDefault))
		value.SetAttribute(configs.OAmount, rand.Float64()*100)
		configs.CheckError(s.Insert(configs.ORDER, Key(key), value))
	}
}

const stockPerWarehouseDefault = 10000

// NewStockStore builds a small TPC-C-flavored Warehouse/Stock/Order table
// set, enough to drive a commutative-decrement workload against
// configs.SQuantity without the full TPC-C schema.
func NewStockStore(id string, warehouses, stockPerWarehouse, ordersPerWarehouse int) *Store {
	rand.Seed(42)
	s := NewStore(id)
	s.AddTable(configs.WAREHOUSE, 3)
	s.AddTable(configs.STOCK, 5)
	s.AddTable(configs.ORDER, 4)
	for wh := 0; wh < warehouses; wh++ {
		s.initWarehouseTable(wh)
		s.initStockTable(wh, stockPerWarehouse)
		s.initOrderTable(wh, ordersPerWarehouse)
	}
	return s
}
