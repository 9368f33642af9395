package benchmark

import (
	"math/rand"

	"github.com/pingcap/go-ycsb/pkg/generator"

	"bamboo/configs"
	"bamboo/storage"
)

var letters = []rune("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ")

func randSeq(r *rand.Rand, n int) string {
	b := make([]rune, n)
	for i := range b {
		b[i] = letters[r.Intn(len(letters))]
	}
	return string(b)
}

// YCSBWorkload generates configs.TransactionLength-row queries against a
// single YCSB_MAIN table, drawing keys from a Zipfian distribution over
// configs.NumberOfRecordsPerShard rows and mixing reads/writes according
// to configs.ReadPercentage.
type YCSBWorkload struct {
	r   *rand.Rand
	zip *generator.Zipfian
}

func NewYCSBWorkload(seed int64) *YCSBWorkload {
	return &YCSBWorkload{
		r:   rand.New(rand.NewSource(seed)),
		zip: generator.NewZipfianWithRange(0, int64(configs.NumberOfRecordsPerShard-1), configs.YCSBDataSkewness),
	}
}

func (w *YCSBWorkload) Name() string { return "ycsb" }

func (w *YCSBWorkload) NextQuery() Query {
	q := Query{Ops: make([]Op, 0, configs.TransactionLength)}
	for i := 0; i < configs.TransactionLength; i++ {
		key := storage.Key(w.zip.Next(w.r))
		if w.r.Float64() < configs.ReadPercentage {
			q.Ops = append(q.Ops, Op{IsRead: true, Table: "YCSB_MAIN", Key: key})
			continue
		}
		val := randSeq(w.r, 5)
		q.Ops = append(q.Ops, Op{
			Table: "YCSB_MAIN",
			Key:   key,
			Mutate: func(row *storage.RowData) {
				for f := configs.F0; f <= configs.F9; f++ {
					row.SetAttribute(uint(f), val)
				}
			},
		})
	}
	return q
}
