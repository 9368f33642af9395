package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"runtime/pprof"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"bamboo/benchmark"
	"bamboo/configs"
	"bamboo/storage"
)

var (
	cc         string
	bench      string
	clients    int
	txnLen     int
	readPct    float64
	skew       float64
	tableSize  int
	warehouses int
	runtime_   time.Duration
	maxTxn     int
	byCount    bool
	bbOptRaw   bool
	bbMaxWait  int
	comOps     bool
	lastRetire float64
	abortBuf   bool
	debug      bool
	jsonOut    bool
	cpuProfile string
)

func usage() {
	flag.PrintDefaults()
}

func init() {
	flag.StringVar(&cc, "cc", configs.Bamboo, "concurrency control algorithm: BAMBOO, CLV, 2PL_NW, VLL")
	flag.StringVar(&bench, "bench", "ycsb", "workload: ycsb or stock")
	flag.IntVar(&clients, "c", 8, "number of client routines")
	flag.IntVar(&txnLen, "len", 16, "ycsb transaction length")
	flag.Float64Var(&readPct, "rw", 0.5, "ycsb read percentage")
	flag.Float64Var(&skew, "skew", 0.9, "ycsb zipfian skew factor")
	flag.IntVar(&tableSize, "tb", 10000, "ycsb table size")
	flag.IntVar(&warehouses, "wh", 4, "stock workload warehouse count")
	flag.DurationVar(&runtime_, "runtime", 10*time.Second, "run duration when -by-count=false")
	flag.IntVar(&maxTxn, "max-txn", 100000, "per-worker commit count when -by-count=true")
	flag.BoolVar(&byCount, "by-count", true, "terminate by commit count instead of wall clock")
	flag.BoolVar(&bbOptRaw, "bb-raw", true, "enable BAMBOO's read-after-write short circuit")
	flag.IntVar(&bbMaxWait, "bb-max-waiter", 0, "cap BAMBOO's exclusive waiter queue depth (0 disables)")
	flag.BoolVar(&comOps, "commutative", false, "issue stock decrements as commutative ops")
	flag.Float64Var(&lastRetire, "last-retire", 0, "BAMBOO late-retire heuristic threshold (0 disables)")
	flag.BoolVar(&abortBuf, "abort-buffer", true, "enable the per-worker abort backoff buffer")
	flag.BoolVar(&debug, "debug", false, "log debug info")
	flag.BoolVar(&jsonOut, "json", false, "print the final report as JSON instead of a formatted line")
	flag.StringVar(&cpuProfile, "cpu-prof", "", "write a CPU profile to this path")
	flag.Usage = usage
}

func main() {
	flag.Parse()

	configs.SelectedCC = cc
	configs.ClientRoutineNumber = clients
	configs.TransactionLength = txnLen
	configs.ReadPercentage = readPct
	configs.YCSBDataSkewness = skew
	configs.NumberOfRecordsPerShard = tableSize
	configs.MaxRuntime = runtime_
	configs.MaxTxnPerPart = maxTxn
	configs.TerminateByCount = byCount
	configs.BBOptRaw = bbOptRaw
	configs.BBOptMaxWaiter = bbMaxWait
	configs.CommutativeOps = comOps
	configs.LastRetire = lastRetire
	configs.AbortBufferEnabled = abortBuf
	configs.ShowDebugInfo = debug
	configs.ShowWarnings = debug
	configs.ShowTestInfo = debug

	if cpuProfile != "" {
		f, err := os.Create(cpuProfile)
		if err != nil {
			log.Fatal("could not create CPU profile: ", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			log.Fatal("could not start CPU profile: ", err)
		}
		defer pprof.StopCPUProfile()
	}

	var store *storage.Store
	var workloadFor func(id int) benchmark.Workload
	switch bench {
	case "ycsb":
		store = storage.NewYCSBStore("node0")
		workloadFor = func(id int) benchmark.Workload {
			return benchmark.NewYCSBWorkload(int64(id)*11 + 13)
		}
	case "stock":
		const stockPerWarehouse, ordersPerWarehouse = 10000, 1000
		store = storage.NewStockStore("node0", warehouses, stockPerWarehouse, ordersPerWarehouse)
		workloadFor = func(id int) benchmark.Workload {
			return benchmark.NewStockWorkload(int64(id)*11+13, warehouses, stockPerWarehouse, ordersPerWarehouse)
		}
	default:
		log.Fatalf("unknown benchmark %q", bench)
	}

	stats := benchmark.NewStats()
	var done int32
	var g errgroup.Group
	for i := 0; i < configs.ClientRoutineNumber; i++ {
		w := benchmark.NewWorker(uint64(i), store, workloadFor(i), stats)
		g.Go(func() error {
			w.Run(&done)
			return nil
		})
	}

	time.Sleep(configs.WarmUpTime)
	stats.Clear()
	if !configs.TerminateByCount {
		time.Sleep(configs.MaxRuntime)
		atomic.StoreInt32(&done, 1)
	}
	g.Wait()
	if jsonOut {
		fmt.Println(stats.ReportJSON())
	} else {
		fmt.Println(stats.Report())
	}
}
