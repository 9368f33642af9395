package benchmark

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"bamboo/configs"
)

// Stats aggregates commit/abort counts and commit latencies across every
// worker: throughput and latency percentiles, no cross-shard phase
// breakdown.
type Stats struct {
	mu         sync.Mutex
	committed  uint64
	aborted    uint64
	userAborts uint64
	latencies  []time.Duration
	beginTime  time.Time
}

func NewStats() *Stats {
	return &Stats{beginTime: time.Now()}
}

func (s *Stats) Commit(latency time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.committed++
	s.latencies = append(s.latencies, latency)
}

func (s *Stats) Abort() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.aborted++
}

func (s *Stats) UserAbort() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userAborts++
	s.aborted++
}

func (s *Stats) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.committed, s.aborted, s.userAborts = 0, 0, 0
	s.latencies = s.latencies[:0]
	s.beginTime = time.Now()
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(float64(len(sorted))*p + 0.5)
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

// Summary is the JSON-friendly shape of one reporting interval, for
// callers that want to pipe results into another tool instead of reading
// the formatted Report string.
type Summary struct {
	CommitsPerSec float64       `json:"commits_per_sec"`
	AbortsPerSec  float64       `json:"aborts_per_sec"`
	UserAborts    uint64        `json:"user_aborts"`
	P50           time.Duration `json:"p50"`
	P90           time.Duration `json:"p90"`
	P99           time.Duration `json:"p99"`
}

func (s *Stats) summarize() Summary {
	elapsed := time.Since(s.beginTime).Seconds()
	if elapsed <= 0 {
		elapsed = 1
	}
	sorted := make([]time.Duration, len(s.latencies))
	copy(sorted, s.latencies)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	return Summary{
		CommitsPerSec: float64(s.committed) / elapsed,
		AbortsPerSec:  float64(s.aborted) / elapsed,
		UserAborts:    s.userAborts,
		P50:           percentile(sorted, 0.50),
		P90:           percentile(sorted, 0.90),
		P99:           percentile(sorted, 0.99),
	}
}

// Report formats the commit/abort counters and latency percentiles seen
// since the last Clear.
func (s *Stats) Report() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	sum := s.summarize()
	return fmt.Sprintf(
		"commits/s:%.1f aborts/s:%.1f user_aborts:%d p50:%v p90:%v p99:%v",
		sum.CommitsPerSec, sum.AbortsPerSec, sum.UserAborts, sum.P50, sum.P90, sum.P99,
	)
}

// ReportJSON is Report's machine-readable sibling, serialized with the
// same JSON encoder the rest of the kernel uses for debug dumps.
func (s *Stats) ReportJSON() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return configs.JToString(s.summarize())
}
