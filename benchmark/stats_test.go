package benchmark

import (
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/magiconair/properties/assert"
)

func TestStatsCommitAndAbortCounters(t *testing.T) {
	s := NewStats()
	s.Commit(10 * time.Millisecond)
	s.Commit(20 * time.Millisecond)
	s.Abort()
	s.UserAbort()

	sum := s.summarize()
	assert.Equal(t, sum.UserAborts, uint64(1))
	assert.Equal(t, sum.CommitsPerSec > 0, true)
	assert.Equal(t, sum.AbortsPerSec > 0, true)
}

func TestStatsClearResetsCounters(t *testing.T) {
	s := NewStats()
	s.Commit(5 * time.Millisecond)
	s.Abort()
	s.Clear()

	want := Summary{}
	got := s.summarize()
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("summary after Clear mismatch (-want +got):\n%s", diff)
	}
}

func TestStatsPercentilesAreMonotonic(t *testing.T) {
	s := NewStats()
	for i := 1; i <= 100; i++ {
		s.Commit(time.Duration(i) * time.Millisecond)
	}
	sum := s.summarize()
	assert.Equal(t, sum.P50 <= sum.P90, true)
	assert.Equal(t, sum.P90 <= sum.P99, true)
}

func TestReportJSONProducesObjectWithExpectedFields(t *testing.T) {
	s := NewStats()
	s.Commit(time.Millisecond)
	out := s.ReportJSON()
	assert.Equal(t, len(out) > 0, true)
	assert.Equal(t, out[0], byte('{'))
	assert.Equal(t, out[len(out)-1], byte('}'))
	for _, field := range []string{"commits_per_sec", "aborts_per_sec", "user_aborts", "p50", "p90", "p99"} {
		assert.Equal(t, strings.Contains(out, `"`+field+`"`), true)
	}
}
