package cache

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorsExportCacheStats(t *testing.T) {
	c := NewLRUCache[int](1, time.Minute)
	c.Set("a", 1)
	c.Get("a")
	c.Get("missing")
	c.Set("b", 2)

	reg := prometheus.NewRegistry()
	require.NoError(t, registerAll(reg, Collectors("sessions", c)))

	expected := `
# HELP cache_evictions_total Entries evicted to stay under the size limit.
# TYPE cache_evictions_total counter
cache_evictions_total{cache="sessions"} 1
# HELP cache_hits_total Lookups served from memory.
# TYPE cache_hits_total counter
cache_hits_total{cache="sessions"} 1
# HELP cache_misses_total Lookups that fell through to the backing store.
# TYPE cache_misses_total counter
cache_misses_total{cache="sessions"} 1
# HELP cache_size Entries currently held in memory.
# TYPE cache_size gauge
cache_size{cache="sessions"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected)))
}

func TestManagerCountsSweptEntries(t *testing.T) {
	c := NewLRUCache[int](4, time.Minute)
	c.SetUntil("old", 1, time.Now().Add(-time.Second))
	c.SetUntil("older", 2, time.Now().Add(-time.Minute))

	m := NewManager()
	m.Register("sessions", c)
	m.Sweep()
	m.Sweep()

	assert.Equal(t, float64(2), testutil.ToFloat64(m.swept.WithLabelValues("sessions")))
}

func registerAll(reg *prometheus.Registry, cs []prometheus.Collector) error {
	for _, c := range cs {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}
