package cache

import "github.com/prometheus/client_golang/prometheus"

// StatsSource is a cache that reports its counters.
type StatsSource interface {
	Stats() Stats
}

// Collectors exports the counters of c as Prometheus metrics labeled
// cache=name.
func Collectors(name string, c StatsSource) []prometheus.Collector {
	labels := prometheus.Labels{"cache": name}
	return []prometheus.Collector{
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name:        "cache_hits_total",
			Help:        "Lookups served from memory.",
			ConstLabels: labels,
		}, func() float64 { return float64(c.Stats().Hits) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name:        "cache_misses_total",
			Help:        "Lookups that fell through to the backing store.",
			ConstLabels: labels,
		}, func() float64 { return float64(c.Stats().Misses) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name:        "cache_evictions_total",
			Help:        "Entries evicted to stay under the size limit.",
			ConstLabels: labels,
		}, func() float64 { return float64(c.Stats().Evictions) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name:        "cache_size",
			Help:        "Entries currently held in memory.",
			ConstLabels: labels,
		}, func() float64 { return float64(c.Stats().Size) }),
	}
}
