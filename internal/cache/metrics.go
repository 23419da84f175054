package cache

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Session cache metrics, labelled by ProviderConfig.Group
var (
	// LookupsTotal counts Get calls; result is "hit" or "miss".
	LookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_lookups_total",
			Help: "Total number of cache lookups, by result.",
		},
		[]string{"cache", "result"},
	)

	// WritesTotal counts Set and Delete calls; op is "set" or "delete".
	WritesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_writes_total",
			Help: "Total number of cache writes, by operation.",
		},
		[]string{"cache", "op"},
	)

	EvictionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_evictions_total",
			Help: "Total number of entries dropped by the provider before being deleted by a caller.",
		},
		[]string{"cache"},
	)
)

func init() {
	prometheus.MustRegister(LookupsTotal, WritesTotal, EvictionsTotal)
}

var (
	entriesMu     sync.Mutex
	entriesGauges = make(map[string]prometheus.GaugeFunc)
	// entriesReg is swapped for an isolated registry in tests
	entriesReg prometheus.Registerer = prometheus.DefaultRegisterer
)

// trackEntries exposes cache_entries for group, read from count at scrape time.
// A later call for the same group replaces the earlier gauge.
func trackEntries(group string, count func() int) {
	gauge := prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name:        "cache_entries",
			Help:        "Current number of live entries in the cache.",
			ConstLabels: prometheus.Labels{"cache": group},
		},
		func() float64 { return float64(count()) },
	)

	entriesMu.Lock()
	defer entriesMu.Unlock()
	if old, ok := entriesGauges[group]; ok {
		entriesReg.Unregister(old)
	}
	entriesGauges[group] = gauge
	_ = entriesReg.Register(gauge)
}

func untrackEntries(group string) {
	entriesMu.Lock()
	defer entriesMu.Unlock()
	if g, ok := entriesGauges[group]; ok {
		entriesReg.Unregister(g)
		delete(entriesGauges, group)
	}
}
