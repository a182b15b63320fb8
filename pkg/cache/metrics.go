package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// LimitHitsTotal tracks limit cache hits.
	LimitHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "arbbot_limit_cache_hits_total",
		Help: "Total number of stake limit cache hits",
	})

	// LimitMissesTotal tracks limit cache misses.
	LimitMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "arbbot_limit_cache_misses_total",
		Help: "Total number of stake limit cache misses",
	})

	// LimitSetsTotal tracks limit cache writes.
	LimitSetsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "arbbot_limit_cache_sets_total",
		Help: "Total number of stake limit cache writes",
	})
)
