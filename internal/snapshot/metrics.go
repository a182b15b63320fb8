package snapshot

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// QuotesStoredTotal tracks quotes accepted into the store.
	QuotesStoredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "arbbot_snapshot_quotes_stored_total",
		Help: "Total number of odds quotes accepted into the snapshot store",
	})

	// QuotesDroppedTotal tracks quotes dropped by reason.
	QuotesDroppedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "arbbot_snapshot_quotes_dropped_total",
			Help: "Total number of odds quotes dropped by the snapshot store",
		},
		[]string{"reason"},
	)

	// KeysTracked tracks the number of (venue, market, outcome) keys held.
	KeysTracked = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "arbbot_snapshot_keys_tracked",
		Help: "Number of quote keys currently tracked",
	})

	// LockWaitSeconds tracks write lock contention.
	LockWaitSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "arbbot_snapshot_lock_wait_seconds",
		Help:    "Time spent waiting for the snapshot store write lock",
		Buckets: []float64{0.000001, 0.00001, 0.0001, 0.001, 0.01, 0.1},
	})
)
