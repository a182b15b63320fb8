package feed

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// UpdatesAppliedTotal tracks quotes accepted into the store per venue.
	UpdatesAppliedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "arbbot_feed_updates_applied_total",
			Help: "Total number of odds updates applied to the snapshot store",
		},
		[]string{"venue"},
	)

	// UpdatesDroppedTotal tracks dropped updates per venue and reason.
	UpdatesDroppedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "arbbot_feed_updates_dropped_total",
			Help: "Total number of odds updates dropped",
		},
		[]string{"venue", "reason"},
	)

	// ChangesDroppedTotal tracks change notifications lost to a full buffer.
	ChangesDroppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "arbbot_feed_changes_dropped_total",
		Help: "Total number of change notifications dropped due to backpressure",
	})

	// StreamFailuresTotal tracks venue streams that could not be opened.
	StreamFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "arbbot_feed_stream_failures_total",
			Help: "Total number of venue streams that failed to open",
		},
		[]string{"venue"},
	)
)
