package detector

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// OpportunitiesDetectedTotal tracks opportunities detected.
	OpportunitiesDetectedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "arbbot_opportunities_detected_total",
		Help: "Total number of arbitrage opportunities detected",
	})

	// OpportunitiesDroppedTotal tracks opportunities lost to a full channel.
	OpportunitiesDroppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "arbbot_opportunities_dropped_total",
		Help: "Total number of opportunities dropped due to backpressure",
	})

	// RejectedTotal tracks markets that yielded no opportunity, by reason.
	RejectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "arbbot_detection_rejected_total",
			Help: "Total number of detection cycles that produced no opportunity",
		},
		[]string{"reason"},
	)

	// OpportunityMarginBPS tracks detected margins in basis points.
	OpportunityMarginBPS = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "arbbot_opportunity_margin_bps",
		Help:    "Arbitrage opportunity margin in basis points",
		Buckets: []float64{10, 25, 50, 100, 200, 500, 1000, 2000, 5000},
	})

	// DetectionDurationSeconds tracks detection cycle latency.
	DetectionDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "arbbot_detection_duration_seconds",
		Help:    "Duration of one detection cycle",
		Buckets: prometheus.DefBuckets,
	})
)
