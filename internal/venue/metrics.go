package venue

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// QuotesReceivedTotal tracks quote frames received per venue.
	QuotesReceivedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "arbbot_venue_quotes_received_total",
			Help: "Total number of odds quote frames received",
		},
		[]string{"venue"},
	)

	// FrameDecodeErrorsTotal tracks undecodable frames per venue.
	FrameDecodeErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "arbbot_venue_frame_decode_errors_total",
			Help: "Total number of quote frames that failed to decode",
		},
		[]string{"venue"},
	)

	// BetsPlacedTotal tracks accepted placements per venue.
	BetsPlacedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "arbbot_venue_bets_placed_total",
			Help: "Total number of bets accepted by venues",
		},
		[]string{"venue"},
	)

	// ReconnectAttemptsTotal tracks stream reconnection attempts.
	ReconnectAttemptsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "arbbot_venue_reconnect_attempts_total",
		Help: "Total number of venue stream reconnection attempts",
	})

	// ReconnectFailuresTotal tracks failed reconnection attempts.
	ReconnectFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "arbbot_venue_reconnect_failures_total",
		Help: "Total number of failed venue stream reconnection attempts",
	})
)
