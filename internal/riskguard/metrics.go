package riskguard

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// BlockedTotal tracks plans the guard refused, by reason.
	BlockedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "arbbot_risk_blocked_total",
			Help: "Total number of plans blocked by the risk guard",
		},
		[]string{"reason"},
	)

	// OpenExposure tracks the current open exposure.
	OpenExposure = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "arbbot_risk_open_exposure",
		Help: "Current open exposure reserved against the ceiling",
	})

	// CooldownsTotal tracks cool-down activations.
	CooldownsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "arbbot_risk_cooldowns_total",
		Help: "Total number of cool-down windows engaged",
	})
)
