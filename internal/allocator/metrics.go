package allocator

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PlansBuiltTotal tracks accepted stake plans.
	PlansBuiltTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "arbbot_stake_plans_built_total",
		Help: "Total number of stake plans built",
	})

	// AllocationsRejectedTotal tracks rejected allocations by reason.
	AllocationsRejectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "arbbot_allocations_rejected_total",
			Help: "Total number of allocations rejected",
		},
		[]string{"reason"},
	)

	// PlanStake tracks total stakes of accepted plans.
	PlanStake = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "arbbot_plan_total_stake",
		Help:    "Total stake of accepted plans",
		Buckets: prometheus.ExponentialBuckets(10, 2, 10),
	})
)
