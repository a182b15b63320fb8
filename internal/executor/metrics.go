package executor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ExecutionsTotal counts settled executions by aggregate outcome.
	ExecutionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "arbbot_executions_total",
		Help: "Total number of settled plan executions by outcome",
	}, []string{"outcome"})

	// ExecutionDurationSeconds tracks the wall time of one plan
	// execution from risk gate to settlement.
	ExecutionDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "arbbot_execution_duration_seconds",
		Help:    "Duration of plan executions in seconds",
		Buckets: prometheus.DefBuckets,
	})

	// LegFailuresTotal counts failed legs by error code.
	LegFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "arbbot_leg_failures_total",
		Help: "Total number of failed bet legs by error code",
	}, []string{"code"})

	// CompensationsTotal counts compensating-order attempts by result.
	CompensationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "arbbot_compensations_total",
		Help: "Total number of compensating orders by result",
	}, []string{"result"})

	// StaleOpportunitiesTotal counts opportunities dropped because a
	// leg quote was superseded before execution started.
	StaleOpportunitiesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "arbbot_stale_opportunities_total",
		Help: "Total number of opportunities skipped as stale before execution",
	})

	// LateResolutionsTotal counts legs that resolved inside the grace
	// window after being marked timed out.
	LateResolutionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "arbbot_late_leg_resolutions_total",
		Help: "Total number of legs that resolved after their timeout",
	})

	// ProfitRealizedTotal accumulates realized profit from fully
	// successful executions.
	ProfitRealizedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "arbbot_profit_realized_total",
		Help: "Cumulative realized profit from fully successful executions",
	})
)
