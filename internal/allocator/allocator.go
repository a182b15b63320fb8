// Package allocator turns an arbitrage opportunity into a stake plan
// that maximizes the guaranteed worst-case profit under capital and
// per-leg constraints. All arithmetic is exact decimal so a plan near
// the margin threshold is never misclassified by float rounding.
package allocator

import (
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/alex77palex/arbitrage-bot/pkg/cache"
	"github.com/alex77palex/arbitrage-bot/pkg/types"
)

// Allocator computes stake plans.
type Allocator struct {
	config Config
	limits *cache.LimitCache
	logger *zap.Logger
}

// Config holds allocation constraints.
type Config struct {
	MinProfitMargin decimal.Decimal
	MaxTotalStake   decimal.Decimal
	MaxPerLegStake  decimal.Decimal
	Logger          *zap.Logger
}

// New creates a new stake allocator. The limit cache supplies
// last-known venue stake limits when a quote did not carry one;
// allocation never does a live venue call.
func New(cfg Config, limits *cache.LimitCache) *Allocator {
	return &Allocator{
		config: cfg,
		limits: limits,
		logger: cfg.Logger,
	}
}

// Build computes the stake plan for an opportunity.
//
// Stakes are proportional to implied probability, which equalizes the
// payout across outcomes; the total is scaled to the largest value that
// keeps every leg within MaxPerLegStake and its venue's limit, capped
// at MaxTotalStake. The profit margin is recomputed after capping and
// rounding: a cap on the largest-required leg lowers the achievable
// total disproportionately, so the raw margin of the odds cannot be
// trusted here.
func (a *Allocator) Build(opp *types.ArbitrageOpportunity) (*types.StakePlan, error) {
	one := decimal.NewFromInt(1)

	invSum := opp.Overround
	if !invSum.IsPositive() {
		return nil, &types.DataError{MarketID: opp.MarketID, Reason: "degenerate overround"}
	}

	// Per-leg weights: stake_i / total = (1/o_i) / sum(1/o_j).
	weights := make([]decimal.Decimal, len(opp.Legs))
	for i, leg := range opp.Legs {
		weights[i] = leg.Quote.ImpliedProbability().Div(invSum)
	}

	// Scale the total down until every leg fits its cap.
	total := a.config.MaxTotalStake
	for i, leg := range opp.Legs {
		stakeCap := a.legCap(leg)
		// Largest total for which stake_i = total * weight_i <= cap.
		maxTotal := stakeCap.Div(weights[i])
		if maxTotal.LessThan(total) {
			total = maxTotal
		}
	}

	if !total.IsPositive() {
		AllocationsRejectedTotal.WithLabelValues("zero_total").Inc()
		return nil, &types.AllocationRejectedError{
			MarketID:  opp.MarketID,
			Margin:    decimal.Zero.Sub(one),
			MinMargin: a.config.MinProfitMargin,
		}
	}

	legs := make([]types.PlanLeg, len(opp.Legs))
	for i, leg := range opp.Legs {
		stake := total.Mul(weights[i]).RoundDown(2)
		legs[i] = types.PlanLeg{
			OpportunityLeg: leg,
			Stake:          stake,
			Payout:         stake.Mul(leg.Quote.Odds),
		}
	}

	plan := types.NewStakePlan(opp, legs)

	// The achievable margin after capping and rounding, not the raw
	// margin of the odds, decides acceptance.
	if plan.Margin.LessThan(a.config.MinProfitMargin) {
		AllocationsRejectedTotal.WithLabelValues("margin_below_minimum").Inc()
		a.logger.Debug("allocation-rejected",
			zap.String("market-id", opp.MarketID),
			zap.String("achievable-margin", plan.Margin.StringFixed(4)),
			zap.String("raw-margin", opp.Margin.StringFixed(4)))
		return nil, &types.AllocationRejectedError{
			MarketID:  opp.MarketID,
			Margin:    plan.Margin,
			MinMargin: a.config.MinProfitMargin,
		}
	}

	PlansBuiltTotal.Inc()
	PlanStake.Observe(plan.TotalStake.InexactFloat64())

	return plan, nil
}

// legCap returns the maximum stake one leg may carry: the configured
// per-leg ceiling, further reduced by the venue's own limit when known.
func (a *Allocator) legCap(leg types.OpportunityLeg) decimal.Decimal {
	stakeCap := a.config.MaxPerLegStake

	venueLimit := leg.Quote.MaxStake
	if !venueLimit.IsPositive() && a.limits != nil {
		if cached, ok := a.limits.Limit(leg.Venue, leg.Quote.MarketID, leg.Outcome); ok {
			venueLimit = cached
		}
	}

	if venueLimit.IsPositive() && venueLimit.LessThan(stakeCap) {
		stakeCap = venueLimit
	}

	return stakeCap
}
