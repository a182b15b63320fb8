// Package riskguard gates execution behind process-wide exposure and
// failure counters. State is mutated only by the execution coordinator
// at execution boundaries, under a single lock.
package riskguard

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/alex77palex/arbitrage-bot/pkg/types"
)

// Guard enforces the global exposure ceiling and a cool-down window
// after a run of failed executions.
type Guard struct {
	config Config
	logger *zap.Logger

	mu             sync.Mutex
	openExposure   decimal.Decimal
	openByEvent    map[string]decimal.Decimal
	recentFailures []time.Time
	cooldownUntil  time.Time
	now            func() time.Time
}

// Config holds risk guard configuration.
type Config struct {
	// ExposureCeiling is the maximum total stake allowed in flight or
	// unsettled at once.
	ExposureCeiling decimal.Decimal
	// CooldownThreshold is the number of recent bad outcomes
	// (full_failure or partial_success) that triggers a cool-down.
	CooldownThreshold int
	// CooldownDuration is both the rolling window for counting bad
	// outcomes and the length of the cool-down itself.
	CooldownDuration time.Duration
	Logger           *zap.Logger
}

// New creates a new risk guard.
func New(cfg Config) *Guard {
	return &Guard{
		config:       cfg,
		logger:       cfg.Logger,
		openExposure: decimal.Zero,
		openByEvent:  make(map[string]decimal.Decimal),
		now:          time.Now,
	}
}

// Allow reports whether a plan may execute. It returns a
// *types.RiskBlockedError naming the violated constraint, or nil.
func (g *Guard) Allow(plan *types.StakePlan) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()

	if now.Before(g.cooldownUntil) {
		BlockedTotal.WithLabelValues("cooldown").Inc()
		g.logger.Warn("plan-blocked-by-cooldown",
			zap.String("plan-id", plan.ID),
			zap.Time("cooldown-until", g.cooldownUntil))
		return &types.RiskBlockedError{Reason: "cooldown"}
	}

	if g.openExposure.Add(plan.TotalStake).GreaterThan(g.config.ExposureCeiling) {
		BlockedTotal.WithLabelValues("exposure_ceiling").Inc()
		g.logger.Warn("plan-blocked-by-exposure",
			zap.String("plan-id", plan.ID),
			zap.String("open-exposure", g.openExposure.String()),
			zap.String("plan-stake", plan.TotalStake.String()),
			zap.String("ceiling", g.config.ExposureCeiling.String()))
		return &types.RiskBlockedError{Reason: "exposure_ceiling"}
	}

	return nil
}

// Enter reserves the plan's total stake against the exposure ceiling.
// Called by the coordinator after Allow, before any leg is submitted.
func (g *Guard) Enter(plan *types.StakePlan) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.openExposure = g.openExposure.Add(plan.TotalStake)
	g.adjustEvent(plan.Opportunity.EventID, plan.TotalStake)
	OpenExposure.Set(g.openExposure.InexactFloat64())
}

// Settle replaces the plan's reservation with the stake that actually
// reached venues, and counts bad outcomes toward the cool-down window.
func (g *Guard) Settle(plan *types.StakePlan, record *types.ExecutionRecord) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.openExposure = g.openExposure.Sub(plan.TotalStake).Add(record.RealizedStake)
	if g.openExposure.IsNegative() {
		g.openExposure = decimal.Zero
	}
	g.adjustEvent(record.EventID, record.RealizedStake.Sub(plan.TotalStake))
	OpenExposure.Set(g.openExposure.InexactFloat64())

	if record.Outcome == types.OutcomeFullSuccess {
		return
	}

	now := g.now()
	g.recentFailures = append(g.recentFailures, now)

	// Trim the rolling window.
	cutoff := now.Add(-g.config.CooldownDuration)
	kept := g.recentFailures[:0]
	for _, t := range g.recentFailures {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	g.recentFailures = kept

	if len(g.recentFailures) >= g.config.CooldownThreshold {
		g.cooldownUntil = now.Add(g.config.CooldownDuration)
		g.recentFailures = g.recentFailures[:0]
		CooldownsTotal.Inc()
		g.logger.Warn("cooldown-engaged",
			zap.Time("until", g.cooldownUntil),
			zap.Int("threshold", g.config.CooldownThreshold))
	}
}

// ReleaseEvent frees the exposure held against one event once its
// markets settle and the stakes are no longer at risk. Called from the
// settlement endpoint, not the execution path. Returns the amount
// freed, zero when the event holds nothing.
func (g *Guard) ReleaseEvent(eventID string) decimal.Decimal {
	g.mu.Lock()
	defer g.mu.Unlock()

	amount, ok := g.openByEvent[eventID]
	if !ok {
		return decimal.Zero
	}
	delete(g.openByEvent, eventID)

	g.openExposure = g.openExposure.Sub(amount)
	if g.openExposure.IsNegative() {
		g.openExposure = decimal.Zero
	}
	OpenExposure.Set(g.openExposure.InexactFloat64())

	g.logger.Info("event-exposure-released",
		zap.String("event-id", eventID),
		zap.String("amount", amount.StringFixed(2)),
		zap.String("open-exposure", g.openExposure.StringFixed(2)))
	return amount
}

// adjustEvent shifts one event's share of the open exposure. Callers
// hold g.mu.
func (g *Guard) adjustEvent(eventID string, delta decimal.Decimal) {
	open := g.openByEvent[eventID].Add(delta)
	if open.IsPositive() {
		g.openByEvent[eventID] = open
		return
	}
	delete(g.openByEvent, eventID)
}

// OpenExposureValue returns the current open exposure.
func (g *Guard) OpenExposureValue() decimal.Decimal {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.openExposure
}
