// Package executor places the legs of a stake plan across venues and
// settles the aggregate result. There is no cross-venue atomicity;
// what the coordinator guarantees instead is that partial execution is
// detected, bounded by the compensating-order policy, and reported.
package executor

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/alex77palex/arbitrage-bot/internal/allocator"
	"github.com/alex77palex/arbitrage-bot/internal/notify"
	"github.com/alex77palex/arbitrage-bot/internal/riskguard"
	"github.com/alex77palex/arbitrage-bot/internal/snapshot"
	"github.com/alex77palex/arbitrage-bot/internal/storage"
	"github.com/alex77palex/arbitrage-bot/internal/venue"
	"github.com/alex77palex/arbitrage-bot/pkg/types"
)

// Coordinator consumes detected opportunities, allocates stakes and
// executes plans. Each plan's attempts are private to one coordination
// run; the only shared state it mutates is the risk guard's counters.
type Coordinator struct {
	config    Config
	clients   map[string]venue.Client
	allocator *allocator.Allocator
	guard     *riskguard.Guard
	store     *snapshot.Store
	storage   storage.Storage
	notifier  notify.Notifier
	logger    *zap.Logger

	opportunities <-chan *types.ArbitrageOpportunity

	ctx context.Context
	wg  sync.WaitGroup

	mu               sync.Mutex
	cumulativeProfit decimal.Decimal
}

// Config holds coordinator configuration.
type Config struct {
	// LegTimeout bounds how long the coordinator waits for each leg
	// before marking it timed_out for aggregation.
	LegTimeout time.Duration
	// LegGrace extends the placement call's own deadline past
	// LegTimeout, so a late acknowledgement can still be reconciled
	// before compensation decisions are made.
	LegGrace       time.Duration
	MaxPerLegStake decimal.Decimal
	Logger         *zap.Logger
}

// New creates a new execution coordinator.
func New(
	cfg Config,
	clients []venue.Client,
	alloc *allocator.Allocator,
	guard *riskguard.Guard,
	store *snapshot.Store,
	sink storage.Storage,
	notifier notify.Notifier,
	opportunities <-chan *types.ArbitrageOpportunity,
) *Coordinator {
	byName := make(map[string]venue.Client, len(clients))
	for _, c := range clients {
		byName[c.Name()] = c
	}

	if cfg.LegGrace <= 0 {
		cfg.LegGrace = cfg.LegTimeout / 2
	}

	return &Coordinator{
		config:           cfg,
		clients:          byName,
		allocator:        alloc,
		guard:            guard,
		store:            store,
		storage:          sink,
		notifier:         notifier,
		logger:           cfg.Logger,
		opportunities:    opportunities,
		cumulativeProfit: decimal.Zero,
	}
}

// Start starts the coordination loop.
func (c *Coordinator) Start(ctx context.Context) error {
	c.ctx = ctx
	c.logger.Info("coordinator-starting", zap.Duration("leg-timeout", c.config.LegTimeout))

	c.wg.Add(1)
	go c.coordinationLoop()

	return nil
}

func (c *Coordinator) coordinationLoop() {
	defer c.wg.Done()

	for {
		select {
		case <-c.ctx.Done():
			c.logger.Info("coordinator-stopping")
			return
		case opp, ok := <-c.opportunities:
			if !ok {
				c.logger.Info("opportunity-channel-closed")
				return
			}
			c.handle(opp)
		}
	}
}

// handle takes one opportunity from freshness check through settlement.
func (c *Coordinator) handle(opp *types.ArbitrageOpportunity) {
	// An opportunity superseded while it sat in the channel is
	// discarded; the superseding update already triggered re-detection.
	if !c.store.Fresh(opp) {
		StaleOpportunitiesTotal.Inc()
		c.logger.Debug("opportunity-stale", zap.String("opportunity-id", opp.ID))
		return
	}

	err := c.storage.StoreOpportunity(c.ctx, opp)
	if err != nil {
		c.logger.Error("failed-to-store-opportunity",
			zap.String("opportunity-id", opp.ID),
			zap.Error(err))
	}
	c.notifier.Notify(c.ctx, notify.OpportunityFound, opp)

	plan, err := c.allocator.Build(opp)
	if err != nil {
		var rejected *types.AllocationRejectedError
		if errors.As(err, &rejected) {
			c.logger.Debug("plan-not-viable", zap.String("opportunity-id", opp.ID), zap.Error(err))
		} else {
			c.logger.Warn("allocation-error", zap.String("opportunity-id", opp.ID), zap.Error(err))
		}
		return
	}

	start := time.Now()
	record := c.execute(plan)
	ExecutionDurationSeconds.Observe(time.Since(start).Seconds())

	ExecutionsTotal.WithLabelValues(string(record.Outcome)).Inc()

	c.settleRecord(plan, record)
}

// execute runs the plan state machine: planned -> executing -> settled.
func (c *Coordinator) execute(plan *types.StakePlan) *types.ExecutionRecord {
	startedAt := time.Now()

	// The risk gate runs before any leg submission; a blocked plan
	// never reaches a venue.
	err := c.guard.Allow(plan)
	if err != nil {
		var blocked *types.RiskBlockedError
		reason := "risk_blocked"
		if errors.As(err, &blocked) {
			c.logger.Warn("execution-risk-blocked",
				zap.String("plan-id", plan.ID),
				zap.String("reason", blocked.Reason))
		}
		return c.buildRecord(plan, nil, types.OutcomeFullFailure, reason, startedAt)
	}

	c.guard.Enter(plan)

	attempts := c.placeLegs(plan)

	confirmed := 0
	for _, attempt := range attempts {
		if attempt.State == types.AttemptConfirmed {
			confirmed++
		}
	}

	var outcome types.ExecutionOutcome
	switch confirmed {
	case len(attempts):
		outcome = types.OutcomeFullSuccess
	case 0:
		// No exposure taken; nothing to recover.
		outcome = types.OutcomeFullFailure
	default:
		outcome = types.OutcomePartialSuccess
		attempts = append(attempts, c.compensate(plan, attempts)...)
	}

	record := c.buildRecord(plan, attempts, outcome, "", startedAt)
	c.guard.Settle(plan, record)

	return record
}

// placeLegs submits every leg concurrently and blocks until each has
// reached a terminal state or its timeout. This is the one deliberate
// synchronization barrier in the system.
func (c *Coordinator) placeLegs(plan *types.StakePlan) []*types.ExecutionAttempt {
	results := make([]chan *types.ExecutionAttempt, len(plan.Legs))

	for i, leg := range plan.Legs {
		results[i] = make(chan *types.ExecutionAttempt, 1)
		go c.placeLeg(leg, false, results[i])
	}

	deadline := time.NewTimer(c.config.LegTimeout)
	defer deadline.Stop()

	attempts := make([]*types.ExecutionAttempt, len(plan.Legs))
	for i, leg := range plan.Legs {
		select {
		case attempt := <-results[i]:
			attempts[i] = attempt
		case <-deadline.C:
			// Mark timed out, but keep the channel: the placement call
			// has a grace period and may still resolve late.
			attempts[i] = &types.ExecutionAttempt{
				Leg:       leg,
				State:     types.AttemptTimedOut,
				SettledAt: time.Now(),
				Err: &types.LegError{
					Venue:   leg.Venue,
					Outcome: leg.Outcome,
					Code:    types.ErrNetworkError,
					Message: "no response within leg timeout",
				},
			}
			LegFailuresTotal.WithLabelValues("timed_out").Inc()
			c.collectRemaining(plan, results, attempts, i+1)
			c.reconcileLate(results, attempts)
			return attempts
		}

		if attempts[i].State != types.AttemptConfirmed {
			LegFailuresTotal.WithLabelValues(types.LegErrorCode(attempts[i].Err)).Inc()
		}
	}

	return attempts
}

// collectRemaining drains the legs after the shared deadline fired:
// whatever already finished is taken as-is, the rest are timed out.
func (c *Coordinator) collectRemaining(
	plan *types.StakePlan,
	results []chan *types.ExecutionAttempt,
	attempts []*types.ExecutionAttempt,
	from int,
) {
	for i := from; i < len(results); i++ {
		select {
		case attempt := <-results[i]:
			attempts[i] = attempt
			if attempt.State != types.AttemptConfirmed {
				LegFailuresTotal.WithLabelValues(types.LegErrorCode(attempt.Err)).Inc()
			}
		default:
			leg := plan.Legs[i]
			attempts[i] = &types.ExecutionAttempt{
				Leg:       leg,
				State:     types.AttemptTimedOut,
				SettledAt: time.Now(),
				Err: &types.LegError{
					Venue:   leg.Venue,
					Outcome: leg.Outcome,
					Code:    types.ErrNetworkError,
					Message: "no response within leg timeout",
				},
			}
			LegFailuresTotal.WithLabelValues("timed_out").Inc()
		}
	}
}

// reconcileLate waits out the rest of the grace window for legs the
// barrier marked timed_out, before any recovery decision is made. The
// placement calls run with a LegTimeout+LegGrace deadline, so every
// result channel resolves within the wait; a confirmation that lands
// here replaces the synthetic timeout. Without the wait, a bet the
// venue accepted just after the barrier would be hedged against and
// recorded as timed_out with no realized stake.
func (c *Coordinator) reconcileLate(results []chan *types.ExecutionAttempt, attempts []*types.ExecutionAttempt) {
	grace := time.NewTimer(c.config.LegGrace)
	defer grace.Stop()

	graceOver := false
	for i, attempt := range attempts {
		if attempt.State != types.AttemptTimedOut {
			continue
		}

		var late *types.ExecutionAttempt
		if graceOver {
			select {
			case late = <-results[i]:
			default:
			}
		} else {
			select {
			case late = <-results[i]:
			case <-grace.C:
				graceOver = true
				select {
				case late = <-results[i]:
				default:
				}
			}
		}
		if late == nil {
			continue
		}

		attempts[i] = late
		LateResolutionsTotal.Inc()
		c.logger.Info("late-leg-resolution",
			zap.String("venue", late.Leg.Venue),
			zap.String("outcome", late.Leg.Outcome),
			zap.String("state", string(late.State)))
	}
}

// placeLeg runs one placement against its venue and reports a terminal
// attempt. The call's own deadline includes the grace window.
func (c *Coordinator) placeLeg(leg types.PlanLeg, compensation bool, out chan<- *types.ExecutionAttempt) {
	attempt := &types.ExecutionAttempt{
		Leg:          leg,
		State:        types.AttemptPending,
		PlacedAt:     time.Now(),
		Compensation: compensation,
	}

	client, ok := c.clients[leg.Venue]
	if !ok {
		attempt.State = types.AttemptRejected
		attempt.Err = &types.LegError{
			Venue:   leg.Venue,
			Outcome: leg.Outcome,
			Code:    types.ErrRejectedOther,
			Message: "no client for venue",
		}
		attempt.SettledAt = time.Now()
		out <- attempt
		return
	}

	ctx, cancel := context.WithTimeout(c.ctx, c.config.LegTimeout+c.config.LegGrace)
	defer cancel()

	result, err := client.PlaceBet(ctx, venue.PlaceBetRequest{
		MarketID:     leg.Quote.MarketID,
		Outcome:      leg.Outcome,
		Stake:        leg.Stake,
		ExpectedOdds: leg.Quote.Odds,
	})

	attempt.SettledAt = time.Now()

	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			attempt.State = types.AttemptTimedOut
		} else {
			attempt.State = types.AttemptRejected
		}
		attempt.Err = err
		out <- attempt
		return
	}

	attempt.State = types.AttemptConfirmed
	attempt.BetID = result.BetID
	attempt.RealizedStake = result.RealizedStake
	out <- attempt
}

// compensate restores as much of the risk-free property as currently
// available odds allow after a partial execution. It is a
// loss-minimization fallback, not a second arbitrage attempt: the
// minimum-profit-margin check deliberately does not apply here.
func (c *Coordinator) compensate(plan *types.StakePlan, attempts []*types.ExecutionAttempt) []*types.ExecutionAttempt {
	// Worst covered payout: the amount a compensating leg must return
	// if its outcome wins.
	targetPayout := decimal.Zero
	covered := make(map[string]bool)
	failedVenueByOutcome := make(map[string]string)

	for _, attempt := range attempts {
		if attempt.State == types.AttemptConfirmed {
			covered[attempt.Leg.Outcome] = true
			payout := attempt.RealizedStake.Mul(attempt.Leg.Quote.Odds)
			if targetPayout.IsZero() || payout.LessThan(targetPayout) {
				targetPayout = payout
			}
		} else {
			failedVenueByOutcome[attempt.Leg.Outcome] = attempt.Leg.Venue
		}
	}

	var extra []*types.ExecutionAttempt

	for _, leg := range plan.Legs {
		if covered[leg.Outcome] {
			continue
		}

		attempt, err := c.compensateOutcome(plan, leg.Outcome, failedVenueByOutcome[leg.Outcome], targetPayout)
		if err != nil {
			CompensationsTotal.WithLabelValues("unavailable").Inc()
			c.logger.Error("recovery-unavailable",
				zap.String("plan-id", plan.ID),
				zap.String("outcome", leg.Outcome),
				zap.Error(err))
			c.notifier.Notify(c.ctx, notify.ExposureWarning, err.Error())
			continue
		}

		extra = append(extra, attempt)
		if attempt.State == types.AttemptConfirmed {
			CompensationsTotal.WithLabelValues("placed").Inc()
		} else {
			CompensationsTotal.WithLabelValues("failed").Inc()
		}
	}

	return extra
}

// compensateOutcome places one compensating order for an uncovered
// outcome at the best currently available odds. The venue whose leg
// just failed is excluded: its rejection usually means the quoted
// price no longer exists, and blind resubmission is never done.
func (c *Coordinator) compensateOutcome(
	plan *types.StakePlan,
	outcome string,
	excludeVenue string,
	targetPayout decimal.Decimal,
) (*types.ExecutionAttempt, error) {
	quotes := c.store.Market(plan.Opportunity.MarketID)

	var best types.OddsQuote
	found := false
	for key, quote := range quotes {
		if key.Outcome != outcome || key.Venue == excludeVenue {
			continue
		}
		if !found || quote.Odds.GreaterThan(best.Odds) {
			best = quote
			found = true
		}
	}

	if !found {
		return nil, &types.RecoveryUnavailableError{
			MarketID: plan.Opportunity.MarketID,
			Outcome:  outcome,
			Reason:   "no live quote from any other venue",
		}
	}

	stake := targetPayout.Div(best.Odds).RoundDown(2)

	stakeCap := c.config.MaxPerLegStake
	if best.MaxStake.IsPositive() && best.MaxStake.LessThan(stakeCap) {
		stakeCap = best.MaxStake
	}
	if stake.GreaterThan(stakeCap) {
		return nil, &types.RecoveryUnavailableError{
			MarketID: plan.Opportunity.MarketID,
			Outcome:  outcome,
			Reason:   "required stake " + stake.StringFixed(2) + " exceeds cap " + stakeCap.StringFixed(2),
		}
	}
	if !stake.IsPositive() {
		return nil, &types.RecoveryUnavailableError{
			MarketID: plan.Opportunity.MarketID,
			Outcome:  outcome,
			Reason:   "no covered payout to hedge",
		}
	}

	version, _ := c.store.Version(best.Key())
	leg := types.PlanLeg{
		OpportunityLeg: types.OpportunityLeg{
			Venue:        best.Venue,
			Outcome:      outcome,
			Quote:        best,
			QuoteVersion: version,
		},
		Stake:  stake,
		Payout: stake.Mul(best.Odds),
	}

	c.logger.Info("placing-compensating-order",
		zap.String("plan-id", plan.ID),
		zap.String("venue", best.Venue),
		zap.String("outcome", outcome),
		zap.String("stake", stake.String()),
		zap.String("odds", best.Odds.String()))

	resultCh := make(chan *types.ExecutionAttempt, 1)
	go c.placeLeg(leg, true, resultCh)

	select {
	case attempt := <-resultCh:
		if attempt.State != types.AttemptConfirmed {
			return attempt, &types.RecoveryUnavailableError{
				MarketID: plan.Opportunity.MarketID,
				Outcome:  outcome,
				Reason:   "compensating order failed: " + types.LegErrorCode(attempt.Err),
			}
		}
		return attempt, nil
	case <-time.After(c.config.LegTimeout + c.config.LegGrace):
		return nil, &types.RecoveryUnavailableError{
			MarketID: plan.Opportunity.MarketID,
			Outcome:  outcome,
			Reason:   "compensating order timed out",
		}
	}
}

// buildRecord assembles the terminal audit record for a plan.
func (c *Coordinator) buildRecord(
	plan *types.StakePlan,
	attempts []*types.ExecutionAttempt,
	outcome types.ExecutionOutcome,
	reason string,
	startedAt time.Time,
) *types.ExecutionRecord {
	record := &types.ExecutionRecord{
		ID:               uuid.New().String(),
		PlanID:           plan.ID,
		EventID:          plan.Opportunity.EventID,
		MarketID:         plan.Opportunity.MarketID,
		Outcome:          outcome,
		Reason:           reason,
		GuaranteedProfit: plan.GuaranteedProfit,
		TotalStake:       plan.TotalStake,
		RealizedStake:    decimal.Zero,
		RealizedProfit:   decimal.Zero,
		StartedAt:        startedAt,
		SettledAt:        time.Now(),
	}

	if len(attempts) == 0 {
		return record
	}

	// Payout per outcome over confirmed legs; worst case is the profit.
	payoutByOutcome := make(map[string]decimal.Decimal, len(plan.Legs))
	for _, leg := range plan.Legs {
		payoutByOutcome[leg.Outcome] = decimal.Zero
	}

	for _, attempt := range attempts {
		errCode := ""
		if attempt.Err != nil {
			errCode = types.LegErrorCode(attempt.Err)
		}
		record.Legs = append(record.Legs, types.LegRecord{
			Venue:         attempt.Leg.Venue,
			Outcome:       attempt.Leg.Outcome,
			PlannedStake:  attempt.Leg.Stake,
			RealizedStake: attempt.RealizedStake,
			Odds:          attempt.Leg.Quote.Odds,
			State:         attempt.State,
			ErrorCode:     errCode,
			Compensation:  attempt.Compensation,
		})

		if attempt.State == types.AttemptConfirmed {
			record.RealizedStake = record.RealizedStake.Add(attempt.RealizedStake)
			payout := attempt.RealizedStake.Mul(attempt.Leg.Quote.Odds)
			payoutByOutcome[attempt.Leg.Outcome] = payoutByOutcome[attempt.Leg.Outcome].Add(payout)
		}
	}

	if record.RealizedStake.IsPositive() {
		worst := decimal.Zero
		first := true
		for _, payout := range payoutByOutcome {
			if first || payout.LessThan(worst) {
				worst = payout
				first = false
			}
		}
		record.RealizedProfit = worst.Sub(record.RealizedStake)
		record.Exposed = record.RealizedProfit.IsNegative()
	}

	return record
}

// settleRecord hands the settled record to the audit and alerting
// collaborators and keeps the running profit figure.
func (c *Coordinator) settleRecord(plan *types.StakePlan, record *types.ExecutionRecord) {
	err := c.storage.StoreExecution(c.ctx, record)
	if err != nil {
		c.logger.Error("failed-to-store-execution",
			zap.String("record-id", record.ID),
			zap.Error(err))
	}

	c.notifier.Notify(c.ctx, notify.ExecutionSettled, record)

	if record.Outcome == types.OutcomeFullSuccess {
		ProfitRealizedTotal.Add(record.RealizedProfit.InexactFloat64())

		c.mu.Lock()
		c.cumulativeProfit = c.cumulativeProfit.Add(record.RealizedProfit)
		cumulative := c.cumulativeProfit
		c.mu.Unlock()

		c.logger.Info("execution-settled",
			zap.String("plan-id", plan.ID),
			zap.String("market-id", record.MarketID),
			zap.String("outcome", string(record.Outcome)),
			zap.String("profit", record.RealizedProfit.StringFixed(2)),
			zap.String("cumulative-profit", cumulative.StringFixed(2)))
		return
	}

	c.logger.Warn("execution-settled",
		zap.String("plan-id", plan.ID),
		zap.String("market-id", record.MarketID),
		zap.String("outcome", string(record.Outcome)),
		zap.String("reason", record.Reason),
		zap.Bool("exposed", record.Exposed),
		zap.String("worst-case", record.RealizedProfit.StringFixed(2)))
}

// Close waits for the in-flight coordination run to finish, so the
// final record reaches the audit collaborator before shutdown.
func (c *Coordinator) Close() error {
	c.wg.Wait()

	c.mu.Lock()
	final := c.cumulativeProfit
	c.mu.Unlock()

	c.logger.Info("coordinator-closed", zap.String("total-profit", final.StringFixed(2)))
	return nil
}
