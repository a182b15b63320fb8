// Package detector evaluates market snapshots for risk-free cross-venue
// combinations. Detection is event-driven: every accepted quote change
// triggers a re-evaluation of its market, with an optional low
// frequency full rescan as a safety net.
package detector

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/alex77palex/arbitrage-bot/internal/feed"
	"github.com/alex77palex/arbitrage-bot/internal/snapshot"
	"github.com/alex77palex/arbitrage-bot/pkg/types"
)

// Detector detects arbitrage opportunities.
type Detector struct {
	store    *snapshot.Store
	registry *feed.Registry
	config   Config
	logger   *zap.Logger

	changes         <-chan string
	opportunityChan chan *types.ArbitrageOpportunity

	ctx context.Context
	wg  sync.WaitGroup
}

// Config holds detector configuration.
type Config struct {
	// MinProfitMargin is the minimum edge: an opportunity exists only
	// when the aggregate implied probability is strictly below
	// 1 - MinProfitMargin.
	MinProfitMargin decimal.Decimal
	// VenueRank breaks ties between venues offering identical best
	// odds; lower is more reliable.
	VenueRank func(venue string) int
	// RescanInterval re-evaluates every market periodically; 0 disables.
	RescanInterval time.Duration
	Logger         *zap.Logger
}

// New creates a new opportunity detector.
func New(cfg Config, store *snapshot.Store, registry *feed.Registry, changes <-chan string) *Detector {
	return &Detector{
		store:           store,
		registry:        registry,
		config:          cfg,
		logger:          cfg.Logger,
		changes:         changes,
		opportunityChan: make(chan *types.ArbitrageOpportunity, 50),
	}
}

// Start starts the detection loop.
func (d *Detector) Start(ctx context.Context) error {
	d.ctx = ctx
	d.logger.Info("detector-starting",
		zap.String("min-profit-margin", d.config.MinProfitMargin.String()),
		zap.Duration("rescan-interval", d.config.RescanInterval))

	d.wg.Add(1)
	go d.detectionLoop()

	return nil
}

// detectionLoop listens for snapshot changes and checks each changed
// market. Detection never runs on a timer alone; the rescan ticker is
// a safety net for notifications lost to backpressure.
func (d *Detector) detectionLoop() {
	defer d.wg.Done()

	var rescan <-chan time.Time
	if d.config.RescanInterval > 0 {
		ticker := time.NewTicker(d.config.RescanInterval)
		defer ticker.Stop()
		rescan = ticker.C
	}

	for {
		select {
		case <-d.ctx.Done():
			d.logger.Info("detector-stopping")
			close(d.opportunityChan)
			return
		case marketID, ok := <-d.changes:
			if !ok {
				close(d.opportunityChan)
				return
			}
			start := time.Now()
			d.check(marketID)
			DetectionDurationSeconds.Observe(time.Since(start).Seconds())
		case <-rescan:
			for _, marketID := range d.registry.MarketIDs() {
				d.check(marketID)
			}
		}
	}
}

// check evaluates one market and emits an opportunity if one exists.
func (d *Detector) check(marketID string) {
	opp, found := d.Evaluate(marketID)
	if !found {
		return
	}

	OpportunitiesDetectedTotal.Inc()
	OpportunityMarginBPS.Observe(float64(opp.MarginBPS()))

	select {
	case d.opportunityChan <- opp:
		d.logger.Info("arbitrage-opportunity-detected",
			zap.String("opportunity-id", opp.ID),
			zap.String("market-id", opp.MarketID),
			zap.String("overround", opp.Overround.StringFixed(4)),
			zap.Int("margin-bps", opp.MarginBPS()),
			zap.Int("legs", len(opp.Legs)))
	default:
		d.logger.Warn("opportunity-channel-full", zap.String("market-id", marketID))
		OpportunitiesDroppedTotal.Inc()
	}
}

// Evaluate checks a single market against the current snapshot. It is
// deterministic for a fixed snapshot: the same snapshot always yields
// the same opportunity or none.
func (d *Detector) Evaluate(marketID string) (*types.ArbitrageOpportunity, bool) {
	market, ok := d.registry.Market(marketID)
	if !ok {
		RejectedTotal.WithLabelValues("unknown_market").Inc()
		return nil, false
	}

	quotes := d.store.Market(marketID)
	if len(quotes) == 0 {
		RejectedTotal.WithLabelValues("no_quotes").Inc()
		return nil, false
	}

	legs := make([]types.OpportunityLeg, 0, len(market.Outcomes))
	for _, outcome := range market.Outcomes {
		best, found := d.bestQuote(quotes, outcome)
		if !found {
			// Missing data is a non-event, not an error.
			RejectedTotal.WithLabelValues("missing_outcome").Inc()
			d.logger.Debug("outcome-has-no-quote",
				zap.String("market-id", marketID),
				zap.String("outcome", outcome))
			return nil, false
		}

		version, _ := d.store.Version(best.Key())
		legs = append(legs, types.OpportunityLeg{
			Venue:        best.Venue,
			Outcome:      outcome,
			Quote:        best,
			QuoteVersion: version,
		})
	}

	overround := decimal.Zero
	for _, leg := range legs {
		overround = overround.Add(leg.Quote.ImpliedProbability())
	}

	// The book must be below 100% by at least the configured edge.
	threshold := decimal.NewFromInt(1).Sub(d.config.MinProfitMargin)
	if overround.GreaterThanOrEqual(threshold) {
		RejectedTotal.WithLabelValues("overround_above_threshold").Inc()
		return nil, false
	}

	return types.NewOpportunity(market.EventID, marketID, legs), true
}

// bestQuote picks the venue offering the best odds for one outcome.
// Ties go to the more reliable venue per configuration, then to the
// venue with the larger known stake limit, then to the lexicographically
// smaller venue name so detection stays deterministic.
func (d *Detector) bestQuote(quotes map[types.QuoteKey]types.OddsQuote, outcome string) (types.OddsQuote, bool) {
	candidates := make([]types.OddsQuote, 0, 4)
	for key, quote := range quotes {
		if key.Outcome == outcome {
			candidates = append(candidates, quote)
		}
	}
	if len(candidates) == 0 {
		return types.OddsQuote{}, false
	}

	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if !a.Odds.Equal(b.Odds) {
			return a.Odds.GreaterThan(b.Odds)
		}
		ra, rb := d.config.VenueRank(a.Venue), d.config.VenueRank(b.Venue)
		if ra != rb {
			return ra < rb
		}
		if !a.MaxStake.Equal(b.MaxStake) {
			return a.MaxStake.GreaterThan(b.MaxStake)
		}
		return a.Venue < b.Venue
	})

	return candidates[0], true
}

// Opportunities returns the channel of detected opportunities.
func (d *Detector) Opportunities() <-chan *types.ArbitrageOpportunity {
	return d.opportunityChan
}

// Close waits for the detection loop to drain.
func (d *Detector) Close() error {
	d.wg.Wait()
	d.logger.Info("detector-closed")
	return nil
}
