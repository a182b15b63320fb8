package app

import (
	"math/rand"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/alex77palex/arbitrage-bot/internal/venue"
	"github.com/alex77palex/arbitrage-bot/pkg/types"
)

// paperFeed drives the paper venues with synthetic odds. Venues quote
// around a shared fair price with a bookmaker margin, and every so
// often one venue boosts one outcome enough to open a real arbitrage
// window across the set.
func (a *App) paperFeed() {
	defer a.wg.Done()

	paperVenues := make([]*venue.PaperVenue, 0, len(a.clients))
	for _, c := range a.clients {
		if pv, ok := c.(*venue.PaperVenue); ok {
			paperVenues = append(paperVenues, pv)
		}
	}
	if len(paperVenues) == 0 {
		return
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	tick := 0
	for {
		select {
		case <-a.ctx.Done():
			return
		case <-ticker.C:
			tick++
			for _, marketID := range a.registry.MarketIDs() {
				market, ok := a.registry.Market(marketID)
				if !ok {
					continue
				}
				a.publishPaperQuotes(rng, paperVenues, market, tick%20 == 0)
			}
		}
	}
}

func (a *App) publishPaperQuotes(rng *rand.Rand, venues []*venue.PaperVenue, market types.Market, boost bool) {
	n := len(market.Outcomes)
	if n < 2 {
		return
	}

	// Boosting venue and outcome for this round, if any.
	boostVenue := -1
	boostOutcome := -1
	if boost && len(venues) > 1 {
		boostVenue = rng.Intn(len(venues))
		boostOutcome = rng.Intn(n)
		a.logger.Debug("paper-feed-boost",
			zap.String("market-id", market.ID),
			zap.String("venue", venues[boostVenue].Name()),
			zap.String("outcome", market.Outcomes[boostOutcome]))
	}

	fair := 1.0 / float64(n)

	for vi, pv := range venues {
		for oi, outcome := range market.Outcomes {
			// Implied probability = fair share plus a ~4% margin and noise.
			implied := fair*1.04 + (rng.Float64()-0.5)*0.02
			if vi == boostVenue && oi == boostOutcome {
				// Boost the odds well past the margin so the best-of
				// book across venues goes under unity.
				implied = fair * 0.90
			}
			if implied <= 0.01 {
				implied = 0.01
			}

			odds := decimal.NewFromFloat(1.0 / implied).Round(3)
			pv.Publish(types.OddsQuote{
				MarketID:  market.ID,
				Outcome:   outcome,
				Odds:      odds,
				MaxStake:  decimal.NewFromInt(int64(200 + rng.Intn(800))),
				Timestamp: time.Now(),
			})
		}
	}
}
