// Package feed consumes normalized odds updates pushed by venue
// clients and writes them into the snapshot store, emitting one change
// notification per accepted update.
package feed

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/alex77palex/arbitrage-bot/internal/snapshot"
	"github.com/alex77palex/arbitrage-bot/internal/venue"
	"github.com/alex77palex/arbitrage-bot/pkg/cache"
	"github.com/alex77palex/arbitrage-bot/pkg/types"
)

// Aggregator drains one stream per venue into the snapshot store.
type Aggregator struct {
	store    *snapshot.Store
	registry *Registry
	clients  []venue.Client
	limits   *cache.LimitCache
	logger   *zap.Logger
	changes  chan string
}

// Config holds aggregator configuration.
type Config struct {
	Store          *snapshot.Store
	Registry       *Registry
	Clients        []venue.Client
	Limits         *cache.LimitCache
	ChangeBufferSz int
	Logger         *zap.Logger
}

// New creates a new odds feed aggregator.
func New(cfg Config) *Aggregator {
	size := cfg.ChangeBufferSz
	if size <= 0 {
		size = 10000
	}

	return &Aggregator{
		store:    cfg.Store,
		registry: cfg.Registry,
		clients:  cfg.Clients,
		limits:   cfg.Limits,
		logger:   cfg.Logger,
		changes:  make(chan string, size),
	}
}

// Changes returns the stream of market IDs whose snapshot changed.
func (a *Aggregator) Changes() <-chan string {
	return a.changes
}

// Run opens every venue stream and pumps quotes until the context ends.
// One failing venue stream never takes down the others; a stream that
// cannot even open is reported and the rest keep running.
func (a *Aggregator) Run(ctx context.Context) error {
	marketIDs := a.registry.MarketIDs()
	group, ctx := errgroup.WithContext(ctx)

	for _, client := range a.clients {
		client := client
		group.Go(func() error {
			stream, err := client.StreamOdds(ctx, marketIDs)
			if err != nil {
				a.logger.Error("venue-stream-failed",
					zap.String("venue", client.Name()),
					zap.Error(err))
				StreamFailuresTotal.WithLabelValues(client.Name()).Inc()
				return nil
			}

			a.drain(ctx, client.Name(), stream)
			return nil
		})
	}

	err := group.Wait()
	close(a.changes)
	a.logger.Info("aggregator-stopped")
	return err
}

// drain pumps one venue stream into the store.
func (a *Aggregator) drain(ctx context.Context, venueName string, stream <-chan types.OddsQuote) {
	for {
		select {
		case <-ctx.Done():
			return
		case quote, ok := <-stream:
			if !ok {
				a.logger.Info("venue-stream-closed", zap.String("venue", venueName))
				return
			}

			if _, known := a.registry.Market(quote.MarketID); !known {
				UpdatesDroppedTotal.WithLabelValues(venueName, "unknown_market").Inc()
				continue
			}

			if quote.MaxStake.IsPositive() && a.limits != nil {
				a.limits.SetLimit(quote.Venue, quote.MarketID, quote.Outcome, quote.MaxStake)
			}

			changed := a.store.Upsert(quote)
			if !changed {
				UpdatesDroppedTotal.WithLabelValues(venueName, "superseded").Inc()
				continue
			}

			UpdatesAppliedTotal.WithLabelValues(venueName).Inc()

			select {
			case a.changes <- quote.MarketID:
			default:
				// A full change buffer only delays detection until the
				// next update or rescan; dropping beats blocking a feed.
				ChangesDroppedTotal.Inc()
			}
		}
	}
}
