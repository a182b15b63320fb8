package snapshot

import (
	"sync"
	"time"

	"github.com/alex77palex/arbitrage-bot/pkg/types"
	"go.uber.org/zap"
)

// Store holds the latest known quote per (venue, market, outcome) key.
// Quotes are superseded by newer timestamps, never mutated in place;
// out-of-order quotes are dropped silently. Every successful upsert is
// visible atomically to all readers.
type Store struct {
	mu       sync.RWMutex
	quotes   map[types.QuoteKey]types.OddsQuote
	versions map[types.QuoteKey]uint64
	byMarket map[string]map[types.QuoteKey]struct{}

	maxAge time.Duration
	logger *zap.Logger
	now    func() time.Time
}

// Config holds snapshot store configuration.
type Config struct {
	MaxQuoteAge time.Duration
	Logger      *zap.Logger
}

// New creates a new snapshot store.
func New(cfg Config) *Store {
	return &Store{
		quotes:   make(map[types.QuoteKey]types.OddsQuote),
		versions: make(map[types.QuoteKey]uint64),
		byMarket: make(map[string]map[types.QuoteKey]struct{}),
		maxAge:   cfg.MaxQuoteAge,
		logger:   cfg.Logger,
		now:      time.Now,
	}
}

// Upsert stores the quote if it is newer than the stored one for its
// key. Returns false for quotes that are not newer (equal timestamps
// included); those are a recoverable no-op, not an error.
func (s *Store) Upsert(quote types.OddsQuote) bool {
	if !quote.Odds.IsPositive() {
		QuotesDroppedTotal.WithLabelValues("invalid_odds").Inc()
		return false
	}

	key := quote.Key()

	lockStart := time.Now()
	s.mu.Lock()
	LockWaitSeconds.Observe(time.Since(lockStart).Seconds())
	defer s.mu.Unlock()

	current, exists := s.quotes[key]
	if exists && !quote.Timestamp.After(current.Timestamp) {
		QuotesDroppedTotal.WithLabelValues("out_of_order").Inc()
		return false
	}

	s.quotes[key] = quote
	s.versions[key]++

	market, ok := s.byMarket[quote.MarketID]
	if !ok {
		market = make(map[types.QuoteKey]struct{})
		s.byMarket[quote.MarketID] = market
	}
	market[key] = struct{}{}

	QuotesStoredTotal.Inc()
	KeysTracked.Set(float64(len(s.quotes)))

	return true
}

// Market returns the current non-stale quotes for a market, keyed by
// (venue, outcome). The returned map is a copy; callers own it.
func (s *Store) Market(marketID string) map[types.QuoteKey]types.OddsQuote {
	now := s.now()

	s.mu.RLock()
	defer s.mu.RUnlock()

	keys, ok := s.byMarket[marketID]
	if !ok {
		return nil
	}

	out := make(map[types.QuoteKey]types.OddsQuote, len(keys))
	for key := range keys {
		quote := s.quotes[key]
		if now.Sub(quote.Timestamp) > s.maxAge {
			continue
		}
		out[key] = quote
	}

	return out
}

// Version returns the superseding counter for a key. A leg detected at
// version v is stale as soon as Version(key) > v.
func (s *Store) Version(key types.QuoteKey) (uint64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.versions[key]
	return v, ok
}

// Fresh reports whether every leg of the opportunity still references
// the latest quote for its key.
func (s *Store) Fresh(opp *types.ArbitrageOpportunity) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, leg := range opp.Legs {
		if s.versions[leg.Quote.Key()] != leg.QuoteVersion {
			return false
		}
	}
	return true
}

// IsStale reports whether a quote is older than maxAge.
func (s *Store) IsStale(quote types.OddsQuote, maxAge time.Duration) bool {
	return s.now().Sub(quote.Timestamp) > maxAge
}
