// Package cache keeps the last-known venue stake limits so allocation
// never blocks on a live venue call.
package cache

import (
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// LimitCache is a TTL cache of venue-imposed stake limits keyed by
// (venue, market, outcome).
type LimitCache struct {
	cache  *ristretto.Cache
	ttl    time.Duration
	logger *zap.Logger
}

// LimitCacheConfig holds limit cache configuration.
type LimitCacheConfig struct {
	NumCounters int64 // number of keys to track frequency (10x max items)
	MaxItems    int64
	TTL         time.Duration
	Logger      *zap.Logger
}

// NewLimitCache creates a ristretto-backed limit cache.
func NewLimitCache(cfg LimitCacheConfig) (*LimitCache, error) {
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: cfg.NumCounters,
		MaxCost:     cfg.MaxItems,
		BufferItems: 64,
		Metrics:     true,
	})
	if err != nil {
		return nil, err
	}

	return &LimitCache{
		cache:  cache,
		ttl:    cfg.TTL,
		logger: cfg.Logger,
	}, nil
}

func limitKey(venue, marketID, outcome string) string {
	return fmt.Sprintf("%s|%s|%s", venue, marketID, outcome)
}

// SetLimit records the last-known stake limit for a key.
func (c *LimitCache) SetLimit(venue, marketID, outcome string, limit decimal.Decimal) {
	c.cache.SetWithTTL(limitKey(venue, marketID, outcome), limit, 1, c.ttl)
	LimitSetsTotal.Inc()
}

// Limit returns the cached stake limit for a key, if any.
func (c *LimitCache) Limit(venue, marketID, outcome string) (decimal.Decimal, bool) {
	value, found := c.cache.Get(limitKey(venue, marketID, outcome))
	if !found {
		LimitMissesTotal.Inc()
		return decimal.Zero, false
	}

	limit, ok := value.(decimal.Decimal)
	if !ok {
		LimitMissesTotal.Inc()
		return decimal.Zero, false
	}

	LimitHitsTotal.Inc()
	return limit, true
}

// Wait blocks until pending writes are applied. Useful in tests.
func (c *LimitCache) Wait() {
	c.cache.Wait()
}

// Close releases the cache's resources.
func (c *LimitCache) Close() {
	c.cache.Close()
	c.logger.Info("limit-cache-closed")
}
