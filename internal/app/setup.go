package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/alex77palex/arbitrage-bot/internal/allocator"
	"github.com/alex77palex/arbitrage-bot/internal/detector"
	"github.com/alex77palex/arbitrage-bot/internal/executor"
	"github.com/alex77palex/arbitrage-bot/internal/feed"
	"github.com/alex77palex/arbitrage-bot/internal/notify"
	"github.com/alex77palex/arbitrage-bot/internal/riskguard"
	"github.com/alex77palex/arbitrage-bot/internal/snapshot"
	"github.com/alex77palex/arbitrage-bot/internal/storage"
	"github.com/alex77palex/arbitrage-bot/internal/venue"
	"github.com/alex77palex/arbitrage-bot/pkg/cache"
	"github.com/alex77palex/arbitrage-bot/pkg/config"
	"github.com/alex77palex/arbitrage-bot/pkg/healthprobe"
	"github.com/alex77palex/arbitrage-bot/pkg/httpserver"
)

// New creates a new application instance.
func New(cfg *config.Config, logger *zap.Logger, opts *Options) (*App, error) {
	if opts == nil {
		opts = &Options{}
	}

	ctx, cancel := context.WithCancel(context.Background())

	healthChecker := healthprobe.New()

	limits, err := setupLimitCache(logger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup limit cache: %w", err)
	}

	registry := feed.NewRegistry()
	store := snapshot.New(snapshot.Config{
		MaxQuoteAge: cfg.MaxQuoteAge,
		Logger:      logger,
	})

	marketsFile := cfg.MarketsFile
	if opts.MarketsFile != "" {
		marketsFile = opts.MarketsFile
	}
	err = loadMarkets(registry, marketsFile, cfg.Mode, logger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("load markets: %w", err)
	}

	clients := setupVenueClients(cfg, logger)

	aggregator := feed.New(feed.Config{
		Store:    store,
		Registry: registry,
		Clients:  clients,
		Limits:   limits,
		Logger:   logger,
	})

	arbDetector := detector.New(detector.Config{
		MinProfitMargin: cfg.MinProfitMargin,
		VenueRank:       cfg.VenueRank,
		RescanInterval:  cfg.RescanInterval,
		Logger:          logger,
	}, store, registry, aggregator.Changes())

	stakeAllocator := allocator.New(allocator.Config{
		MinProfitMargin: cfg.MinProfitMargin,
		MaxTotalStake:   cfg.MaxTotalStake,
		MaxPerLegStake:  cfg.MaxPerLegStake,
		Logger:          logger,
	}, limits)

	guard := riskguard.New(riskguard.Config{
		ExposureCeiling:   cfg.ExposureCeiling,
		CooldownThreshold: cfg.FailureCooldownThreshold,
		CooldownDuration:  cfg.FailureCooldownDuration,
		Logger:            logger,
	})

	auditStorage, err := setupStorage(cfg, logger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup storage: %w", err)
	}

	if pg, ok := auditStorage.(*storage.PostgresStorage); ok {
		healthChecker.Register("postgres", func() error {
			pingCtx, pingCancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer pingCancel()
			return pg.Ping(pingCtx)
		})
	}
	healthChecker.Register("markets", func() error {
		if len(registry.MarketIDs()) == 0 {
			return fmt.Errorf("no markets tracked")
		}
		return nil
	})

	coordinator := executor.New(executor.Config{
		LegTimeout:     cfg.LegTimeout,
		MaxPerLegStake: cfg.MaxPerLegStake,
		Logger:         logger,
	}, clients, stakeAllocator, guard, store, auditStorage, setupNotifier(cfg, logger), arbDetector.Opportunities())

	httpServer := httpserver.New(&httpserver.Config{
		Port:          cfg.HTTPPort,
		Logger:        logger,
		HealthChecker: healthChecker,
		Store:         store,
		Registry:      registry,
		Guard:         guard,
	})

	return &App{
		cfg:           cfg,
		logger:        logger,
		healthChecker: healthChecker,
		httpServer:    httpServer,
		registry:      registry,
		store:         store,
		limits:        limits,
		clients:       clients,
		aggregator:    aggregator,
		detector:      arbDetector,
		allocator:     stakeAllocator,
		guard:         guard,
		coordinator:   coordinator,
		storage:       auditStorage,
		ctx:           ctx,
		cancel:        cancel,
	}, nil
}

func setupLimitCache(logger *zap.Logger) (*cache.LimitCache, error) {
	return cache.NewLimitCache(cache.LimitCacheConfig{
		NumCounters: 100000, // 10x expected max tracked limits
		MaxItems:    10000,
		TTL:         10 * time.Minute,
		Logger:      logger,
	})
}

// setupVenueClients builds one client per configured venue. Paper mode
// ignores VENUE_FEEDS and runs in-process simulated venues instead.
func setupVenueClients(cfg *config.Config, logger *zap.Logger) []venue.Client {
	if cfg.Mode == "paper" {
		names := cfg.VenueReliabilityRanking
		clients := make([]venue.Client, 0, len(names))
		for _, name := range names {
			clients = append(clients, venue.NewPaperVenue(name, logger))
		}
		return clients
	}

	clients := make([]venue.Client, 0, len(cfg.VenueFeeds))
	for name, endpoints := range cfg.VenueFeeds {
		clients = append(clients, venue.NewWSClient(venue.WSConfig{
			Name:                  name,
			StreamURL:             endpoints.StreamURL,
			PlaceURL:              endpoints.PlaceURL,
			DialTimeout:           cfg.WSDialTimeout,
			ReconnectInitialDelay: cfg.WSReconnectInitialDelay,
			ReconnectMaxDelay:     cfg.WSReconnectMaxDelay,
			ReconnectBackoffMult:  cfg.WSReconnectBackoffMult,
			Logger:                logger,
		}))
	}
	return clients
}

func setupStorage(cfg *config.Config, logger *zap.Logger) (storage.Storage, error) {
	if cfg.StorageMode == "postgres" {
		pgStorage, err := storage.NewPostgresStorage(&storage.PostgresConfig{
			Host:     cfg.PostgresHost,
			Port:     cfg.PostgresPort,
			User:     cfg.PostgresUser,
			Password: cfg.PostgresPass,
			Database: cfg.PostgresDB,
			SSLMode:  cfg.PostgresSSL,
			Logger:   logger,
		})
		if err != nil {
			return nil, fmt.Errorf("create postgres storage: %w", err)
		}
		return pgStorage, nil
	}

	return storage.NewConsoleStorage(logger), nil
}

func setupNotifier(cfg *config.Config, logger *zap.Logger) notify.Notifier {
	notifiers := notify.Multi{notify.NewLogNotifier(logger)}
	if cfg.WebhookURL != "" {
		notifiers = append(notifiers, notify.NewWebhookNotifier(cfg.WebhookURL, logger))
	}
	return notifiers
}
