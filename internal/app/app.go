package app

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/alex77palex/arbitrage-bot/internal/allocator"
	"github.com/alex77palex/arbitrage-bot/internal/detector"
	"github.com/alex77palex/arbitrage-bot/internal/executor"
	"github.com/alex77palex/arbitrage-bot/internal/feed"
	"github.com/alex77palex/arbitrage-bot/internal/riskguard"
	"github.com/alex77palex/arbitrage-bot/internal/snapshot"
	"github.com/alex77palex/arbitrage-bot/internal/storage"
	"github.com/alex77palex/arbitrage-bot/internal/venue"
	"github.com/alex77palex/arbitrage-bot/pkg/cache"
	"github.com/alex77palex/arbitrage-bot/pkg/config"
	"github.com/alex77palex/arbitrage-bot/pkg/healthprobe"
	"github.com/alex77palex/arbitrage-bot/pkg/httpserver"
)

// App is the main application orchestrator.
type App struct {
	cfg           *config.Config
	logger        *zap.Logger
	healthChecker *healthprobe.HealthChecker
	httpServer    *httpserver.Server
	registry      *feed.Registry
	store         *snapshot.Store
	limits        *cache.LimitCache
	clients       []venue.Client
	aggregator    *feed.Aggregator
	detector      *detector.Detector
	allocator     *allocator.Allocator
	guard         *riskguard.Guard
	coordinator   *executor.Coordinator
	storage       storage.Storage
	ctx           context.Context
	cancel        context.CancelFunc
	wg            sync.WaitGroup
}

// Options holds application options.
type Options struct {
	// MarketsFile overrides the configured tracked-markets file.
	MarketsFile string
}
