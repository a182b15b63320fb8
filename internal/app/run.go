package app

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// Run starts the application and blocks until shutdown.
func (a *App) Run() error {
	a.logger.Info("application-starting",
		zap.String("mode", a.cfg.Mode),
		zap.String("min-profit-margin", a.cfg.MinProfitMargin.String()),
		zap.String("log-level", a.cfg.LogLevel))

	// Start all components
	err := a.startComponents()
	if err != nil {
		return err
	}

	// Mark as ready
	a.healthChecker.SetReady(true)

	a.logger.Info("application-ready",
		zap.String("http-addr", ":"+a.cfg.HTTPPort),
		zap.Int("venues", len(a.clients)),
		zap.Int("markets", len(a.registry.MarketIDs())))

	// Wait for shutdown signal
	return a.waitForShutdown()
}

func (a *App) startComponents() error {
	// Start HTTP server
	a.wg.Add(1)
	go a.runHTTPServer()

	// Give HTTP server a moment to start
	time.Sleep(100 * time.Millisecond)

	// Coordinator first: it must be draining opportunities before the
	// detector can produce any.
	err := a.coordinator.Start(a.ctx)
	if err != nil {
		return fmt.Errorf("start coordinator: %w", err)
	}

	err = a.detector.Start(a.ctx)
	if err != nil {
		return fmt.Errorf("start detector: %w", err)
	}

	// Start feed aggregation last so the first quotes land in a fully
	// wired pipeline.
	a.wg.Add(1)
	go a.runAggregator()

	if a.cfg.Mode == "paper" {
		a.wg.Add(1)
		go a.paperFeed()
	}

	return nil
}

func (a *App) runHTTPServer() {
	defer a.wg.Done()
	err := a.httpServer.Start()
	if err != nil {
		a.logger.Error("http-server-error", zap.Error(err))
	}
}

func (a *App) runAggregator() {
	defer a.wg.Done()
	err := a.aggregator.Run(a.ctx)
	if err != nil && !errors.Is(err, a.ctx.Err()) {
		a.logger.Error("aggregator-error", zap.Error(err))
	}
}

func (a *App) waitForShutdown() error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		a.logger.Info("shutdown-signal-received", zap.String("signal", sig.String()))
	case <-a.ctx.Done():
		a.logger.Info("context-cancelled")
	}

	return a.Shutdown()
}
