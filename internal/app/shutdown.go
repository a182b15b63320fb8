package app

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Shutdown gracefully shuts down the application. Components close in
// reverse dependency order so the final execution records reach the
// audit storage before it closes.
func (a *App) Shutdown() error {
	a.logger.Info("application-shutting-down")

	a.healthChecker.SetReady(false)

	// Cancel context to signal all components
	a.cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	// Shutdown HTTP server
	err := a.httpServer.Shutdown(shutdownCtx)
	if err != nil {
		a.logger.Error("http-server-shutdown-error", zap.Error(err))
	}

	// Close detector, then let the coordinator drain in-flight work
	err = a.detector.Close()
	if err != nil {
		a.logger.Error("detector-close-error", zap.Error(err))
	}

	err = a.coordinator.Close()
	if err != nil {
		a.logger.Error("coordinator-close-error", zap.Error(err))
	}

	// Close audit storage after the last record landed
	err = a.storage.Close()
	if err != nil {
		a.logger.Error("storage-close-error", zap.Error(err))
	}

	a.limits.Close()

	// Wait for all goroutines
	a.wg.Wait()

	a.logger.Info("application-shutdown-complete")

	return nil
}
