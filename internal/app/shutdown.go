package app

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Shutdown gracefully shuts down the application.
func (a *App) Shutdown() error {
	a.logger.Info("application-shutting-down")

	a.healthChecker.SetReady(false)

	a.cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	// Stop accepting requests first; hijacked viewer connections are closed
	// by the hub.
	err := a.shutdownHTTPServer(shutdownCtx)
	if err != nil {
		a.logger.Error("http-server-shutdown-error", zap.Error(err))
	}

	err = a.shutdownHub()
	if err != nil {
		a.logger.Error("hub-close-error", zap.Error(err))
	}

	err = a.shutdownStorage()
	if err != nil {
		a.logger.Error("storage-close-error", zap.Error(err))
	}

	a.reportCache.Close()

	runErr := a.group.Wait()

	a.logger.Info("application-shutdown-complete")

	return runErr
}

func (a *App) shutdownHTTPServer(ctx context.Context) error {
	return a.httpServer.Shutdown(ctx)
}

func (a *App) shutdownHub() error {
	return a.hub.Close()
}

func (a *App) shutdownStorage() error {
	return a.storage.Close()
}
