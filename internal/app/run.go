package app

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mselser95/betview/internal/scenario"
	"go.uber.org/zap"
)

// Run starts the application and blocks until shutdown.
func (a *App) Run() error {
	a.logger.Info("application-starting",
		zap.String("environment", a.cfg.Environment),
		zap.String("replay-dir", a.cfg.ReplayDir),
		zap.String("storage-mode", a.cfg.StorageMode),
		zap.Bool("strict-reports", a.cfg.StrictReports),
		zap.String("log-level", a.cfg.LogLevel))

	a.startComponents()

	a.healthChecker.SetReady(true)

	a.logger.Info("application-ready",
		zap.String("http-addr", ":"+a.cfg.HTTPPort),
		zap.Int("scenarios", len(scenario.All())))

	return a.waitForShutdown()
}

func (a *App) startComponents() {
	a.group.Go(a.runHTTPServer)
}

func (a *App) runHTTPServer() error {
	err := a.httpServer.Start()
	if err != nil {
		a.logger.Error("http-server-error", zap.Error(err))
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

func (a *App) waitForShutdown() error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case sig := <-sigChan:
		a.logger.Info("shutdown-signal-received", zap.String("signal", sig.String()))
	case <-a.ctx.Done():
		a.logger.Info("context-cancelled")
	}

	return a.Shutdown()
}
