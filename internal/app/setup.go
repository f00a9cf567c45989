package app

import (
	"context"
	"fmt"

	"github.com/mselser95/betview/internal/engine"
	"github.com/mselser95/betview/internal/lastreport"
	"github.com/mselser95/betview/internal/scenario"
	"github.com/mselser95/betview/internal/storage"
	"github.com/mselser95/betview/internal/view"
	"github.com/mselser95/betview/pkg/cache"
	"github.com/mselser95/betview/pkg/config"
	"github.com/mselser95/betview/pkg/healthprobe"
	"github.com/mselser95/betview/pkg/httpserver"
	"github.com/mselser95/betview/pkg/websocket"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// New creates a new application instance.
func New(cfg *config.Config, logger *zap.Logger, opts *Options) (*App, error) {
	if opts == nil {
		opts = &Options{}
	}
	if opts.ReplayDir != "" {
		cfg.ReplayDir = opts.ReplayDir
	}

	ctx, cancel := context.WithCancel(context.Background())
	group, groupCtx := errgroup.WithContext(ctx)

	healthChecker := setupHealthChecker()

	replay, err := setupEngine(cfg, logger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup engine: %w", err)
	}
	healthChecker.AddCheck("engine", replay.Check)

	reportCache, err := setupCache(cfg, logger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup cache: %w", err)
	}

	st, err := setupStorage(cfg, logger, healthChecker)
	if err != nil {
		cancel()
		reportCache.Close()
		return nil, fmt.Errorf("setup storage: %w", err)
	}

	board := view.NewBoard()
	hub := setupHub(cfg, logger)

	orch := scenario.New(&scenario.Config{
		Engine:   replay,
		Odds:     replay,
		Window:   view.Fanout{board, hub},
		Cache:    reportCache,
		CacheTTL: cfg.ReportCacheTTL,
		Last:     lastreport.New(),
		Storage:  st,
		Strict:   cfg.StrictReports,
		Logger:   logger,
	})

	httpServer := setupHTTPServer(cfg, logger, healthChecker, orch, board, st, hub)

	return &App{
		cfg:           cfg,
		logger:        logger,
		healthChecker: healthChecker,
		httpServer:    httpServer,
		engine:        replay,
		reportCache:   reportCache,
		board:         board,
		hub:           hub,
		orchestrator:  orch,
		storage:       st,
		ctx:           groupCtx,
		cancel:        cancel,
		group:         group,
	}, nil
}

func setupHealthChecker() *healthprobe.HealthChecker {
	return healthprobe.New()
}

func setupEngine(cfg *config.Config, logger *zap.Logger) (*engine.Replay, error) {
	return engine.NewReplay(&engine.ReplayConfig{
		Dir:    cfg.ReplayDir,
		Logger: logger,
	})
}

func setupCache(cfg *config.Config, logger *zap.Logger) (*cache.RistrettoCache, error) {
	return cache.NewRistrettoCache(&cache.RistrettoConfig{
		NumCounters: cfg.ReportCacheSize * 10, // 10x expected max reports
		MaxCost:     cfg.ReportCacheSize,
		BufferItems: 64,
		Logger:      logger,
	})
}

func setupStorage(cfg *config.Config, logger *zap.Logger, healthChecker *healthprobe.HealthChecker) (storage.Storage, error) {
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
		healthChecker.AddCheck("postgres", pgStorage.Ping)
		return pgStorage, nil
	}

	return storage.NewConsoleStorage(logger, storage.WithHistoryLimit(cfg.HistoryLimit)), nil
}

func setupHub(cfg *config.Config, logger *zap.Logger) *websocket.Hub {
	return websocket.NewHub(websocket.HubConfig{
		PingInterval:      cfg.WSPingInterval,
		PongTimeout:       cfg.WSPongTimeout,
		WriteTimeout:      cfg.WSWriteTimeout,
		MessageBufferSize: cfg.WSMessageBufferSize,
		Logger:            logger,
	})
}

func setupHTTPServer(
	cfg *config.Config,
	logger *zap.Logger,
	healthChecker *healthprobe.HealthChecker,
	orch *scenario.Orchestrator,
	board *view.Board,
	st storage.Storage,
	hub *websocket.Hub,
) *httpserver.Server {
	return httpserver.New(&httpserver.Config{
		Port:           cfg.HTTPPort,
		RequestTimeout: cfg.HTTPRequestTimeout,
		Logger:         logger,
		HealthChecker:  healthChecker,
		Orchestrator:   orch,
		Board:          board,
		Storage:        st,
		Hub:            hub,
		CORSOrigins:    cfg.CORSAllowOrigins,
		RunRateLimit:   cfg.RunRateLimit,
		RunRateWindow:  cfg.RunRateWindow,
	})
}
