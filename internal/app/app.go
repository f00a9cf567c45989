// Package app wires the betview server together.
package app

import (
	"context"

	"github.com/mselser95/betview/internal/engine"
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

// App is the main application orchestrator.
type App struct {
	cfg           *config.Config
	logger        *zap.Logger
	healthChecker *healthprobe.HealthChecker
	httpServer    *httpserver.Server
	engine        *engine.Replay
	reportCache   *cache.RistrettoCache
	board         *view.Board
	hub           *websocket.Hub
	orchestrator  *scenario.Orchestrator
	storage       storage.Storage
	ctx           context.Context
	cancel        context.CancelFunc
	group         *errgroup.Group // ctx is cancelled when a member fails
}

// Options holds application options.
type Options struct {
	ReplayDir string // Overrides ENGINE_REPLAY_DIR when set
}

// Orchestrator returns the scenario orchestrator.
func (a *App) Orchestrator() *scenario.Orchestrator {
	return a.orchestrator
}

// Board returns the in-memory slot board.
func (a *App) Board() *view.Board {
	return a.board
}
