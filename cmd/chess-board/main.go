package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/park285/cheese-board/internal/chessbuilder"
	appcfg "github.com/park285/cheese-board/internal/config"
	"github.com/park285/cheese-board/internal/obslog"
	"github.com/park285/cheese-board/internal/uiserver"
)

func main() {
	cfg, err := appcfg.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if err := obslog.Init(cfg.Log.Options()); err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	logger := obslog.L()
	defer func() { _ = obslog.Sync() }()

	deps, err := chessbuilder.New(cfg, logger)
	if err != nil {
		logger.Fatal("board init error", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps.Start(ctx)
	logger.Info("board_started",
		zap.String("session", deps.Service.SessionID()),
		zap.String("engine_side", cfg.EngineSide),
		zap.Int("depth", cfg.EngineDepth),
	)

	srv := uiserver.New(deps.Service, deps.Renderer, logger.Named("http"))
	if err := srv.ListenAndServe(ctx, cfg.HTTPAddr); err != nil {
		logger.Error("http server error", zap.Error(err))
	}

	if err := deps.Close(); err != nil {
		logger.Warn("engine close error", zap.Error(err))
	}
	logger.Info("board_stopped")
}
