package chessbuilder

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/park285/cheese-board/internal/chess/uci"
	"github.com/park285/cheese-board/internal/config"
	"github.com/park285/cheese-board/internal/msgcat"
	"github.com/park285/cheese-board/internal/service/boardimg"
	"github.com/park285/cheese-board/internal/service/play"
)

type Deps struct {
	Service  *play.Service
	Bridge   *uci.Bridge // nil when no engine is configured
	Renderer *boardimg.Renderer
	Catalog  *msgcat.Catalog

	logger *zap.Logger
}

// New wires the board service to the engine bridge. Without
// STOCKFISH_PATH the board runs with analysis disabled.
func New(cfg *config.AppConfig, logger *zap.Logger) (*Deps, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	catalog, err := msgcat.New(cfg.MessagesDir)
	if err != nil {
		return nil, fmt.Errorf("load messages: %w", err)
	}

	side, err := play.ParseEngineSide(cfg.EngineSide)
	if err != nil {
		return nil, err
	}

	var (
		bridge   *uci.Bridge
		analyzer play.Analyzer
	)
	opts := []play.Option{play.WithLogger(logger.Named("play")), play.WithCatalog(catalog)}
	if strings.TrimSpace(cfg.StockfishPath) != "" {
		opt, limits, err := engineSettings(cfg)
		if err != nil {
			return nil, err
		}
		factory := uci.Factory(cfg.StockfishPath, opt)
		bridge = uci.NewBridge(factory, nil,
			uci.WithLimits(limits),
			uci.WithLogger(logger.Named("uci")),
		)
		analyzer = bridge
		opts = append(opts, play.WithEngineStatus(func() string { return bridge.State().String() }))
	} else {
		logger.Warn("engine_disabled", zap.String("reason", "STOCKFISH_PATH not set"))
	}

	service, err := play.NewService(play.Config{
		StartFEN:   cfg.StartFEN,
		EngineSide: side,
		MoveDelay:  cfg.MoveDelay(),
	}, analyzer, opts...)
	if err != nil {
		return nil, err
	}
	if bridge != nil {
		bridge.SetHandler(service.HandleResult)
	}

	renderer := boardimg.NewRenderer(boardimg.WithPieceDir(cfg.PiecesDir))
	return &Deps{Service: service, Bridge: bridge, Renderer: renderer, Catalog: catalog, logger: logger}, nil
}

// Start launches the engine and requests the first analysis. A failed
// engine start is logged and the board stays usable.
func (d *Deps) Start(ctx context.Context) {
	if d.Bridge != nil {
		if err := d.Bridge.Start(ctx); err != nil {
			d.logger.Error("engine_start_failed", zap.Error(err))
		}
	}
	d.Service.Begin()
}

// Close stops pending engine moves and terminates the engine once.
func (d *Deps) Close() error {
	d.Service.Close()
	if d.Bridge != nil {
		return d.Bridge.Close()
	}
	return nil
}

// engineSettings applies ENGINE_PRESET when set; explicit option values
// still win over the preset.
func engineSettings(cfg *config.AppConfig) (uci.Options, uci.Limits, error) {
	opt := uci.Options{
		Threads:    cfg.EngineThreads,
		HashMB:     cfg.EngineHashMB,
		SkillLevel: cfg.EngineSkillLevel,
	}
	if strings.TrimSpace(cfg.EnginePreset) == "" {
		return opt, uci.Limits{Depth: cfg.EngineDepth}, nil
	}
	p, err := uci.GetPreset(cfg.EnginePreset)
	if err != nil {
		return uci.Options{}, uci.Limits{}, err
	}
	return p.Merge(opt), p.Limits, nil
}
