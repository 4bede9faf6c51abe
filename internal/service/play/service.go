package play

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	petname "github.com/dustinkirkland/golang-petname"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/park285/cheese-board/internal/chess/board"
	"github.com/park285/cheese-board/internal/chess/eval"
	"github.com/park285/cheese-board/internal/chess/position"
	"github.com/park285/cheese-board/internal/chess/selection"
	"github.com/park285/cheese-board/internal/chess/uci"
	"github.com/park285/cheese-board/internal/msgcat"
	"github.com/park285/cheese-board/pkg/chessdto"
)

var (
	ErrInvalidSquare = errors.New("invalid square")
	ErrGameOver      = errors.New("game is over")
)

// Analyzer requests engine analysis of a position. Results come back
// through HandleResult.
type Analyzer interface {
	Analyze(fen string) (uint64, error)
}

type Config struct {
	StartFEN   string
	EngineSide EngineSide
	MoveDelay  time.Duration
}

// Service runs one board session: it owns the position store and the
// selection machine, funnels user and engine moves through Commit and
// keeps the latest evaluation.
type Service struct {
	cfg      Config
	analyzer Analyzer
	catalog  *msgcat.Catalog
	logger   *zap.Logger

	engineStatus func() string

	mu         sync.Mutex
	id         string
	name       string
	store      *position.Store
	sel        selection.Machine
	evaluation eval.Evaluation
	barEval    eval.Evaluation
	bestMove   *board.Move
	lastMove   *board.Move
	pendingID  uint64
	thinking   bool
	engineDown bool
	timer      *time.Timer

	subMu   sync.Mutex
	subs    map[int]chan chessdto.BoardState
	nextSub int
}

type Option func(*Service)

// WithEngineStatus supplies the engine lifecycle label shown in views.
func WithEngineStatus(f func() string) Option {
	return func(s *Service) { s.engineStatus = f }
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

func WithCatalog(c *msgcat.Catalog) Option {
	return func(s *Service) { s.catalog = c }
}

// NewService opens a session at cfg.StartFEN. analyzer may be nil, in
// which case no evaluation is ever shown.
func NewService(cfg Config, analyzer Analyzer, opts ...Option) (*Service, error) {
	if cfg.EngineSide == "" {
		cfg.EngineSide = EngineBlack
	}
	if cfg.MoveDelay < 0 {
		cfg.MoveDelay = 0
	}
	store, err := position.Open(cfg.StartFEN)
	if err != nil {
		return nil, fmt.Errorf("open start position: %w", err)
	}
	s := &Service{
		cfg:      cfg,
		analyzer: analyzer,
		logger:   zap.NewNop(),
		id:       uuid.NewString(),
		name:     sessionName(),
		store:    store,
		subs:     make(map[int]chan chessdto.BoardState),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Begin requests analysis of the current position. Call it once the
// analyzer is ready.
func (s *Service) Begin() {
	s.mu.Lock()
	s.requestAnalysisLocked()
	view := s.viewLocked()
	s.mu.Unlock()
	s.publish(view)
}

// sessionName is a short human label shown next to the session id.
func sessionName() string {
	return petname.Generate(2, "-")
}

func (s *Service) SessionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

// Click feeds one board click into the selection machine and executes a
// resulting commit.
func (s *Service) Click(sq board.Square) (selection.Decision, error) {
	if !sq.Valid() {
		return selection.Decision{}, ErrInvalidSquare
	}
	s.mu.Lock()
	d := s.sel.Click(sq, s.store)
	var err error
	if d.Action == selection.Commit {
		err = s.commitLocked(d.Move, "user")
	}
	view := s.viewLocked()
	s.mu.Unlock()

	if d.Action != selection.None {
		s.publish(view)
	}
	return d, err
}

// ClickGrid is Click addressed by display row and column.
func (s *Service) ClickGrid(row, col int) (selection.Decision, error) {
	sq, err := board.FromGrid(row, col)
	if err != nil {
		return selection.Decision{}, fmt.Errorf("%w: %v", ErrInvalidSquare, err)
	}
	return s.Click(sq)
}

// Commit applies from->to. Illegal moves are ignored and only clear the
// selection.
func (s *Service) Commit(from, to board.Square) error {
	s.mu.Lock()
	err := s.commitLocked(board.Move{From: from, To: to}, "api")
	view := s.viewLocked()
	s.mu.Unlock()
	s.publish(view)
	return err
}

func (s *Service) commitLocked(mv board.Move, origin string) error {
	s.sel.Reset()
	if result, _ := s.store.Outcome(); result != "" {
		return ErrGameOver
	}
	applied, err := s.store.ApplyMove(mv.From, mv.To)
	if err != nil {
		if errors.Is(err, position.ErrIllegalMove) {
			s.logger.Debug("commit_ignored", zap.String("origin", origin), zap.String("move", mv.String()), zap.Error(err))
		}
		return err
	}
	s.stopTimerLocked()
	s.lastMove = &applied
	s.bestMove = nil
	s.logger.Info("move_committed",
		zap.String("session", s.id),
		zap.String("origin", origin),
		zap.String("move", applied.String()),
		zap.Int("ply", s.store.Ply()),
	)
	s.requestAnalysisLocked()
	return nil
}

func (s *Service) requestAnalysisLocked() {
	s.thinking = false
	s.pendingID = 0
	if s.analyzer == nil {
		return
	}
	if result, _ := s.store.Outcome(); result != "" {
		return
	}
	id, err := s.analyzer.Analyze(s.store.FEN())
	if err != nil {
		s.engineDown = true
		s.logger.Warn("analysis_unavailable", zap.String("session", s.id), zap.Error(err))
		return
	}
	s.engineDown = false
	s.pendingID = id
	s.thinking = true
}

// HandleResult consumes one engine result. Scores update the evaluation
// for the side to move; a best move is played after the configured delay
// when the engine owns that side. The default EngineBlack only answers the
// user's White moves; EngineBoth commits every best move, so the engine
// keeps playing both sides.
func (s *Service) HandleResult(res uci.Result) {
	s.mu.Lock()
	if res.RequestID != s.pendingID || s.pendingID == 0 {
		s.mu.Unlock()
		s.logger.Debug("result_dropped", zap.Uint64("request", res.RequestID), zap.Uint64("pending", s.pendingID))
		return
	}
	switch {
	case res.Score != nil:
		s.evaluation = eval.FromScore(*res.Score, s.store.SideToMove())
		if !s.evaluation.IsMate() {
			s.barEval = s.evaluation
		}
	case res.BestMove != nil:
		mv := *res.BestMove
		s.bestMove = &mv
		s.thinking = false
		if s.cfg.EngineSide.Plays(s.store.SideToMove()) {
			s.scheduleEngineMoveLocked(mv)
		}
	}
	view := s.viewLocked()
	s.mu.Unlock()
	s.publish(view)
}

func (s *Service) scheduleEngineMoveLocked(mv board.Move) {
	s.stopTimerLocked()
	ply := s.store.Ply()
	id := s.id
	s.timer = time.AfterFunc(s.cfg.MoveDelay, func() {
		s.playEngineMove(id, ply, mv)
	})
}

func (s *Service) playEngineMove(id string, ply int, mv board.Move) {
	s.mu.Lock()
	if s.id != id || s.store.Ply() != ply {
		s.mu.Unlock()
		s.logger.Debug("engine_move_stale", zap.String("move", mv.String()))
		return
	}
	s.timer = nil
	if err := s.commitLocked(mv, "engine"); err != nil {
		s.logger.Warn("engine_move_rejected", zap.String("move", mv.String()), zap.Error(err))
	}
	view := s.viewLocked()
	s.mu.Unlock()
	s.publish(view)
}

func (s *Service) stopTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// Reset starts a new session from fen, or from the configured start
// position when fen is empty.
func (s *Service) Reset(fen string) error {
	if strings.TrimSpace(fen) == "" {
		fen = s.cfg.StartFEN
	}
	store, err := position.Open(fen)
	if err != nil {
		return fmt.Errorf("reset: %w", err)
	}
	s.mu.Lock()
	s.stopTimerLocked()
	s.id = uuid.NewString()
	s.name = sessionName()
	s.store = store
	s.sel.Reset()
	s.evaluation = eval.Evaluation{}
	s.barEval = eval.Evaluation{}
	s.bestMove = nil
	s.lastMove = nil
	s.requestAnalysisLocked()
	view := s.viewLocked()
	s.mu.Unlock()

	s.logger.Info("session_reset", zap.String("session", view.SessionID), zap.String("name", view.SessionName), zap.String("fen", view.FEN))
	s.publish(view)
	return nil
}

// Close stops a pending engine move.
func (s *Service) Close() {
	s.mu.Lock()
	s.stopTimerLocked()
	s.mu.Unlock()
}

// Subscribe returns a channel receiving every new view. Slow subscribers
// miss intermediate views.
func (s *Service) Subscribe() (<-chan chessdto.BoardState, func()) {
	ch := make(chan chessdto.BoardState, 8)
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	s.subMu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, id)
			s.subMu.Unlock()
		})
	}
	return ch, cancel
}

func (s *Service) publish(view chessdto.BoardState) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- view:
		default:
		}
	}
}
