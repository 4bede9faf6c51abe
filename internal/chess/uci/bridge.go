package uci

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/park285/cheese-board/internal/chess/board"
	"github.com/park285/cheese-board/internal/chess/eval"
	"go.uber.org/zap"
)

var (
	// ErrWorkerUnavailable means analysis was requested before Start
	// succeeded or after the worker went away.
	ErrWorkerUnavailable = errors.New("analysis worker unavailable")
	ErrTerminated        = errors.New("engine bridge terminated")
)

// Worker is a running analysis engine reached by text lines.
type Worker interface {
	Send(cmd string) error
	Lines() <-chan string
	Close() error
}

type WorkerFactory func(ctx context.Context) (Worker, error)

type State int32

const (
	Uninitialized State = iota
	Ready
	Terminated
)

func (s State) String() string {
	switch s {
	case Ready:
		return "ready"
	case Terminated:
		return "terminated"
	default:
		return "uninitialized"
	}
}

// Result is one parsed engine output for the live request. Exactly one of
// BestMove and Score is set.
type Result struct {
	RequestID uint64
	FEN       string
	BestMove  *board.Move
	Score     *eval.Score
}

type Handler func(Result)

type request struct {
	id  uint64
	fen string
}

// Bridge owns the single analysis worker and correlates its output with
// analysis requests. Responses are matched FIFO against outstanding
// requests; output belonging to a request that has been superseded is
// dropped.
type Bridge struct {
	factory WorkerFactory
	handler Handler
	limits  Limits
	logger  *zap.Logger

	mu      sync.Mutex
	state   State
	worker  Worker
	seq     uint64
	pending []request
}

type Option func(*Bridge)

func WithLimits(l Limits) Option { return func(b *Bridge) { b.limits = l } }

func WithLogger(l *zap.Logger) Option {
	return func(b *Bridge) {
		if l != nil {
			b.logger = l
		}
	}
}

func NewBridge(factory WorkerFactory, handler Handler, opts ...Option) *Bridge {
	b := &Bridge{
		factory: factory,
		handler: handler,
		limits:  Limits{Depth: DefaultDepth},
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// SetHandler replaces the result handler. It is called from the reader
// goroutine without the bridge lock held.
func (b *Bridge) SetHandler(h Handler) {
	b.mu.Lock()
	b.handler = h
	b.mu.Unlock()
}

func (b *Bridge) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Start creates the worker. An existing worker is released first.
func (b *Bridge) Start(ctx context.Context) error {
	if b.factory == nil {
		return fmt.Errorf("worker factory required")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == Terminated {
		return ErrTerminated
	}
	if b.worker != nil {
		old := b.worker
		b.worker = nil
		b.pending = nil
		b.state = Uninitialized
		if err := old.Close(); err != nil {
			b.logger.Warn("uci_worker_close_error", zap.Error(err))
		}
	}

	w, err := b.factory(ctx)
	if err != nil {
		return fmt.Errorf("start worker: %w", err)
	}
	b.worker = w
	b.state = Ready
	go b.read(w)
	b.logger.Info("uci_worker_ready")
	return nil
}

// Analyze sends "position fen" and "go" for fen. It does not wait for the
// engine; results arrive through the handler.
func (b *Bridge) Analyze(fen string) (uint64, error) {
	goTokens, err := buildGoTokens(b.limits)
	if err != nil {
		return 0, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state != Ready || b.worker == nil {
		b.logger.Debug("uci_analyze_dropped", zap.String("state", b.state.String()))
		return 0, ErrWorkerUnavailable
	}

	b.seq++
	id := b.seq
	if err := b.worker.Send(buildPositionCommand(fen)); err != nil {
		return 0, fmt.Errorf("send position: %w", err)
	}
	goCmd := strings.Join(goTokens, " ")
	if err := b.worker.Send(goCmd); err != nil {
		return 0, fmt.Errorf("send go: %w", err)
	}
	b.pending = append(b.pending, request{id: id, fen: fen})
	b.logger.Debug("uci_analyze",
		zap.Uint64("request_id", id),
		zap.String("fen", fen),
		zap.String("go", goCmd),
	)
	return id, nil
}

// Close terminates the worker without draining pending commands. Only the
// first call has an effect.
func (b *Bridge) Close() error {
	b.mu.Lock()
	if b.state == Terminated {
		b.mu.Unlock()
		return nil
	}
	w := b.worker
	b.worker = nil
	b.pending = nil
	b.state = Terminated
	b.mu.Unlock()

	b.logger.Info("uci_worker_terminated")
	if w == nil {
		return nil
	}
	return w.Close()
}

func (b *Bridge) read(w Worker) {
	for line := range w.Lines() {
		b.dispatch(w, line)
	}

	b.mu.Lock()
	if b.worker == w {
		b.worker = nil
		b.pending = nil
		if b.state == Ready {
			b.state = Uninitialized
		}
		b.mu.Unlock()
		b.logger.Warn("uci_worker_exited")
		_ = w.Close()
		return
	}
	b.mu.Unlock()
}

func (b *Bridge) dispatch(w Worker, raw string) {
	line := ParseLine(raw)
	if line.Kind == LineOther {
		return
	}

	b.mu.Lock()
	if b.worker != w || len(b.pending) == 0 {
		b.mu.Unlock()
		return
	}
	head := b.pending[0]
	if line.Kind == LineBestMove || line.Kind == LineSearchEnd {
		b.pending = b.pending[1:]
	}
	latest := b.seq
	handler := b.handler
	b.mu.Unlock()

	if head.id != latest {
		b.logger.Debug("uci_stale_output", zap.Uint64("request_id", head.id), zap.Uint64("latest", latest))
		return
	}
	if handler == nil || line.Kind == LineSearchEnd {
		return
	}

	res := Result{RequestID: head.id, FEN: head.fen}
	switch line.Kind {
	case LineBestMove:
		mv := line.Move
		res.BestMove = &mv
	case LineScore:
		sc := line.Score
		res.Score = &sc
	}
	handler(res)
}
