package uci

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/park285/cheese-board/internal/chess/eval"
)

type fakeWorker struct {
	mu     sync.Mutex
	sent   []string
	lines  chan string
	closes int
	once   sync.Once
}

func newFakeWorker() *fakeWorker { return &fakeWorker{lines: make(chan string, 32)} }

func (f *fakeWorker) Send(cmd string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, cmd)
	return nil
}

func (f *fakeWorker) Lines() <-chan string { return f.lines }

func (f *fakeWorker) Close() error {
	f.mu.Lock()
	f.closes++
	f.mu.Unlock()
	f.exit()
	return nil
}

func (f *fakeWorker) exit() { f.once.Do(func() { close(f.lines) }) }

func (f *fakeWorker) commands() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.sent...)
}

func (f *fakeWorker) closeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closes
}

type harness struct {
	bridge  *Bridge
	workers []*fakeWorker
	results chan Result
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{results: make(chan Result, 32)}
	factory := func(ctx context.Context) (Worker, error) {
		w := newFakeWorker()
		h.workers = append(h.workers, w)
		return w, nil
	}
	h.bridge = NewBridge(factory, func(r Result) { h.results <- r })
	t.Cleanup(func() { _ = h.bridge.Close() })
	return h
}

func (h *harness) next(t *testing.T) Result {
	t.Helper()
	select {
	case r := <-h.results:
		return r
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for result")
		return Result{}
	}
}

func (h *harness) expectNone(t *testing.T) {
	t.Helper()
	select {
	case r := <-h.results:
		t.Fatalf("unexpected result %+v", r)
	case <-time.After(50 * time.Millisecond):
	}
}

const afterE4 = "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq - 0 1"

func TestAnalyzeBeforeStart(t *testing.T) {
	h := newHarness(t)
	if _, err := h.bridge.Analyze(afterE4); !errors.Is(err, ErrWorkerUnavailable) {
		t.Fatalf("expected ErrWorkerUnavailable, got %v", err)
	}
	if h.bridge.State() != Uninitialized {
		t.Fatalf("state = %s", h.bridge.State())
	}
}

func TestAnalyzeSendsPositionThenGo(t *testing.T) {
	h := newHarness(t)
	if err := h.bridge.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	id, err := h.bridge.Analyze(afterE4)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if id != 1 {
		t.Fatalf("first request id = %d", id)
	}
	cmds := h.workers[0].commands()
	if len(cmds) != 2 || cmds[0] != "position fen "+afterE4 || cmds[1] != "go depth 15" {
		t.Fatalf("commands = %q", cmds)
	}
}

func TestResultsDelivered(t *testing.T) {
	h := newHarness(t)
	if err := h.bridge.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	id, err := h.bridge.Analyze(afterE4)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	w := h.workers[0]
	w.lines <- "info string hello"
	w.lines <- "info depth 15 score cp 35 pv e7e5"
	w.lines <- "bestmove e7e5 ponder g1f3"

	r := h.next(t)
	if r.RequestID != id || r.Score == nil || *r.Score != (eval.Score{Kind: eval.Centipawns, Value: 35}) {
		t.Fatalf("score result = %+v", r)
	}
	if r.FEN != afterE4 {
		t.Fatalf("fen = %q", r.FEN)
	}
	r = h.next(t)
	if r.BestMove == nil || r.BestMove.String() != "e7e5" {
		t.Fatalf("bestmove result = %+v", r)
	}
	h.expectNone(t)
}

func TestSupersededRequestDiscarded(t *testing.T) {
	h := newHarness(t)
	if err := h.bridge.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := h.bridge.Analyze("fen-one"); err != nil {
		t.Fatalf("Analyze 1: %v", err)
	}
	second, err := h.bridge.Analyze("fen-two")
	if err != nil {
		t.Fatalf("Analyze 2: %v", err)
	}
	w := h.workers[0]
	w.lines <- "info depth 5 score cp 10"
	w.lines <- "bestmove a7a6"
	w.lines <- "info depth 5 score cp 20"
	w.lines <- "bestmove b7b6"

	r := h.next(t)
	if r.RequestID != second || r.Score == nil || r.Score.Value != 20 {
		t.Fatalf("expected request %d cp 20, got %+v", second, r)
	}
	r = h.next(t)
	if r.BestMove == nil || r.BestMove.String() != "b7b6" {
		t.Fatalf("expected b7b6, got %+v", r)
	}
}

func TestSearchWithoutMoveKeepsCorrelation(t *testing.T) {
	h := newHarness(t)
	if err := h.bridge.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := h.bridge.Analyze("mated-fen"); err != nil {
		t.Fatalf("Analyze 1: %v", err)
	}
	w := h.workers[0]
	w.lines <- "bestmove (none)"
	h.expectNone(t)

	id, err := h.bridge.Analyze(afterE4)
	if err != nil {
		t.Fatalf("Analyze 2: %v", err)
	}
	w.lines <- "bestmove e7e5"
	r := h.next(t)
	if r.RequestID != id || r.BestMove == nil || r.BestMove.String() != "e7e5" {
		t.Fatalf("got %+v", r)
	}
}

func TestCloseTerminatesOnce(t *testing.T) {
	h := newHarness(t)
	if err := h.bridge.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := h.bridge.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := h.bridge.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if got := h.workers[0].closeCount(); got != 1 {
		t.Fatalf("worker closed %d times", got)
	}
	if h.bridge.State() != Terminated {
		t.Fatalf("state = %s", h.bridge.State())
	}
	if _, err := h.bridge.Analyze(afterE4); !errors.Is(err, ErrWorkerUnavailable) {
		t.Fatalf("expected ErrWorkerUnavailable after close, got %v", err)
	}
	if err := h.bridge.Start(context.Background()); !errors.Is(err, ErrTerminated) {
		t.Fatalf("expected ErrTerminated, got %v", err)
	}
}

func TestRestartReleasesPreviousWorker(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	if err := h.bridge.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := h.bridge.Start(ctx); err != nil {
		t.Fatalf("restart: %v", err)
	}
	if len(h.workers) != 2 {
		t.Fatalf("factory calls = %d", len(h.workers))
	}
	if h.workers[0].closeCount() != 1 {
		t.Fatalf("old worker not released")
	}
	if h.workers[1].closeCount() != 0 {
		t.Fatalf("new worker closed early")
	}
}

func TestWorkerExitFallsBackToUnavailable(t *testing.T) {
	h := newHarness(t)
	if err := h.bridge.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	h.workers[0].exit()

	deadline := time.Now().Add(2 * time.Second)
	for h.bridge.State() != Uninitialized {
		if time.Now().After(deadline) {
			t.Fatalf("bridge still %s after worker exit", h.bridge.State())
		}
		time.Sleep(5 * time.Millisecond)
	}
	if _, err := h.bridge.Analyze(afterE4); !errors.Is(err, ErrWorkerUnavailable) {
		t.Fatalf("expected ErrWorkerUnavailable, got %v", err)
	}
}

func TestFactoryErrorLeavesBridgeUninitialized(t *testing.T) {
	b := NewBridge(func(ctx context.Context) (Worker, error) {
		return nil, errors.New("no engine")
	}, nil)
	if err := b.Start(context.Background()); err == nil {
		t.Fatalf("expected start error")
	}
	if b.State() != Uninitialized {
		t.Fatalf("state = %s", b.State())
	}
}
