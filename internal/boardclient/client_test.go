package boardclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/park285/cheese-board/internal/service/boardimg"
	"github.com/park285/cheese-board/internal/service/play"
	"github.com/park285/cheese-board/internal/uiserver"
	"github.com/park285/cheese-board/pkg/chessdto"
)

func newBoardServer(t *testing.T) *httptest.Server {
	t.Helper()
	svc, err := play.NewService(play.Config{EngineSide: play.EngineNone}, nil)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	ts := httptest.NewServer(uiserver.New(svc, boardimg.NewRenderer(boardimg.WithSquareSize(16)), nil).Handler())
	t.Cleanup(ts.Close)
	return ts
}

func TestClientRoundTrip(t *testing.T) {
	ts := newBoardServer(t)
	c := NewClient(ts.URL, WithTimeout(2*time.Second))
	ctx := context.Background()

	st, err := c.State(ctx)
	if err != nil {
		t.Fatalf("State: %v", err)
	}
	if st.SideToMove != "white" {
		t.Fatalf("state = %+v", st)
	}

	if _, err := c.Click(ctx, "d2"); err != nil {
		t.Fatalf("Click d2: %v", err)
	}
	resp, err := c.Click(ctx, "d4")
	if err != nil {
		t.Fatalf("Click d4: %v", err)
	}
	if resp.Action != "commit" || resp.Move != "d2d4" {
		t.Fatalf("click response = %+v", resp)
	}

	png, err := c.BoardPNG(ctx)
	if err != nil || len(png) < 8 || string(png[1:4]) != "PNG" {
		t.Fatalf("BoardPNG: %d bytes, %v", len(png), err)
	}

	st, err = c.Reset(ctx, "")
	if err != nil || st.Ply != 0 {
		t.Fatalf("Reset: %+v %v", st, err)
	}
}

func TestClientAPIError(t *testing.T) {
	ts := newBoardServer(t)
	c := NewClient(ts.URL)
	_, err := c.Click(context.Background(), "k9")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Status != http.StatusBadRequest || apiErr.Body.Code != "bad_square" {
		t.Fatalf("api error = %+v", apiErr)
	}
}

func TestClientRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"state":{"side_to_move":"black"}}`))
	}))
	defer ts.Close()

	st, err := NewClient(ts.URL, WithRetry(3)).State(context.Background())
	if err != nil {
		t.Fatalf("State: %v", err)
	}
	if st.SideToMove != "black" || calls.Load() != 2 {
		t.Fatalf("state %+v after %d calls", st, calls.Load())
	}
}

func TestWatcherReceivesViews(t *testing.T) {
	ts := newBoardServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c := NewClient(ts.URL)
	got := make(chan chessdto.BoardState, 4)
	done := make(chan error, 1)
	go func() {
		done <- NewWatcher(ts.URL, 1).Run(ctx, func(v chessdto.BoardState) error {
			got <- v
			if v.Selected == "g1" {
				return ErrStopWatch
			}
			return nil
		})
	}()

	select {
	case <-got:
	case <-ctx.Done():
		t.Fatalf("no initial view")
	}
	if _, err := c.Click(ctx, "g1"); err != nil {
		t.Fatalf("Click: %v", err)
	}
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-ctx.Done():
		t.Fatalf("watcher did not stop")
	}
}

func TestNewWatcherURL(t *testing.T) {
	if w := NewWatcher("http://localhost:8080/", 0); w.wsURL != "ws://localhost:8080/ws" {
		t.Fatalf("url = %s", w.wsURL)
	}
	if w := NewWatcher("https://board.example", 0); w.wsURL != "wss://board.example/ws" {
		t.Fatalf("url = %s", w.wsURL)
	}
}
