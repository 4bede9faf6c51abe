package boardclient

import (
	"context"
	"errors"
	"strings"
	"time"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/park285/cheese-board/pkg/chessdto"
)

// ErrStopWatch returned from the view callback ends Run without error.
var ErrStopWatch = errors.New("stop watching")

// Watcher follows board views pushed over /ws and reconnects with backoff
// when the connection drops.
type Watcher struct {
	wsURL       string
	maxAttempts int
}

func NewWatcher(baseURL string, maxReconnectAttempts int) *Watcher {
	u := strings.TrimRight(baseURL, "/")
	switch {
	case strings.HasPrefix(u, "http://"):
		u = "ws://" + strings.TrimPrefix(u, "http://")
	case strings.HasPrefix(u, "https://"):
		u = "wss://" + strings.TrimPrefix(u, "https://")
	}
	return &Watcher{wsURL: u + "/ws", maxAttempts: maxReconnectAttempts}
}

// Run calls fn for every view until ctx is done, fn returns an error, or
// reconnect attempts are exhausted.
func (w *Watcher) Run(ctx context.Context, fn func(chessdto.BoardState) error) error {
	failures := 0
	for {
		err := w.session(ctx, fn, &failures)
		if ctx.Err() != nil {
			return nil
		}
		var stop stopError
		if errors.As(err, &stop) {
			if errors.Is(stop.err, ErrStopWatch) {
				return nil
			}
			return stop.err
		}
		failures++
		if failures > w.maxAttempts {
			return err
		}
		if sleepErr := sleepWithContext(ctx, backoffDuration(failures)); sleepErr != nil {
			return nil
		}
	}
}

type stopError struct{ err error }

func (e stopError) Error() string { return e.err.Error() }

func (w *Watcher) session(ctx context.Context, fn func(chessdto.BoardState) error, failures *int) error {
	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	conn, _, err := websocket.Dial(dialCtx, w.wsURL, &websocket.DialOptions{
		CompressionMode: websocket.CompressionNoContextTakeover,
	})
	cancel()
	if err != nil {
		return err
	}
	defer conn.CloseNow()
	*failures = 0

	for {
		var msg chessdto.StateResponse
		if err := wsjson.Read(ctx, conn, &msg); err != nil {
			return err
		}
		if msg.State == nil {
			continue
		}
		if err := fn(*msg.State); err != nil {
			conn.Close(websocket.StatusNormalClosure, "done")
			return stopError{err: err}
		}
	}
}
