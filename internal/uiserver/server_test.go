package uiserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/park285/cheese-board/internal/chess/board"
	"github.com/park285/cheese-board/internal/chess/position"
	"github.com/park285/cheese-board/internal/chess/selection"
	"github.com/park285/cheese-board/internal/service/boardimg"
	"github.com/park285/cheese-board/internal/service/play"
	"github.com/park285/cheese-board/pkg/chessdto"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	svc, err := play.NewService(play.Config{EngineSide: play.EngineNone}, nil)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	ts := httptest.NewServer(New(svc, boardimg.NewRenderer(boardimg.WithSquareSize(24)), nil).Handler())
	t.Cleanup(ts.Close)
	return ts
}

func postJSON(t *testing.T, url string, body any, out any) int {
	t.Helper()
	raw, _ := json.Marshal(body)
	resp, err := http.Post(url, "application/json", bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode: %v", err)
		}
	}
	return resp.StatusCode
}

func TestClickFlow(t *testing.T) {
	ts := newTestServer(t)

	var sel chessdto.ClickResponse
	if code := postJSON(t, ts.URL+"/api/click", chessdto.ClickRequest{Square: "e2"}, &sel); code != http.StatusOK {
		t.Fatalf("status %d", code)
	}
	if sel.Action != "select" || strings.Join(sel.State.Hints, ",") != "e3,e4" {
		t.Fatalf("select response = %+v", sel)
	}

	row, col := 4, 4
	var commit chessdto.ClickResponse
	if code := postJSON(t, ts.URL+"/api/click", chessdto.ClickRequest{Row: &row, Col: &col}, &commit); code != http.StatusOK {
		t.Fatalf("status %d", code)
	}
	if commit.Action != "commit" || commit.Move != "e2e4" || commit.State.SideToMove != "black" {
		t.Fatalf("commit response = %+v", commit)
	}

	resp, err := http.Get(ts.URL + "/api/state")
	if err != nil {
		t.Fatalf("GET state: %v", err)
	}
	defer resp.Body.Close()
	var st chessdto.StateResponse
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if st.State.Rows[4][4] != "wP" || st.State.Ply != 1 {
		t.Fatalf("state = %+v", st.State)
	}
}

func TestClickBadSquare(t *testing.T) {
	ts := newTestServer(t)
	var body chessdto.ErrorBody
	if code := postJSON(t, ts.URL+"/api/click", chessdto.ClickRequest{Square: "z9"}, &body); code != http.StatusBadRequest {
		t.Fatalf("status %d", code)
	}
	if body.Code != "bad_square" {
		t.Fatalf("body = %+v", body)
	}
	row, col := 8, 0
	if code := postJSON(t, ts.URL+"/api/click", chessdto.ClickRequest{Row: &row, Col: &col}, &body); code != http.StatusBadRequest {
		t.Fatalf("grid status %d", code)
	}
}

// rejectingBoard turns every click into a commit the rules refuse.
type rejectingBoard struct {
	*play.Service
}

func (b rejectingBoard) Click(sq board.Square) (selection.Decision, error) {
	mv, _ := board.ParseUCIMove("e2e5")
	return selection.Decision{Action: selection.Commit, Move: mv}, position.ErrIllegalMove
}

func TestClickIllegalMoveIsNotAFailure(t *testing.T) {
	svc, err := play.NewService(play.Config{EngineSide: play.EngineNone}, nil)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	ts := httptest.NewServer(New(rejectingBoard{svc}, nil, nil).Handler())
	t.Cleanup(ts.Close)

	var resp chessdto.ClickResponse
	if code := postJSON(t, ts.URL+"/api/click", chessdto.ClickRequest{Square: "e5"}, &resp); code != http.StatusOK {
		t.Fatalf("status %d", code)
	}
	if resp.Action != "none" || resp.Move != "" || resp.State == nil || resp.State.Ply != 0 {
		t.Fatalf("response = %+v", resp)
	}
}

func TestResetRejectsBadFEN(t *testing.T) {
	ts := newTestServer(t)
	if code := postJSON(t, ts.URL+"/api/reset", chessdto.ResetRequest{FEN: "garbage"}, nil); code != http.StatusBadRequest {
		t.Fatalf("status %d", code)
	}
	var st chessdto.StateResponse
	if code := postJSON(t, ts.URL+"/api/reset", chessdto.ResetRequest{}, &st); code != http.StatusOK {
		t.Fatalf("status %d", code)
	}
	if st.State == nil || st.State.Ply != 0 {
		t.Fatalf("state = %+v", st.State)
	}
}

func TestBoardPNG(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/board.png")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK || resp.Header.Get("Content-Type") != "image/png" {
		t.Fatalf("status %d type %q", resp.StatusCode, resp.Header.Get("Content-Type"))
	}
}

func TestWebSocketPushesViews(t *testing.T) {
	ts := newTestServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, ts.URL+"/ws", nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.CloseNow()

	var first chessdto.StateResponse
	if err := wsjson.Read(ctx, conn, &first); err != nil {
		t.Fatalf("read initial: %v", err)
	}
	if first.State == nil || first.State.SideToMove != "white" {
		t.Fatalf("initial = %+v", first.State)
	}

	postJSON(t, ts.URL+"/api/click", chessdto.ClickRequest{Square: "b1"}, nil)

	var next chessdto.StateResponse
	if err := wsjson.Read(ctx, conn, &next); err != nil {
		t.Fatalf("read push: %v", err)
	}
	if next.State.Selected != "b1" || strings.Join(next.State.Hints, ",") != "a3,c3" {
		t.Fatalf("pushed = %+v", next.State)
	}
	conn.Close(websocket.StatusNormalClosure, "")
}
