package uiserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/park285/cheese-board/internal/chess/board"
	"github.com/park285/cheese-board/internal/chess/position"
	"github.com/park285/cheese-board/internal/chess/selection"
	"github.com/park285/cheese-board/internal/service/play"
	"github.com/park285/cheese-board/pkg/chessdto"
)

// Board is the game surface served over HTTP.
type Board interface {
	View() chessdto.BoardState
	Click(sq board.Square) (selection.Decision, error)
	ClickGrid(row, col int) (selection.Decision, error)
	Reset(fen string) error
	Subscribe() (<-chan chessdto.BoardState, func())
}

type Renderer interface {
	RenderPNG(ctx context.Context, v chessdto.BoardState) ([]byte, error)
}

const (
	maxBodyBytes = 4 << 10
	pingInterval = 30 * time.Second
	writeTimeout = 5 * time.Second
)

type Server struct {
	board    Board
	renderer Renderer
	logger   *zap.Logger
	mux      *http.ServeMux
}

func New(b Board, r Renderer, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{board: b, renderer: r, logger: logger, mux: http.NewServeMux()}
	s.mux.HandleFunc("GET /api/state", s.handleState)
	s.mux.HandleFunc("POST /api/click", s.handleClick)
	s.mux.HandleFunc("POST /api/reset", s.handleReset)
	s.mux.HandleFunc("GET /board.png", s.handleBoardPNG)
	s.mux.HandleFunc("GET /ws", s.handleWS)
	return s
}

func (s *Server) Handler() http.Handler { return s.mux }

// ListenAndServe serves on addr until ctx is canceled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	srv := &http.Server{
		Handler:           s.mux,
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()
	s.logger.Info("http_listening", zap.String("addr", ln.Addr().String()))

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func (s *Server) handleState(w http.ResponseWriter, _ *http.Request) {
	v := s.board.View()
	writeJSON(w, http.StatusOK, chessdto.StateResponse{State: &v})
}

func (s *Server) handleClick(w http.ResponseWriter, r *http.Request) {
	var req chessdto.ClickRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid json body")
		return
	}

	var (
		d   selection.Decision
		err error
	)
	switch {
	case req.Square != "":
		sq, perr := board.ParseSquare(req.Square)
		if perr != nil {
			writeError(w, http.StatusBadRequest, "bad_square", perr.Error())
			return
		}
		d, err = s.board.Click(sq)
	case req.Row != nil && req.Col != nil:
		d, err = s.board.ClickGrid(*req.Row, *req.Col)
	default:
		writeError(w, http.StatusBadRequest, "bad_square", "square or row/col required")
		return
	}

	switch {
	case errors.Is(err, play.ErrInvalidSquare):
		writeError(w, http.StatusBadRequest, "bad_square", err.Error())
		return
	case errors.Is(err, position.ErrIllegalMove):
		// the commit was ignored and the selection cleared
		s.logger.Debug("click_move_ignored", zap.String("move", d.Move.String()), zap.Error(err))
		d = selection.Decision{Action: selection.None}
	case errors.Is(err, play.ErrGameOver):
		writeError(w, http.StatusConflict, "game_over", err.Error())
		return
	case err != nil:
		s.logger.Warn("click_failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal", err.Error())
		return
	}

	v := s.board.View()
	resp := chessdto.ClickResponse{Action: d.Action.String(), State: &v}
	if d.Action == selection.Commit {
		resp.Move = d.Move.String()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	var req chessdto.ResetRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", "invalid json body")
			return
		}
	}
	if err := s.board.Reset(req.FEN); err != nil {
		writeError(w, http.StatusBadRequest, "bad_fen", err.Error())
		return
	}
	v := s.board.View()
	writeJSON(w, http.StatusOK, chessdto.StateResponse{State: &v})
}

func (s *Server) handleBoardPNG(w http.ResponseWriter, r *http.Request) {
	if s.renderer == nil {
		writeError(w, http.StatusNotFound, "no_renderer", "board rendering disabled")
		return
	}
	img, err := s.renderer.RenderPNG(r.Context(), s.board.View())
	if err != nil {
		s.logger.Warn("render_failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "render_failed", err.Error())
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(img)
}

// handleWS pushes the current view and then every change until the peer
// goes away.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		CompressionMode: websocket.CompressionNoContextTakeover,
	})
	if err != nil {
		s.logger.Debug("ws_accept_failed", zap.Error(err))
		return
	}
	defer conn.CloseNow()

	views, cancel := s.board.Subscribe()
	defer cancel()

	ctx := conn.CloseRead(r.Context())
	if err := s.write(ctx, conn, s.board.View()); err != nil {
		return
	}

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "")
			return
		case v := <-views:
			if err := s.write(ctx, conn, v); err != nil {
				s.logger.Debug("ws_write_failed", zap.Error(err))
				return
			}
		case <-ticker.C:
			pctx, pcancel := context.WithTimeout(ctx, writeTimeout)
			err := conn.Ping(pctx)
			pcancel()
			if err != nil {
				return
			}
		}
	}
}

func (s *Server) write(ctx context.Context, conn *websocket.Conn, v chessdto.BoardState) error {
	wctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return wsjson.Write(wctx, conn, chessdto.StateResponse{State: &v})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, chessdto.ErrorBody{Code: code, Message: msg})
}
