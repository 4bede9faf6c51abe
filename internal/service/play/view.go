package play

import (
	"strings"

	"github.com/park285/cheese-board/internal/chess/board"
	"github.com/park285/cheese-board/internal/chess/eval"
	"github.com/park285/cheese-board/pkg/chessdto"
)

// View returns the current board state.
func (s *Service) View() chessdto.BoardState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

func (s *Service) viewLocked() chessdto.BoardState {
	snap := s.store.Board()
	side := s.store.SideToMove()

	v := chessdto.BoardState{
		SessionID:   s.id,
		SessionName: s.name,
		FEN:         s.store.FEN(),
		SideToMove:  side.String(),
		Ply:         s.store.Ply(),
		Hints:       []string{},
		MovesUCI:    s.store.History(),
		Engine: chessdto.EngineView{
			Side:     string(s.cfg.EngineSide),
			Thinking: s.thinking,
		},
	}
	if s.engineStatus != nil {
		v.Engine.State = s.engineStatus()
	}
	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			v.Rows[row][col] = snap[row][col].Code()
		}
	}

	if st := s.sel.State(); st.Selected {
		v.Selected = st.Square.String()
		v.Hints = st.Hints.Strings()
	}
	if s.lastMove != nil {
		v.LastMove = s.lastMove.String()
	}

	v.Eval = chessdto.EvalView{
		Present:        s.evaluation.Present(),
		Label:          s.evaluation.Label(),
		Pawns:          s.evaluation.Pawns,
		MateIn:         s.evaluation.MateIn,
		WinProbability: eval.WinProbability(s.barEval),
	}
	if !v.Eval.Present {
		v.Eval.Label = s.catalog.Text("eval.none", nil, "")
	}
	if s.bestMove != nil {
		v.Eval.BestMove = s.catalog.Text("eval.best_move", map[string]any{"Move": s.bestMove.String()}, s.bestMove.String())
	}

	if code, title := s.store.Opening(); code != "" {
		v.Opening = s.catalog.Text("opening.label", map[string]any{"Code": code, "Title": title}, code+" "+title)
	}

	result, method := s.store.Outcome()
	v.Outcome = result
	v.Status = s.statusText(side, result, method)
	return v
}

func (s *Service) statusText(side board.Color, result, method string) string {
	if result != "" {
		data := map[string]any{"Result": result, "Method": method}
		return s.catalog.Text("status.outcome", data, "game over "+result)
	}
	data := map[string]any{"Side": sideLabel(side)}
	switch {
	case s.thinking:
		return s.catalog.Text("status.thinking", data, sideLabel(side)+" to move")
	case s.engineDown:
		return s.catalog.Text("status.engine_offline", data, sideLabel(side)+" to move")
	default:
		return s.catalog.Text("status.to_move", data, sideLabel(side)+" to move")
	}
}

func sideLabel(c board.Color) string {
	name := c.String()
	if name == "" {
		return ""
	}
	return strings.ToUpper(name[:1]) + name[1:]
}
