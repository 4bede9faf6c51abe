package position

import (
	"fmt"
	"strings"
	"sync"

	nchess "github.com/corentings/chess/v2"
	"github.com/corentings/chess/v2/opening"
	"github.com/park285/cheese-board/internal/chess/board"
)

// Rules is the chess-rules collaborator. It owns legality, check and
// mate detection; the store only funnels mutations through it.
type Rules interface {
	LegalMoves(sq board.Square) []board.Square
	Move(from, to board.Square) error
	Board() board.Snapshot
	Turn() board.Color
	FEN() string
	History() []string
	Outcome() (result, method string)
	Opening() (code, title string)
}

type chessRules struct {
	game *nchess.Game
	eco  *opening.BookECO
}

// ecoBook is parsed once and only read afterwards.
var ecoBook = sync.OnceValue(opening.NewBookECO)

// NewRules builds a rules collaborator over corentings/chess. An empty fen
// (or "startpos") means the standard initial position.
func NewRules(fen string) (Rules, error) {
	fen = strings.TrimSpace(fen)
	var game *nchess.Game
	if fen == "" || fen == "startpos" {
		game = nchess.NewGame()
	} else {
		opt, err := nchess.FEN(fen)
		if err != nil {
			return nil, fmt.Errorf("parse fen: %w", err)
		}
		game = nchess.NewGame(opt)
	}
	return &chessRules{game: game, eco: ecoBook()}, nil
}

func (r *chessRules) LegalMoves(sq board.Square) []board.Square {
	if !sq.Valid() {
		return nil
	}
	from := toLibSquare(sq)
	var out []board.Square
	seen := board.SquareSet(0)
	for _, mv := range r.game.ValidMoves() {
		if mv.S1() != from {
			continue
		}
		to := fromLibSquare(mv.S2())
		// promotions produce one move per piece type
		if seen.Has(to) {
			continue
		}
		seen = seen.Add(to)
		out = append(out, to)
	}
	return out
}

func (r *chessRules) Move(from, to board.Square) error {
	uci := from.String() + to.String()
	if r.promotes(from, to) {
		uci += "q"
	}
	mv, err := nchess.UCINotation{}.Decode(r.game.Position(), uci)
	if err != nil {
		return fmt.Errorf("decode %s: %w", uci, err)
	}
	if err := r.game.Move(mv, nil); err != nil {
		return fmt.Errorf("move %s: %w", uci, err)
	}
	return nil
}

func (r *chessRules) promotes(from, to board.Square) bool {
	p := r.game.Position().Board().Piece(toLibSquare(from))
	if p.Type() != nchess.Pawn {
		return false
	}
	return (p.Color() == nchess.White && to.Rank == board.Rank8) ||
		(p.Color() == nchess.Black && to.Rank == board.Rank1)
}

func (r *chessRules) Board() board.Snapshot {
	var snap board.Snapshot
	b := r.game.Position().Board()
	for i := 0; i < 64; i++ {
		p := b.Piece(nchess.Square(i))
		if p == nchess.NoPiece {
			continue
		}
		snap.Set(board.FromIndex(i), board.Piece{Color: fromLibColor(p.Color()), Kind: fromLibKind(p.Type())})
	}
	return snap
}

func (r *chessRules) Turn() board.Color { return fromLibColor(r.game.Position().Turn()) }

func (r *chessRules) FEN() string { return r.game.FEN() }

func (r *chessRules) History() []string {
	moves := r.game.Moves()
	out := make([]string, 0, len(moves))
	for _, mv := range moves {
		out = append(out, mv.String())
	}
	return out
}

func (r *chessRules) Outcome() (string, string) {
	o := r.game.Outcome()
	if o == nchess.NoOutcome {
		return "", ""
	}
	return string(o), r.game.Method().String()
}

func (r *chessRules) Opening() (string, string) {
	if r.eco == nil {
		return "", ""
	}
	if o := r.eco.Find(r.game.Moves()); o != nil {
		return o.Code(), o.Title()
	}
	return "", ""
}

func toLibSquare(sq board.Square) nchess.Square { return nchess.Square(sq.Index()) }

func fromLibSquare(sq nchess.Square) board.Square { return board.FromIndex(int(sq)) }

func fromLibColor(c nchess.Color) board.Color {
	switch c {
	case nchess.White:
		return board.White
	case nchess.Black:
		return board.Black
	default:
		return board.NoColor
	}
}

func fromLibKind(t nchess.PieceType) board.Kind {
	switch t {
	case nchess.Pawn:
		return board.Pawn
	case nchess.Knight:
		return board.Knight
	case nchess.Bishop:
		return board.Bishop
	case nchess.Rook:
		return board.Rook
	case nchess.Queen:
		return board.Queen
	case nchess.King:
		return board.King
	default:
		return board.NoKind
	}
}
