// Package selection tracks which square is selected on the board and the
// legal destinations hinted from it.
package selection

import "github.com/park285/cheese-board/internal/chess/board"

// Position is the read side of the position store the machine consults.
type Position interface {
	SideToMove() board.Color
	PieceAt(sq board.Square) board.Piece
	LegalDestinations(sq board.Square) board.SquareSet
}

type Action int

const (
	None Action = iota
	Select
	Deselect
	Commit
)

func (a Action) String() string {
	switch a {
	case Select:
		return "select"
	case Deselect:
		return "deselect"
	case Commit:
		return "commit"
	default:
		return "none"
	}
}

// Decision is what a click resolved to. Move is set only for Commit.
type Decision struct {
	Action Action
	Move   board.Move
}

// State is Idle when Selected is false.
type State struct {
	Selected bool
	Square   board.Square
	Hints    board.SquareSet
}

type Machine struct {
	state State
}

func (m *Machine) State() State { return m.state }

// Reset returns to Idle with no hints.
func (m *Machine) Reset() { m.state = State{} }

// Click advances the machine. A Commit decision leaves the machine Idle;
// the caller applies the move.
func (m *Machine) Click(sq board.Square, pos Position) Decision {
	if !sq.Valid() || pos == nil {
		return Decision{}
	}
	if m.state.Selected && m.state.Hints.Has(sq) {
		mv := board.Move{From: m.state.Square, To: sq}
		m.Reset()
		return Decision{Action: Commit, Move: mv}
	}
	if ownPiece(pos, sq) {
		m.state = State{Selected: true, Square: sq, Hints: pos.LegalDestinations(sq)}
		return Decision{Action: Select}
	}
	if m.state.Selected {
		m.Reset()
		return Decision{Action: Deselect}
	}
	return Decision{}
}

func ownPiece(pos Position, sq board.Square) bool {
	p := pos.PieceAt(sq)
	return !p.Empty() && p.Color == pos.SideToMove()
}
