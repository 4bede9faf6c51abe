package board

import "strings"

// Color is a side. NoColor marks an empty square.
type Color int8

const (
	NoColor Color = iota
	White
	Black
)

func (c Color) String() string {
	switch c {
	case White:
		return "white"
	case Black:
		return "black"
	default:
		return ""
	}
}

// Other returns the opposing side.
func (c Color) Other() Color {
	switch c {
	case White:
		return Black
	case Black:
		return White
	default:
		return NoColor
	}
}

func ParseColor(raw string) Color {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "white", "w":
		return White
	case "black", "b":
		return Black
	default:
		return NoColor
	}
}

type Kind int8

const (
	NoKind Kind = iota
	Pawn
	Knight
	Bishop
	Rook
	Queen
	King
)

// Letter is the upper-case piece letter used in FEN and asset names.
func (k Kind) Letter() string {
	switch k {
	case Pawn:
		return "P"
	case Knight:
		return "N"
	case Bishop:
		return "B"
	case Rook:
		return "R"
	case Queen:
		return "Q"
	case King:
		return "K"
	default:
		return ""
	}
}

func (k Kind) String() string {
	switch k {
	case Pawn:
		return "pawn"
	case Knight:
		return "knight"
	case Bishop:
		return "bishop"
	case Rook:
		return "rook"
	case Queen:
		return "queen"
	case King:
		return "king"
	default:
		return ""
	}
}

type Piece struct {
	Color Color
	Kind  Kind
}

func (p Piece) Empty() bool { return p.Kind == NoKind || p.Color == NoColor }

// Code is the two-letter identity used for assets, e.g. "wK" or "bP".
func (p Piece) Code() string {
	if p.Empty() {
		return ""
	}
	if p.Color == White {
		return "w" + p.Kind.Letter()
	}
	return "b" + p.Kind.Letter()
}

// Snapshot is a read-only 8x8 view. Row 0 is rank 8 and column 0 is
// file a.
type Snapshot [8][8]Piece

func (s *Snapshot) At(sq Square) Piece {
	if !sq.Valid() {
		return Piece{}
	}
	row, col := sq.Grid()
	return s[row][col]
}

func (s *Snapshot) Set(sq Square, p Piece) {
	if !sq.Valid() {
		return
	}
	row, col := sq.Grid()
	s[row][col] = p
}

// String renders the board as eight lines of FEN-like letters, '.' for
// empty squares.
func (s *Snapshot) String() string {
	var sb strings.Builder
	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			p := s[row][col]
			switch {
			case p.Empty():
				sb.WriteByte('.')
			case p.Color == White:
				sb.WriteString(p.Kind.Letter())
			default:
				sb.WriteString(strings.ToLower(p.Kind.Letter()))
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
