package board

import (
	"fmt"
	"strings"
)

// File is a board column, 0 = a through 7 = h.
type File int8

// Rank is a board row, 0 = rank 1 through 7 = rank 8.
type Rank int8

const (
	FileA File = iota
	FileB
	FileC
	FileD
	FileE
	FileF
	FileG
	FileH
)

const (
	Rank1 Rank = iota
	Rank2
	Rank3
	Rank4
	Rank5
	Rank6
	Rank7
	Rank8
)

func (f File) Valid() bool { return f >= FileA && f <= FileH }
func (r Rank) Valid() bool { return r >= Rank1 && r <= Rank8 }

func (f File) String() string { return string(rune('a' + f)) }
func (r Rank) String() string { return string(rune('1' + r)) }

// Square identifies one of the 64 board squares.
type Square struct {
	File File
	Rank Rank
}

func NewSquare(f File, r Rank) Square { return Square{File: f, Rank: r} }

func (s Square) Valid() bool { return s.File.Valid() && s.Rank.Valid() }

// Index is rank*8+file, the same layout the rules library uses.
func (s Square) Index() int { return int(s.Rank)*8 + int(s.File) }

func (s Square) String() string {
	if !s.Valid() {
		return "-"
	}
	return s.File.String() + s.Rank.String()
}

// FromIndex is the inverse of Index.
func FromIndex(i int) Square {
	return Square{File: File(i % 8), Rank: Rank(i / 8)}
}

// FromGrid maps a display grid cell to its square. Row 0 is rank 8 and
// column 0 is file a, matching Snapshot's layout.
func FromGrid(row, col int) (Square, error) {
	if row < 0 || row > 7 || col < 0 || col > 7 {
		return Square{}, fmt.Errorf("grid cell %d,%d out of range", row, col)
	}
	return Square{File: File(col), Rank: Rank(7 - row)}, nil
}

// Grid returns the display row and column of s.
func (s Square) Grid() (row, col int) {
	return 7 - int(s.Rank), int(s.File)
}

// ParseSquare accepts algebraic coordinates such as "e4" (case-insensitive).
func ParseSquare(raw string) (Square, error) {
	v := strings.ToLower(strings.TrimSpace(raw))
	if len(v) != 2 {
		return Square{}, fmt.Errorf("invalid square %q", raw)
	}
	sq := Square{File: File(v[0] - 'a'), Rank: Rank(v[1] - '1')}
	if v[0] < 'a' || v[1] < '1' || !sq.Valid() {
		return Square{}, fmt.Errorf("invalid square %q", raw)
	}
	return sq, nil
}

// SquareSet is a set of squares keyed by Index. Membership is exact on
// both file and rank.
type SquareSet uint64

func (s SquareSet) Has(sq Square) bool {
	if !sq.Valid() {
		return false
	}
	return s&(1<<uint(sq.Index())) != 0
}

func (s SquareSet) Add(sq Square) SquareSet {
	if !sq.Valid() {
		return s
	}
	return s | 1<<uint(sq.Index())
}

func (s SquareSet) Len() int {
	n := 0
	for v := uint64(s); v != 0; v &= v - 1 {
		n++
	}
	return n
}

func (s SquareSet) Empty() bool { return s == 0 }

// Squares lists members in index order (a1, b1, ... h8).
func (s SquareSet) Squares() []Square {
	out := make([]Square, 0, s.Len())
	for i := 0; i < 64; i++ {
		if s&(1<<uint(i)) != 0 {
			out = append(out, FromIndex(i))
		}
	}
	return out
}

func (s SquareSet) Strings() []string {
	sqs := s.Squares()
	out := make([]string, len(sqs))
	for i, sq := range sqs {
		out[i] = sq.String()
	}
	return out
}

// Move is a from/to coordinate pair.
type Move struct {
	From Square
	To   Square
}

func (m Move) String() string { return m.From.String() + m.To.String() }

// ParseUCIMove reads the first four characters of a UCI move ("e2e4",
// "e7e8q"); any promotion suffix is ignored.
func ParseUCIMove(raw string) (Move, error) {
	v := strings.TrimSpace(raw)
	if len(v) < 4 {
		return Move{}, fmt.Errorf("invalid uci move %q", raw)
	}
	from, err := ParseSquare(v[0:2])
	if err != nil {
		return Move{}, fmt.Errorf("invalid uci move %q: %w", raw, err)
	}
	to, err := ParseSquare(v[2:4])
	if err != nil {
		return Move{}, fmt.Errorf("invalid uci move %q: %w", raw, err)
	}
	return Move{From: from, To: to}, nil
}
