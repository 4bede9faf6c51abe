// Package eval turns engine scores into White-perspective evaluations and
// the win-probability percentage shown on the evaluation bar.
package eval

import (
	"fmt"
	"math"

	"github.com/park285/cheese-board/internal/chess/board"
)

type ScoreKind int8

const (
	Centipawns ScoreKind = iota + 1
	Mate
)

func (k ScoreKind) String() string {
	switch k {
	case Centipawns:
		return "cp"
	case Mate:
		return "mate"
	default:
		return ""
	}
}

// Score is a raw engine score, relative to the side to move.
type Score struct {
	Kind  ScoreKind
	Value int
}

type Kind int8

const (
	NoEvaluation Kind = iota
	PawnsEval
	MateEval
)

// Evaluation is the zero value when no analysis has arrived yet.
type Evaluation struct {
	Kind   Kind
	Pawns  float64
	MateIn int
}

func (e Evaluation) Present() bool { return e.Kind != NoEvaluation }

func (e Evaluation) IsMate() bool { return e.Kind == MateEval }

// Label is "-0.35" for pawn scores and "M3" for mate counts.
func (e Evaluation) Label() string {
	switch e.Kind {
	case PawnsEval:
		return fmt.Sprintf("%.2f", e.Pawns)
	case MateEval:
		return fmt.Sprintf("M%d", e.MateIn)
	default:
		return ""
	}
}

func PawnsOf(v float64) Evaluation { return Evaluation{Kind: PawnsEval, Pawns: v} }

func MateOf(n int) Evaluation {
	if n < 0 {
		n = -n
	}
	return Evaluation{Kind: MateEval, MateIn: n}
}

// FromScore normalizes a score read while side was to move. Centipawn
// scores are negated when White is to move and kept as-is for Black; mate
// counts keep only their magnitude.
func FromScore(s Score, side board.Color) Evaluation {
	switch s.Kind {
	case Centipawns:
		v := float64(s.Value) / 100
		if side == board.White && s.Value != 0 {
			v = -v
		}
		return PawnsOf(v)
	case Mate:
		return MateOf(s.Value)
	default:
		return Evaluation{}
	}
}

// WinProbability maps an evaluation to 100 / (1 + 10^(s/4)). Absent and
// mate evaluations return 50; callers keep the last pawn evaluation for the
// bar while a mate label is shown.
func WinProbability(e Evaluation) float64 {
	if e.Kind != PawnsEval {
		return 50
	}
	p := 100 / (1 + math.Pow(10, e.Pawns/4))
	switch {
	case math.IsNaN(p):
		return 50
	case p < 0:
		return 0
	case p > 100:
		return 100
	}
	return p
}
