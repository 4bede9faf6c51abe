package eval

import (
	"math"
	"testing"

	"github.com/park285/cheese-board/internal/chess/board"
)

func TestFromScore(t *testing.T) {
	tests := []struct {
		name  string
		score Score
		side  board.Color
		want  Evaluation
	}{
		{"cp white to move", Score{Kind: Centipawns, Value: 35}, board.White, PawnsOf(-0.35)},
		{"cp black to move", Score{Kind: Centipawns, Value: 35}, board.Black, PawnsOf(0.35)},
		{"negative cp white", Score{Kind: Centipawns, Value: -120}, board.White, PawnsOf(1.2)},
		{"mate negative", Score{Kind: Mate, Value: -3}, board.White, MateOf(3)},
		{"mate positive black", Score{Kind: Mate, Value: 5}, board.Black, MateOf(5)},
		{"unknown kind", Score{}, board.White, Evaluation{}},
	}
	for _, tt := range tests {
		got := FromScore(tt.score, tt.side)
		if got.Kind != tt.want.Kind || got.MateIn != tt.want.MateIn || math.Abs(got.Pawns-tt.want.Pawns) > 1e-9 {
			t.Fatalf("%s: got %+v want %+v", tt.name, got, tt.want)
		}
	}
}

func TestLabel(t *testing.T) {
	if got := PawnsOf(-0.35).Label(); got != "-0.35" {
		t.Fatalf("pawn label %q", got)
	}
	if got := MateOf(-3).Label(); got != "M3" {
		t.Fatalf("mate label %q", got)
	}
	if got := FromScore(Score{Kind: Centipawns, Value: 0}, board.White).Label(); got != "0.00" {
		t.Fatalf("level score with White to move = %q", got)
	}
	if got := (Evaluation{}).Label(); got != "" {
		t.Fatalf("empty label %q", got)
	}
}

func TestWinProbability(t *testing.T) {
	if got := WinProbability(Evaluation{}); got != 50 {
		t.Fatalf("absent = %v", got)
	}
	if got := WinProbability(PawnsOf(0)); got != 50 {
		t.Fatalf("zero = %v", got)
	}
	if got := WinProbability(MateOf(2)); got != 50 {
		t.Fatalf("mate = %v", got)
	}
	// s=4 gives 100/11
	if got := WinProbability(PawnsOf(4)); math.Abs(got-100.0/11) > 1e-9 {
		t.Fatalf("s=4: %v", got)
	}
	prev := 101.0
	for s := -20.0; s <= 20; s += 0.5 {
		p := WinProbability(PawnsOf(s))
		if p < 0 || p > 100 {
			t.Fatalf("s=%v out of range: %v", s, p)
		}
		if p > prev {
			t.Fatalf("not monotonically decreasing at s=%v", s)
		}
		prev = p
	}
}
