package uci

import (
	"strconv"
	"strings"

	"github.com/park285/cheese-board/internal/chess/board"
	"github.com/park285/cheese-board/internal/chess/eval"
)

type LineKind int

const (
	LineOther LineKind = iota
	LineBestMove
	LineScore
	// LineSearchEnd is a "bestmove" line without a usable move, such as
	// "bestmove (none)". It still ends the search.
	LineSearchEnd
)

// Line is one engine output line reduced to what the board needs.
type Line struct {
	Kind  LineKind
	Move  board.Move
	Score eval.Score
}

// ParseLine recognizes "bestmove <uci> ..." and "info ... score cp|mate N"
// lines. A bestmove without a readable move is LineSearchEnd. Everything
// else, including secondary multipv lines, comes back as LineOther.
func ParseLine(raw string) Line {
	parts := strings.Fields(raw)
	if len(parts) == 0 {
		return Line{}
	}
	if parts[0] == "bestmove" {
		if len(parts) < 2 {
			return Line{Kind: LineSearchEnd}
		}
		mv, err := board.ParseUCIMove(parts[1])
		if err != nil {
			return Line{Kind: LineSearchEnd}
		}
		return Line{Kind: LineBestMove, Move: mv}
	}
	return parseScore(parts)
}

func parseScore(parts []string) Line {
	hasInfo := false
	scoreIdx := -1
	for i, p := range parts {
		switch p {
		case "info":
			hasInfo = true
		case "score":
			if scoreIdx == -1 {
				scoreIdx = i
			}
		case "multipv":
			if i+1 < len(parts) {
				if n, err := strconv.Atoi(parts[i+1]); err == nil && n > 1 {
					return Line{}
				}
			}
		}
	}
	if !hasInfo || scoreIdx == -1 || scoreIdx+2 >= len(parts) {
		return Line{}
	}

	v, err := strconv.Atoi(parts[scoreIdx+2])
	if err != nil {
		return Line{}
	}
	switch parts[scoreIdx+1] {
	case "cp":
		return Line{Kind: LineScore, Score: eval.Score{Kind: eval.Centipawns, Value: v}}
	case "mate":
		return Line{Kind: LineScore, Score: eval.Score{Kind: eval.Mate, Value: v}}
	default:
		return Line{}
	}
}
