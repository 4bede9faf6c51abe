package play

import (
	"fmt"
	"strings"

	"github.com/park285/cheese-board/internal/chess/board"
)

// EngineSide selects which colour the engine's best move is played for.
type EngineSide string

const (
	EngineNone  EngineSide = "none"
	EngineWhite EngineSide = "white"
	EngineBlack EngineSide = "black"
	EngineBoth  EngineSide = "both"
)

func ParseEngineSide(raw string) (EngineSide, error) {
	switch s := EngineSide(strings.ToLower(strings.TrimSpace(raw))); s {
	case EngineNone, EngineWhite, EngineBlack, EngineBoth:
		return s, nil
	case "":
		return EngineBlack, nil
	default:
		return "", fmt.Errorf("unknown engine side %q", raw)
	}
}

// Plays reports whether the engine moves for c.
func (s EngineSide) Plays(c board.Color) bool {
	switch s {
	case EngineBoth:
		return c != board.NoColor
	case EngineWhite:
		return c == board.White
	case EngineBlack:
		return c == board.Black
	default:
		return false
	}
}
