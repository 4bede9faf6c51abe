package uci

import (
	"fmt"
	"strconv"
	"strings"
)

const DefaultDepth = 15

type Limits struct {
	Depth          int
	MoveTimeMillis int
	NodeCap        int
}

func buildPositionCommand(fen string) string {
	fen = strings.TrimSpace(fen)
	if fen == "" || fen == "startpos" {
		return "position startpos"
	}
	return "position fen " + fen
}

func buildGoTokens(l Limits) ([]string, error) {
	args := []string{"go"}
	if l.Depth > 0 {
		args = append(args, "depth", strconv.Itoa(l.Depth))
	}
	if l.MoveTimeMillis > 0 {
		args = append(args, "movetime", strconv.Itoa(l.MoveTimeMillis))
	}
	if l.NodeCap > 0 {
		args = append(args, "nodes", strconv.Itoa(l.NodeCap))
	}
	if len(args) == 1 {
		return nil, fmt.Errorf("no search limits specified")
	}
	return args, nil
}

// FormatGoCommand renders the go command for l, e.g. "go depth 15".
func FormatGoCommand(l Limits) (string, error) {
	args, err := buildGoTokens(l)
	if err != nil {
		return "", err
	}
	return strings.Join(args, " "), nil
}
