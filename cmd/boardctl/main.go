package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"

	"github.com/park285/cheese-board/internal/boardclient"
	"github.com/park285/cheese-board/pkg/chessdto"
)

func main() {
	addr := flag.String("addr", envOr("BOARD_URL", "http://127.0.0.1:8080"), "board server base URL")
	noColor := flag.Bool("no-color", false, "disable colored output")
	flag.Usage = usage
	flag.Parse()
	if *noColor {
		color.NoColor = true
	}

	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *addr, args); err != nil {
		fmt.Fprintln(os.Stderr, "boardctl:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, addr string, args []string) error {
	client := boardclient.NewClient(addr, boardclient.WithTimeout(8*time.Second))

	switch strings.ToLower(args[0]) {
	case "state":
		st, err := client.State(ctx)
		if err != nil {
			return err
		}
		printState(st)
	case "click":
		if len(args) < 2 {
			return errors.New("usage: boardctl click <square>")
		}
		for _, sq := range args[1:] {
			resp, err := client.Click(ctx, sq)
			if err != nil {
				return err
			}
			fmt.Printf("%s %s %s\n", sq, resp.Action, resp.Move)
			if resp.State != nil && sq == args[len(args)-1] {
				printState(resp.State)
			}
		}
	case "reset":
		fen := strings.Join(args[1:], " ")
		st, err := client.Reset(ctx, fen)
		if err != nil {
			return err
		}
		printState(st)
	case "png":
		if len(args) < 2 {
			return errors.New("usage: boardctl png <file>")
		}
		data, err := client.BoardPNG(ctx)
		if err != nil {
			return err
		}
		return os.WriteFile(args[1], data, 0o644)
	case "watch":
		return boardclient.NewWatcher(addr, 5).Run(ctx, func(st chessdto.BoardState) error {
			printState(&st)
			return nil
		})
	default:
		usage()
		return fmt.Errorf("unknown command %q", args[0])
	}
	return nil
}

var (
	selectedCell = color.New(color.FgBlack, color.BgGreen)
	hintCell     = color.New(color.FgGreen, color.Bold)
	lastMoveCell = color.New(color.BgYellow, color.FgBlack)
	blackPiece   = color.New(color.FgRed)
	statusLine   = color.New(color.FgCyan)
)

func printState(st *chessdto.BoardState) {
	if st == nil {
		return
	}
	hints := map[string]bool{}
	for _, h := range st.Hints {
		hints[h] = true
	}
	var from, to string
	if len(st.LastMove) >= 4 {
		from, to = st.LastMove[:2], st.LastMove[2:4]
	}
	if st.SessionName != "" {
		fmt.Println(statusLine.Sprintf("game %s", st.SessionName))
	}
	for row := 0; row < 8; row++ {
		var b strings.Builder
		fmt.Fprintf(&b, "%d ", 8-row)
		for col := 0; col < 8; col++ {
			sq := fmt.Sprintf("%c%d", 'a'+col, 8-row)
			code := st.Rows[row][col]
			letter := pieceLetter(code)
			switch {
			case sq == st.Selected:
				b.WriteString(selectedCell.Sprint("[" + letter + "]"))
			case hints[sq]:
				b.WriteString(hintCell.Sprint(" * "))
			case sq == from || sq == to:
				b.WriteString(lastMoveCell.Sprint(" " + letter + " "))
			case strings.HasPrefix(code, "b"):
				b.WriteString(blackPiece.Sprint(" " + letter + " "))
			default:
				b.WriteString(" " + letter + " ")
			}
		}
		fmt.Println(b.String())
	}
	fmt.Println("   a  b  c  d  e  f  g  h")
	line := st.Status
	if st.Eval.Label != "" {
		line += fmt.Sprintf(" | eval %s (%.0f%%)", st.Eval.Label, st.Eval.WinProbability)
	}
	if st.Eval.BestMove != "" {
		line += " | " + st.Eval.BestMove
	}
	if st.Opening != "" {
		line += " | " + st.Opening
	}
	statusLine.Println(line)
}

func pieceLetter(code string) string {
	if len(code) != 2 {
		return "."
	}
	if code[0] == 'b' {
		return strings.ToLower(code[1:])
	}
	return code[1:]
}

func envOr(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func usage() {
	fmt.Fprintln(os.Stderr, strings.Join([]string{
		"usage: boardctl [-addr URL] [-no-color] <command>",
		"",
		"  state              print the board",
		"  click <sq> [sq..]  click squares in order, e.g. click e2 e4",
		"  reset [fen]        start a new game",
		"  png <file>         save the rendered board",
		"  watch              follow live updates",
	}, "\n"))
}
