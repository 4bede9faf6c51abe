package selection

import (
	"testing"

	"github.com/park285/cheese-board/internal/chess/board"
	"github.com/park285/cheese-board/internal/chess/position"
)

func sq(t *testing.T, raw string) board.Square {
	t.Helper()
	s, err := board.ParseSquare(raw)
	if err != nil {
		t.Fatalf("ParseSquare(%q): %v", raw, err)
	}
	return s
}

func startStore(t *testing.T) *position.Store {
	t.Helper()
	s, err := position.Open("")
	if err != nil {
		t.Fatalf("position.Open: %v", err)
	}
	return s
}

func TestSelectThenDeselectEveryOwnPiece(t *testing.T) {
	store := startStore(t)
	for i := 0; i < 64; i++ {
		from := board.FromIndex(i)
		p := store.PieceAt(from)
		if p.Empty() || p.Color != store.SideToMove() {
			continue
		}
		var m Machine
		if d := m.Click(from, store); d.Action != Select {
			t.Fatalf("%s: expected select, got %s", from, d.Action)
		}
		// e5 is empty and never hinted from the initial position
		if d := m.Click(sq(t, "e5"), store); d.Action != Deselect {
			t.Fatalf("%s: expected deselect, got %s", from, d.Action)
		}
		if st := m.State(); st.Selected || !st.Hints.Empty() {
			t.Fatalf("%s: expected idle with empty hints, got %+v", from, st)
		}
	}
}

func TestClickTransitions(t *testing.T) {
	store := startStore(t)
	var m Machine

	if d := m.Click(sq(t, "e4"), store); d.Action != None {
		t.Fatalf("idle empty click: %s", d.Action)
	}
	if d := m.Click(sq(t, "e7"), store); d.Action != None || m.State().Selected {
		t.Fatalf("idle opponent click should be a no-op: %s", d.Action)
	}

	if d := m.Click(sq(t, "e2"), store); d.Action != Select {
		t.Fatalf("select e2: %s", d.Action)
	}
	st := m.State()
	if !st.Hints.Has(sq(t, "e3")) || !st.Hints.Has(sq(t, "e4")) {
		t.Fatalf("hints = %v", st.Hints.Strings())
	}

	if d := m.Click(sq(t, "g1"), store); d.Action != Select || m.State().Square != sq(t, "g1") {
		t.Fatalf("reselect g1: %s", d.Action)
	}
	if !m.State().Hints.Has(sq(t, "f3")) || m.State().Hints.Has(sq(t, "e4")) {
		t.Fatalf("hints not recomputed on reselect: %v", m.State().Hints.Strings())
	}

	d := m.Click(sq(t, "f3"), store)
	if d.Action != Commit || d.Move.String() != "g1f3" {
		t.Fatalf("commit: %+v", d)
	}
	if m.State().Selected {
		t.Fatalf("expected idle after commit decision")
	}
}

func TestSelectedOpponentPieceDeselects(t *testing.T) {
	store := startStore(t)
	var m Machine
	m.Click(sq(t, "d2"), store)
	if d := m.Click(sq(t, "d7"), store); d.Action != Deselect {
		t.Fatalf("expected deselect, got %s", d.Action)
	}
}

func TestInvalidSquareIgnored(t *testing.T) {
	store := startStore(t)
	var m Machine
	if d := m.Click(board.Square{File: 9, Rank: 0}, store); d.Action != None {
		t.Fatalf("expected none, got %s", d.Action)
	}
}
