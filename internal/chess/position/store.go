package position

import (
	"errors"
	"fmt"
	"sync"

	"github.com/park285/cheese-board/internal/chess/board"
)

// ErrIllegalMove is returned by ApplyMove when the destination is not in
// the current legal destination set of the origin square.
var ErrIllegalMove = errors.New("illegal move")

// Store owns the authoritative position of one game session and is its
// single writer.
type Store struct {
	mu    sync.RWMutex
	rules Rules
	snap  board.Snapshot
	ply   int
}

func NewStore(rules Rules) (*Store, error) {
	if rules == nil {
		return nil, fmt.Errorf("rules collaborator is required")
	}
	s := &Store{rules: rules}
	s.snap = rules.Board()
	return s, nil
}

// Open is NewRules followed by NewStore.
func Open(fen string) (*Store, error) {
	rules, err := NewRules(fen)
	if err != nil {
		return nil, err
	}
	return NewStore(rules)
}

// Board returns a copy of the current snapshot.
func (s *Store) Board() board.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

func (s *Store) PieceAt(sq board.Square) board.Piece {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.At(sq)
}

func (s *Store) SideToMove() board.Color {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rules.Turn()
}

// LegalDestinations is recomputed from the rules collaborator on every call.
func (s *Store) LegalDestinations(sq board.Square) board.SquareSet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.legalLocked(sq)
}

func (s *Store) legalLocked(sq board.Square) board.SquareSet {
	var set board.SquareSet
	for _, to := range s.rules.LegalMoves(sq) {
		if to == sq {
			continue
		}
		set = set.Add(to)
	}
	return set
}

// ApplyMove commits from->to. The snapshot is refreshed before returning.
func (s *Store) ApplyMove(from, to board.Square) (board.Move, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	mv := board.Move{From: from, To: to}
	if !s.legalLocked(from).Has(to) {
		return mv, fmt.Errorf("%s: %w", mv, ErrIllegalMove)
	}
	if err := s.rules.Move(from, to); err != nil {
		return mv, fmt.Errorf("%s: %w: %v", mv, ErrIllegalMove, err)
	}
	s.snap = s.rules.Board()
	s.ply++
	return mv, nil
}

func (s *Store) FEN() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rules.FEN()
}

// Ply counts moves applied through this store.
func (s *Store) Ply() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ply
}

func (s *Store) History() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rules.History()
}

// Outcome is empty while the game is in progress.
func (s *Store) Outcome() (result, method string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rules.Outcome()
}

func (s *Store) Opening() (code, title string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rules.Opening()
}
