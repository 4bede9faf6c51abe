package chessdto

// BoardState is the full view pushed to clients after every change.
type BoardState struct {
	SessionID   string `json:"session_id"`
	SessionName string `json:"session_name"`
	FEN         string `json:"fen"`
	// Rows are rank 8 first; each cell is "" or a code like "wK".
	Rows       [8][8]string `json:"rows"`
	SideToMove string       `json:"side_to_move"`
	Ply        int          `json:"ply"`
	Selected   string       `json:"selected,omitempty"`
	Hints      []string     `json:"hints"`
	LastMove   string       `json:"last_move,omitempty"`
	MovesUCI   []string     `json:"moves_uci"`
	Eval       EvalView     `json:"eval"`
	Opening    string       `json:"opening,omitempty"`
	Status     string       `json:"status"`
	Outcome    string       `json:"outcome,omitempty"`
	Engine     EngineView   `json:"engine"`
}

type EngineView struct {
	State    string `json:"state"`
	Side     string `json:"side"`
	Thinking bool   `json:"thinking"`
}
