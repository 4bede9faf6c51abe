package chessdto

// EvalView is the evaluation strip. WinProbability drives the bar.
type EvalView struct {
	Present        bool    `json:"present"`
	Label          string  `json:"label"`
	Pawns          float64 `json:"pawns"`
	MateIn         int     `json:"mate_in,omitempty"`
	WinProbability float64 `json:"win_probability"`
	BestMove       string  `json:"best_move,omitempty"`
}
