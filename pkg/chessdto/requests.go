package chessdto

type ClickRequest struct {
	Square string `json:"square,omitempty"`
	Row    *int   `json:"row,omitempty"`
	Col    *int   `json:"col,omitempty"`
}

type ClickResponse struct {
	Action string      `json:"action"`
	Move   string      `json:"move,omitempty"`
	State  *BoardState `json:"state"`
}

type ResetRequest struct {
	FEN string `json:"fen,omitempty"`
}

type StateResponse struct {
	State *BoardState `json:"state"`
}
