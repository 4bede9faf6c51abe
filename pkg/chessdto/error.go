package chessdto

// ErrorBody is the JSON error envelope returned by the board API.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
