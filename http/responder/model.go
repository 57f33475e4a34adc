package responder

// Response is the JSON envelope of every non-binary answer.
type Response struct {
	Data  any    `json:"data,omitempty"`
	Error *Error `json:"error,omitempty"`
	Meta  Meta   `json:"meta"`
}

// Error is the error member of the envelope. Type is the apperrors type
// name so clients can branch without parsing Message.
type Error struct {
	Code    int    `json:"code"`
	Type    string `json:"type"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type Meta struct {
	TraceID string `json:"traceId,omitempty"`
	Took    int64  `json:"took,omitempty"`
}
