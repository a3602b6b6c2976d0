package server

import "github.com/agbru/hypbound/internal/cli"

// BoundResponse is the JSON body of a /bound reply. It carries the same
// fields as the CLI's JSON output plus the request ID.
type BoundResponse struct {
	cli.JSONResult
	RequestID string `json:"request_id"`
}

// ErrorResponse is the JSON body of every non-2xx reply.
type ErrorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// paramError is a malformed query parameter.
type paramError struct {
	Param   string
	Message string
}

func (e paramError) Error() string {
	return "invalid '" + e.Param + "' parameter: " + e.Message
}
