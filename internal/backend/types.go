package backend

import (
	"encoding/json"
	"errors"
)

// ErrMissingResponse is returned when a reply has no "response" field. An
// empty string is a valid reply.
var ErrMissingResponse = errors.New(`reply has no "response" field`)

// Entities maps an entity label (DATE, TIME, DURATION, ATTENDEE, ...) to its
// display values.
type Entities map[string][]string

// MessageRequest represents the request body for the message endpoint
type MessageRequest struct {
	Message string `json:"message"`
}

// MessageResponse represents the response from the message endpoint
type MessageResponse struct {
	Response string   `json:"response"`
	Entities Entities `json:"entities,omitempty"`
	Complete bool     `json:"complete,omitempty"`
}

// ResetResponse represents the response from the reset endpoint
type ResetResponse struct {
	Response string `json:"response"`
}

// ExportResponse represents the server-side session export
type ExportResponse struct {
	SessionID string                 `json:"session_id"`
	Context   map[string]interface{} `json:"context"`
	History   []ExportTurn           `json:"history"`
	Error     string                 `json:"error,omitempty"`
}

// ExportTurn is one exchange in the server history
type ExportTurn struct {
	User      string `json:"user"`
	Bot       string `json:"bot"`
	Timestamp string `json:"timestamp"`
}

// HasEntities reports whether the response carries at least one label.
func (r MessageResponse) HasEntities() bool {
	return len(r.Entities) > 0
}

// UnmarshalJSON requires the response field.
func (r *MessageResponse) UnmarshalJSON(data []byte) error {
	type plain MessageResponse
	var wire struct {
		plain
		Response *string `json:"response"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	if wire.Response == nil {
		return ErrMissingResponse
	}
	*r = MessageResponse(wire.plain)
	r.Response = *wire.Response
	return nil
}

// UnmarshalJSON requires the response field.
func (r *ResetResponse) UnmarshalJSON(data []byte) error {
	var wire struct {
		Response *string `json:"response"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	if wire.Response == nil {
		return ErrMissingResponse
	}
	r.Response = *wire.Response
	return nil
}
