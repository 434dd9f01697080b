package server

import (
	"travel-companion/internal/models"
)

// ChatRequest is the body of POST /chat. SessionID is optional; a missing
// or empty value starts a new session.
type ChatRequest struct {
	SessionID string `json:"session_id,omitempty"`
	UserID    string `json:"user_id,omitempty"`
	Message   string `json:"message"`
}

// ChatResponse is the body returned for every successful turn.
type ChatResponse struct {
	SessionID     string            `json:"session_id"`
	Message       string            `json:"message"`
	NeedsMoreInfo bool              `json:"needs_more_info"`
	State         string            `json:"state"`
	Itinerary     *models.Itinerary `json:"itinerary,omitempty"`
}

// SessionResponse is the body of GET /session/{session_id}: the collected
// slots and, once generated, the itinerary.
type SessionResponse struct {
	SessionID string            `json:"session_id"`
	UserID    string            `json:"user_id,omitempty"`
	Slots     map[string]string `json:"slots"`
	Completed bool              `json:"completed"`
	Itinerary *models.Itinerary `json:"itinerary,omitempty"`
	CreatedAt string            `json:"created_at"`
	UpdatedAt string            `json:"updated_at"`
}
