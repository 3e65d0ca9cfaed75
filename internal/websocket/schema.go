package websocket

import "time"

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionPing Action = "ping"
)

// RequestEnvelope is used to peek at the action of a client frame.
type RequestEnvelope struct {
	Action Action `json:"action"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

// Event names a server frame. Review events use the names published by the
// question and user workflows, e.g. "question.pending".
type Event string

const (
	EventConnected Event = "connected"
	EventError     Event = "error"
	EventPong      Event = "pong"
)

// Envelope is every frame the server sends.
type Envelope struct {
	Event     Event       `json:"event"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// ConnectedData greets a reviewer after the upgrade.
type ConnectedData struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

type ErrorData struct {
	Error string `json:"error"`
}
