package websocket

import "encoding/json"

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionPing Action = "ping"
)

// RequestEnvelope is used to peek at the action before full parsing.
type RequestEnvelope struct {
	Action Action `json:"action"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventError     Event = "error"
	EventConnected Event = "connected"
	EventSchedule  Event = "schedule_changed"
	EventPong      Event = "pong"
)

// ConnectedResponse is the first frame of a stream.
type ConnectedResponse struct {
	Event      Event  `json:"event"`
	Partition  string `json:"partition"`
	CohortName string `json:"cohort_name"`
}

// ScheduleChangedResponse forwards a published schedule event untouched.
type ScheduleChangedResponse struct {
	Event Event           `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
