package dto

// Status event kinds pushed to a session's websocket connections.
const (
	StatusAnalyzing = "analyzing"
	StatusIdle      = "idle"
	StatusResults   = "results"
	StatusError     = "error"
)

// StatusEvent is the JSON message sent over /api/status.
type StatusEvent struct {
	Status  string `json:"status"`
	Screen  string `json:"screen"`
	Message string `json:"message,omitempty"`
}
