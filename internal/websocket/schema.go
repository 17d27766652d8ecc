package websocket

import "github.com/stemsi/presensi-backend/internal/model"

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventRecognition Event = "recognition"
	EventError       Event = "error"
)

// RecognitionEventMessage wraps one terminal recognition outcome for the
// live admin feed.
type RecognitionEventMessage struct {
	Event   Event                  `json:"event"`
	Payload model.RecognitionEvent `json:"payload"`
}

// ErrorResponse is sent before the server closes a broken stream.
type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}
