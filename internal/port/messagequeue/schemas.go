package messagequeue

import (
	"encoding/json"
	"time"
)

// EventEnvelope is the payload of every xeenaps.events.* message.
type EventEnvelope struct {
	Name      string          `json:"name"`
	Payload   json.RawMessage `json:"payload"`
	RequestID string          `json:"request_id,omitempty"`
	EmittedAt time.Time       `json:"emitted_at"`
}
