package ws

import "encoding/json"

// Message is the envelope for every frame in both directions.
type Message struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// client → server
type RangePayload struct {
	Preset string `json:"preset,omitempty"` // today | this_week | ...
	From   string `json:"from,omitempty"`   // 2006-01-02
	To     string `json:"to,omitempty"`
}

// server → client
type TimerPayload struct {
	Running bool   `json:"running"`
	Elapsed int64  `json:"elapsed"` // seconds
	Display string `json:"display"`
}

type RedirectPayload struct {
	Location string `json:"location"`
}

type ErrorPayload struct {
	Error string `json:"error"`
}
