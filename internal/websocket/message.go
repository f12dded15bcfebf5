package websocket

import "encoding/json"

// Message defines the structure for websocket messages.
type Message struct {
	Action  string      `json:"action"`
	Topic   string      `json:"topic,omitempty"`
	Payload interface{} `json:"payload"`
}

// NewErrorMessage encodes an error answer for a single client.
func NewErrorMessage(text string) []byte {
	b, _ := json.Marshal(Message{Action: "error", Payload: map[string]string{"detail": text}})
	return b
}
