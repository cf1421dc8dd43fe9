package websocket

import (
	"encoding/json"
	"fmt"
)

// Frame is an outbound server event.
type Frame struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// Inbound is a signal sent by a client.
type Inbound struct {
	Event string          `json:"event"`
	Args  json.RawMessage `json:"args,omitempty"`
}

// EncodeFrame wraps payload in a named event frame. An empty payload is
// sent as an empty object.
func EncodeFrame(event string, payload []byte) ([]byte, error) {
	if event == "" {
		return nil, fmt.Errorf("encode frame: empty event name")
	}
	if len(payload) == 0 {
		payload = []byte("{}")
	}
	b, err := json.Marshal(Frame{Event: event, Payload: payload})
	if err != nil {
		return nil, fmt.Errorf("encode frame %q: %w", event, err)
	}
	return b, nil
}

// DecodeInbound parses a client signal.
func DecodeInbound(data []byte) (Inbound, error) {
	var in Inbound
	if err := json.Unmarshal(data, &in); err != nil {
		return Inbound{}, fmt.Errorf("decode signal: %w", err)
	}
	if in.Event == "" {
		return Inbound{}, fmt.Errorf("decode signal: missing event name")
	}
	return in, nil
}
