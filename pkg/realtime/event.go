package realtime

import "encoding/json"

// Event is the JSON frame exchanged with clients.
type Event struct {
	Name string `json:"event"`
	Data any    `json:"data,omitempty"`
}

// Inbound is a frame received from a client. Data is left raw so handlers
// decode only the events they understand.
type Inbound struct {
	Name string          `json:"event"`
	Data json.RawMessage `json:"data,omitempty"`
}

func encode(name string, data any) ([]byte, error) {
	return json.Marshal(Event{Name: name, Data: data})
}
