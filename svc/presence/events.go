package presence

// Realtime event names.
const (
	EventConnected = "connected"
	EventJoin      = "profile.join"
	EventLeave     = "profile.leave"
	EventTyping    = "message.typing"
)

// ConnectedPayload acknowledges a connection to its own socket.
type ConnectedPayload struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	TenantID string `json:"tenant_id,omitempty"`
}

// ProfilePayload is sent with join and leave events.
type ProfilePayload struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// TypingPayload is sent with typing events.
type TypingPayload struct {
	IsTyping bool   `json:"is_typing"`
	ID       string `json:"id"`
	Username string `json:"username"`
}
