package realtime

import (
	"time"

	"github.com/gorilla/websocket"
)

// Transport is the write side of a client connection.
type Transport interface {
	WriteMessage(data []byte) error
	Close() error
}

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 15 * time.Second
)

type wsTransport struct {
	ws *websocket.Conn
}

// NewWebsocketTransport adapts a gorilla connection to Transport.
func NewWebsocketTransport(ws *websocket.Conn) Transport {
	return &wsTransport{ws: ws}
}

func (t *wsTransport) WriteMessage(data []byte) error {
	_ = t.ws.SetWriteDeadline(time.Now().Add(writeWait))
	return t.ws.WriteMessage(websocket.TextMessage, data)
}

func (t *wsTransport) Close() error {
	_ = t.ws.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeWait),
	)
	return t.ws.Close()
}
