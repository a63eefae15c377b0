package realtime

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dmitrymomot/chatblast/pkg/logger"
)

type (
	// ConnectFunc runs right after the upgrade. A non-nil error closes the connection.
	ConnectFunc func(r *http.Request, c *Conn) error
	// DisconnectFunc runs once the read loop ends.
	DisconnectFunc func(c *Conn)
	// MessageFunc handles a decoded client frame.
	MessageFunc func(c *Conn, msg Inbound)
)

type handlerConfig struct {
	onConnect      ConnectFunc
	onDisconnect   DisconnectFunc
	onMessage      MessageFunc
	allowedOrigins []string
	readLimit      int64
	logger         *slog.Logger
}

// HandlerOption configures Handler.
type HandlerOption func(*handlerConfig)

func OnConnect(fn ConnectFunc) HandlerOption {
	return func(c *handlerConfig) { c.onConnect = fn }
}

func OnDisconnect(fn DisconnectFunc) HandlerOption {
	return func(c *handlerConfig) { c.onDisconnect = fn }
}

func OnMessage(fn MessageFunc) HandlerOption {
	return func(c *handlerConfig) { c.onMessage = fn }
}

// WithAllowedOrigins restricts browser origins. Empty allows any origin.
func WithAllowedOrigins(origins ...string) HandlerOption {
	return func(c *handlerConfig) { c.allowedOrigins = origins }
}

func WithReadLimit(n int64) HandlerOption {
	return func(c *handlerConfig) { c.readLimit = n }
}

func WithHandlerLogger(l *slog.Logger) HandlerOption {
	return func(c *handlerConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// Handler upgrades requests to websocket connections registered with hub.
func Handler(hub *Hub, opts ...HandlerOption) http.Handler {
	cfg := handlerConfig{
		readLimit: 64 * 1024,
		logger:    logger.Discard(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" || len(cfg.allowedOrigins) == 0 {
				return true
			}
			for _, allowed := range cfg.allowedOrigins {
				if origin == allowed {
					return true
				}
			}
			cfg.logger.WarnContext(r.Context(), "websocket origin rejected", slog.String("origin", origin))
			return false
		},
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			cfg.logger.ErrorContext(r.Context(), "websocket upgrade failed", logger.Error(err))
			return
		}

		c := hub.NewConn(NewWebsocketTransport(ws))
		log := cfg.logger.With(logger.ConnID(c.ID()))

		if cfg.onConnect != nil {
			if err := cfg.onConnect(r, c); err != nil {
				log.DebugContext(r.Context(), "websocket connection rejected", logger.Error(err))
				_ = c.Close()
				return
			}
		}

		stop := make(chan struct{})
		go keepAlive(ws, c, stop)

		readLoop(ws, c, cfg, log)
		close(stop)

		if cfg.onDisconnect != nil {
			cfg.onDisconnect(c)
		}
		_ = c.Close()
	})
}

func readLoop(ws *websocket.Conn, c *Conn, cfg handlerConfig, log *slog.Logger) {
	ws.SetReadLimit(cfg.readLimit)
	_ = ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug("websocket closed unexpectedly", logger.Error(err))
			}
			return
		}
		if cfg.onMessage == nil {
			continue
		}
		var msg Inbound
		if err := json.Unmarshal(data, &msg); err != nil || msg.Name == "" {
			log.Debug("malformed websocket frame ignored")
			continue
		}
		cfg.onMessage(c, msg)
	}
}

func keepAlive(ws *websocket.Conn, c *Conn, stop <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				_ = c.Close()
				return
			}
		case <-stop:
			return
		case <-c.Done():
			return
		}
	}
}
