package account

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/chatblast/pkg/logger"
	"github.com/dmitrymomot/chatblast/pkg/realtime"
	"github.com/dmitrymomot/chatblast/svc/presence"
	"github.com/dmitrymomot/chatblast/svc/session"
)

// RealtimeEndpoint upgrades requests whose session resolves to a websocket
// tracked by the presence tracker. Unresolvable requests are closed right
// after the upgrade.
type RealtimeEndpoint struct {
	cfg      Config
	hub      *realtime.Hub
	resolver *session.Resolver
	presence *presence.Tracker
	log      *slog.Logger
}

func NewRealtimeEndpoint(cfg Config, hub *realtime.Hub, resolver *session.Resolver, tracker *presence.Tracker, log *slog.Logger) *RealtimeEndpoint {
	if log == nil {
		log = logger.Discard()
	}
	return &RealtimeEndpoint{
		cfg:      cfg,
		hub:      hub,
		resolver: resolver,
		presence: tracker,
		log:      log.With(logger.Component("realtime")),
	}
}

func (e *RealtimeEndpoint) Handle() http.Handler {
	return realtime.Handler(e.hub,
		realtime.OnConnect(e.connect),
		realtime.OnDisconnect(e.disconnect),
		realtime.OnMessage(e.presence.HandleMessage),
		realtime.WithAllowedOrigins(e.cfg.AllowedOrigins...),
		realtime.WithHandlerLogger(e.log),
	)
}

func (e *RealtimeEndpoint) connect(r *http.Request, c *realtime.Conn) error {
	res, err := e.resolver.Resolve(r.Context(), r)
	if err != nil {
		return err
	}
	return e.presence.Connect(r.Context(), c, res)
}

// disconnect runs after the request context is gone.
func (e *RealtimeEndpoint) disconnect(c *realtime.Conn) {
	e.presence.Disconnect(context.Background(), c)
}
