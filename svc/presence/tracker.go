package presence

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/dmitrymomot/chatblast/pkg/logger"
	"github.com/dmitrymomot/chatblast/pkg/metrics"
	"github.com/dmitrymomot/chatblast/pkg/realtime"
	"github.com/dmitrymomot/chatblast/svc/identity"
	"github.com/dmitrymomot/chatblast/svc/session"
)

// Hub is the part of the realtime hub the tracker uses.
type Hub interface {
	Join(c *realtime.Conn, rooms ...string)
	Members(room string) []*realtime.Conn
	Emit(room, name string, data any) int
}

// Profiles reports whether a profile still exists.
type Profiles interface {
	Get(ctx context.Context, id string) (*identity.Profile, error)
}

type typingEntry struct {
	profileID string
	username  string
	tenantID  string
}

type pendingEntry struct {
	profileID string
	username  string
	tenantID  string
	at        time.Time
}

type emission struct {
	room string
	name string
	data any
}

// Tracker owns the typing and pending-disconnect maps, both keyed by
// profile id. Events are emitted after the lock is released.
type Tracker struct {
	hub      Hub
	profiles Profiles
	log      *slog.Logger
	now      func() time.Time
	grace    time.Duration
	interval time.Duration

	mu      sync.Mutex
	typing  map[string]typingEntry
	pending map[string]pendingEntry
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithLogger sets the logger. The default discards output.
func WithLogger(l *slog.Logger) Option {
	return func(t *Tracker) {
		if l != nil {
			t.log = l
		}
	}
}

// WithClock sets the time source of the grace window.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		if now != nil {
			t.now = now
		}
	}
}

// WithConfig applies cfg.
func WithConfig(cfg Config) Option {
	return func(t *Tracker) {
		if cfg.GraceWindow > 0 {
			t.grace = cfg.GraceWindow
		}
		if cfg.SweepInterval > 0 {
			t.interval = cfg.SweepInterval
		}
	}
}

// New returns a Tracker emitting presence events through hub.
func New(hub Hub, profiles Profiles, opts ...Option) *Tracker {
	cfg := DefaultConfig()
	t := &Tracker{
		hub:      hub,
		profiles: profiles,
		log:      logger.Discard(),
		now:      time.Now,
		grace:    cfg.GraceWindow,
		interval: cfg.SweepInterval,
		typing:   make(map[string]typingEntry),
		pending:  make(map[string]pendingEntry),
	}
	for _, opt := range opts {
		opt(t)
	}
	t.log = t.log.With(logger.Component("presence"))
	return t
}

// Connect binds c to the resolved identity, acknowledges it with a connected
// event and joins its rooms. A join is announced to the tenant room unless
// the profile is already live there or is reconnecting inside the grace
// window. The ack is always the first frame c receives.
func (t *Tracker) Connect(ctx context.Context, c *realtime.Conn, res *session.Result) error {
	id := realtime.Identity{
		ProfileID: res.Profile.ID,
		TenantID:  res.TenantID(),
		Username:  res.Profile.Username,
	}
	c.SetIdentity(id)
	room := realtime.TenantRoom(id.TenantID)

	if err := c.Emit(EventConnected, ConnectedPayload{
		ID:       id.ProfileID,
		Username: id.Username,
		TenantID: id.TenantID,
	}); err != nil {
		return err
	}

	t.mu.Lock()
	reconnect := false
	if p, ok := t.pending[id.ProfileID]; ok && p.tenantID == id.TenantID {
		delete(t.pending, id.ProfileID)
		reconnect = true
	}
	announce := !reconnect && !t.liveElsewhere(id.ProfileID, room, c)
	t.mu.Unlock()

	t.hub.Join(c, realtime.RoomAuthenticated, realtime.ProfileRoom(id.ProfileID), room)

	if announce {
		t.hub.Emit(room, EventJoin, ProfilePayload{ID: id.ProfileID, Username: id.Username})
		metrics.PresenceEvent(EventJoin)
	}

	t.log.DebugContext(ctx, "realtime connection established",
		logger.ConnID(c.ID()),
		logger.ProfileID(id.ProfileID),
		logger.TenantID(id.TenantID),
		slog.Bool("reconnect", reconnect),
	)
	return nil
}

// Disconnect records a pending disconnect for an authenticated connection.
// A profile that no longer exists is dropped outright.
func (t *Tracker) Disconnect(ctx context.Context, c *realtime.Conn) {
	id := c.Identity()
	if !id.Authenticated() {
		return
	}

	_, err := t.profiles.Get(ctx, id.ProfileID)
	if err != nil && !errors.Is(err, identity.ErrProfileNotFound) {
		t.log.WarnContext(ctx, "failed to load profile on disconnect",
			logger.ProfileID(id.ProfileID),
			logger.Error(err),
		)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if errors.Is(err, identity.ErrProfileNotFound) {
		delete(t.pending, id.ProfileID)
		delete(t.typing, id.ProfileID)
		return
	}
	t.pending[id.ProfileID] = pendingEntry{
		profileID: id.ProfileID,
		username:  id.Username,
		tenantID:  id.TenantID,
		at:        t.now(),
	}
}

// Sweep emits a leave for every pending disconnect older than the grace
// window whose profile has no live connection left in the tenant. Entries
// inside the window are kept.
func (t *Tracker) Sweep(ctx context.Context) int {
	now := t.now()
	var out []emission

	t.mu.Lock()
	for profileID, p := range t.pending {
		if now.Sub(p.at) < t.grace {
			continue
		}
		delete(t.pending, profileID)

		room := realtime.TenantRoom(p.tenantID)
		if t.liveElsewhere(profileID, room, nil) {
			continue
		}
		delete(t.typing, profileID)
		out = append(out, emission{room: room, name: EventLeave, data: ProfilePayload{ID: profileID, Username: p.username}})
	}
	t.mu.Unlock()

	for _, e := range out {
		t.hub.Emit(e.room, e.name, e.data)
		metrics.PresenceEvent(e.name)
	}
	if len(out) > 0 {
		t.log.DebugContext(ctx, "presence sweep emitted leaves", logger.Count(len(out)))
	}
	return len(out)
}

// Run sweeps on every interval tick until ctx is cancelled.
func (t *Tracker) Run(ctx context.Context) error {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			t.Sweep(ctx)
		}
	}
}

// SetTyping updates the profile's typing state and broadcasts the change to
// the tenant room. It reports whether the state changed.
func (t *Tracker) SetTyping(p *identity.Profile, tenantID string, typing bool) bool {
	t.mu.Lock()
	_, exists := t.typing[p.ID]
	changed := typing != exists
	if changed {
		if typing {
			t.typing[p.ID] = typingEntry{profileID: p.ID, username: p.Username, tenantID: tenantID}
		} else {
			delete(t.typing, p.ID)
		}
	}
	t.mu.Unlock()

	if changed {
		t.hub.Emit(realtime.TenantRoom(tenantID), EventTyping, TypingPayload{
			IsTyping: typing,
			ID:       p.ID,
			Username: p.Username,
		})
	}
	return changed
}

// Typing lists the ids of profiles typing in the tenant.
func (t *Tracker) Typing(tenantID string) []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := []string{}
	for id, e := range t.typing {
		if e.tenantID == tenantID {
			out = append(out, id)
		}
	}
	slices.Sort(out)
	return out
}

// Online lists the ids of profiles live in the tenant, including those
// still inside the disconnect grace window.
func (t *Tracker) Online(tenantID string) []string {
	seen := map[string]struct{}{}
	for _, c := range t.hub.Members(realtime.TenantRoom(tenantID)) {
		if id := c.Identity(); id.Authenticated() {
			seen[id.ProfileID] = struct{}{}
		}
	}

	t.mu.Lock()
	for id, p := range t.pending {
		if p.tenantID == tenantID {
			seen[id] = struct{}{}
		}
	}
	t.mu.Unlock()

	out := make([]string, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

type typingMessage struct {
	IsTyping bool `json:"is_typing"`
}

// HandleMessage handles client frames. Only message.typing is understood.
func (t *Tracker) HandleMessage(c *realtime.Conn, msg realtime.Inbound) {
	if msg.Name != EventTyping {
		return
	}
	id := c.Identity()
	if !id.Authenticated() {
		return
	}
	var in typingMessage
	if err := json.Unmarshal(msg.Data, &in); err != nil {
		return
	}
	t.SetTyping(&identity.Profile{ID: id.ProfileID, Username: id.Username}, id.TenantID, in.IsTyping)
}

// liveElsewhere reports whether another connection in room represents
// profileID. except is ignored.
func (t *Tracker) liveElsewhere(profileID, room string, except *realtime.Conn) bool {
	for _, c := range t.hub.Members(room) {
		if c == except {
			continue
		}
		if c.Identity().ProfileID == profileID {
			return true
		}
	}
	return false
}
