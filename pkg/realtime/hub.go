package realtime

import (
	"log/slog"
	"sync"

	"github.com/dmitrymomot/chatblast/pkg/logger"
)

const defaultBufferSize = 64

// Hub tracks live connections and their room membership.
// All methods are safe for concurrent use.
type Hub struct {
	mu     sync.RWMutex
	conns  map[string]*Conn
	rooms  map[string]map[string]*Conn
	member map[string]map[string]struct{}

	bufferSize int
	logger     *slog.Logger
	onAdd      []func(*Conn)
	onRemove   []func(*Conn)
}

// Option configures a Hub.
type Option func(*Hub)

// WithBufferSize sets the per-connection send queue size. Minimum 1.
func WithBufferSize(n int) Option {
	return func(h *Hub) { h.bufferSize = max(n, 1) }
}

func WithLogger(l *slog.Logger) Option {
	return func(h *Hub) {
		if l != nil {
			h.logger = l
		}
	}
}

// WithAddHook registers a callback invoked after a connection joins the hub.
func WithAddHook(fn func(*Conn)) Option {
	return func(h *Hub) {
		if fn != nil {
			h.onAdd = append(h.onAdd, fn)
		}
	}
}

// WithRemoveHook registers a callback invoked after a connection leaves the hub.
func WithRemoveHook(fn func(*Conn)) Option {
	return func(h *Hub) {
		if fn != nil {
			h.onRemove = append(h.onRemove, fn)
		}
	}
}

func NewHub(opts ...Option) *Hub {
	h := &Hub{
		conns:      make(map[string]*Conn),
		rooms:      make(map[string]map[string]*Conn),
		member:     make(map[string]map[string]struct{}),
		bufferSize: defaultBufferSize,
		logger:     logger.Discard(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// NewConn registers a connection and starts its writer.
func (h *Hub) NewConn(t Transport) *Conn {
	c := newConn(h, t, h.bufferSize)

	h.mu.Lock()
	h.conns[c.id] = c
	h.member[c.id] = make(map[string]struct{})
	h.mu.Unlock()

	for _, fn := range h.onAdd {
		fn(c)
	}
	go c.writeLoop()
	return c
}

// Join adds c to the given rooms. Closed connections are ignored.
func (h *Hub) Join(c *Conn, rooms ...string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	joined, ok := h.member[c.id]
	if !ok {
		return
	}
	for _, room := range rooms {
		members, ok := h.rooms[room]
		if !ok {
			members = make(map[string]*Conn)
			h.rooms[room] = members
		}
		members[c.id] = c
		joined[room] = struct{}{}
	}
}

// Members returns a snapshot of the connections in room.
func (h *Hub) Members(room string) []*Conn {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]*Conn, 0, len(h.rooms[room]))
	for _, c := range h.rooms[room] {
		out = append(out, c)
	}
	return out
}

// Connections returns a snapshot of every live connection.
func (h *Hub) Connections() []*Conn {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]*Conn, 0, len(h.conns))
	for _, c := range h.conns {
		out = append(out, c)
	}
	return out
}

// Count returns the number of live connections.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// Emit sends an event to every member of room and returns how many
// connections accepted it.
func (h *Hub) Emit(room, name string, data any) int {
	msg, err := encode(name, data)
	if err != nil {
		h.logger.Error("failed to encode realtime event",
			logger.Event(name),
			logger.Error(err),
		)
		return 0
	}

	delivered := 0
	for _, c := range h.Members(room) {
		if err := c.enqueue(msg); err != nil {
			h.logger.Debug("realtime event dropped",
				logger.Event(name),
				logger.ConnID(c.id),
				logger.Error(err),
			)
			continue
		}
		delivered++
	}
	return delivered
}

// DisconnectRoom closes every connection in room and returns how many were closed.
func (h *Hub) DisconnectRoom(room string) int {
	members := h.Members(room)
	for _, c := range members {
		_ = c.Close()
	}
	if len(members) > 0 {
		h.logger.Debug("realtime room disconnected",
			slog.String("room", room),
			logger.Count(len(members)),
		)
	}
	return len(members)
}

// Close disconnects every connection.
func (h *Hub) Close() {
	for _, c := range h.Connections() {
		_ = c.Close()
	}
}

func (h *Hub) remove(c *Conn) {
	h.mu.Lock()
	if _, ok := h.conns[c.id]; !ok {
		h.mu.Unlock()
		return
	}
	for room := range h.member[c.id] {
		h.leaveLocked(c.id, room)
	}
	delete(h.member, c.id)
	delete(h.conns, c.id)
	hooks := h.onRemove
	h.mu.Unlock()

	for _, fn := range hooks {
		fn(c)
	}
}

func (h *Hub) leaveLocked(connID, room string) {
	if members, ok := h.rooms[room]; ok {
		delete(members, connID)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
	if joined, ok := h.member[connID]; ok {
		delete(joined, room)
	}
}
