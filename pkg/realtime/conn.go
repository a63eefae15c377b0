package realtime

import (
	"sync"

	"github.com/google/uuid"
)

// Identity is what a connection resolved to at connect time.
// A zero Identity means the connection is anonymous.
type Identity struct {
	ProfileID string
	TenantID  string
	Username  string
}

// Authenticated reports whether the connection resolved to a profile.
func (i Identity) Authenticated() bool {
	return i.ProfileID != ""
}

// Conn is a single client connection registered with a Hub.
type Conn struct {
	id        string
	hub       *Hub
	transport Transport
	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once

	mu       sync.RWMutex
	identity Identity
}

func (c *Conn) ID() string { return c.id }

func (c *Conn) Identity() Identity {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.identity
}

func (c *Conn) SetIdentity(id Identity) {
	c.mu.Lock()
	c.identity = id
	c.mu.Unlock()
}

// Done is closed once the connection is closed.
func (c *Conn) Done() <-chan struct{} { return c.done }

// Emit queues a single event for this connection.
func (c *Conn) Emit(name string, data any) error {
	msg, err := encode(name, data)
	if err != nil {
		return err
	}
	return c.enqueue(msg)
}

// Close removes the connection from the hub and closes the transport.
// It is safe to call more than once.
func (c *Conn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.hub.remove(c)
		close(c.done)
		err = c.transport.Close()
	})
	return err
}

func (c *Conn) enqueue(msg []byte) error {
	select {
	case <-c.done:
		return ErrConnClosed
	default:
	}

	select {
	case c.send <- msg:
		return nil
	case <-c.done:
		return ErrConnClosed
	default:
		_ = c.Close()
		return ErrSlowClient
	}
}

func (c *Conn) writeLoop() {
	for {
		select {
		case <-c.done:
			return
		case msg := <-c.send:
			if err := c.transport.WriteMessage(msg); err != nil {
				_ = c.Close()
				return
			}
		}
	}
}

func newConn(h *Hub, t Transport, buffer int) *Conn {
	return &Conn{
		id:        uuid.NewString(),
		hub:       h,
		transport: t,
		send:      make(chan []byte, buffer),
		done:      make(chan struct{}),
	}
}
