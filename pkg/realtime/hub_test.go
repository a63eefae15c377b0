package realtime_test

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/chatblast/pkg/realtime"
)

type fakeTransport struct {
	mu       sync.Mutex
	frames   [][]byte
	closed   bool
	block    chan struct{}
	writeErr error
}

func (f *fakeTransport) WriteMessage(data []byte) error {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return f.writeErr
	}
	f.frames = append(f.frames, data)
	return nil
}

func (f *fakeTransport) Close() error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	return nil
}

func (f *fakeTransport) events() []realtime.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]realtime.Event, 0, len(f.frames))
	for _, frame := range f.frames {
		var ev realtime.Event
		if err := json.Unmarshal(frame, &ev); err == nil {
			out = append(out, ev)
		}
	}
	return out
}

func (f *fakeTransport) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func TestHubEmit(t *testing.T) {
	t.Parallel()

	hub := realtime.NewHub()
	a, b, c := &fakeTransport{}, &fakeTransport{}, &fakeTransport{}
	ca, cb := hub.NewConn(a), hub.NewConn(b)
	hub.NewConn(c)

	hub.Join(ca, realtime.TenantRoom("t1"))
	hub.Join(cb, realtime.TenantRoom("t1"), realtime.RoomAuthenticated)

	n := hub.Emit(realtime.TenantRoom("t1"), "profile.join", map[string]string{"id": "p1"})
	assert.Equal(t, 2, n)

	require.Eventually(t, func() bool {
		return len(a.events()) == 1 && len(b.events()) == 1
	}, time.Second, 5*time.Millisecond)
	assert.Empty(t, c.events())

	ev := a.events()[0]
	assert.Equal(t, "profile.join", ev.Name)
	assert.Equal(t, map[string]any{"id": "p1"}, ev.Data)

	assert.Equal(t, 0, hub.Emit("nobody", "x", nil))
}

func TestHubDisconnectRoom(t *testing.T) {
	t.Parallel()

	var removed []string
	var mu sync.Mutex
	hub := realtime.NewHub(realtime.WithRemoveHook(func(c *realtime.Conn) {
		mu.Lock()
		removed = append(removed, c.ID())
		mu.Unlock()
	}))

	a, b, other := &fakeTransport{}, &fakeTransport{}, &fakeTransport{}
	ca, cb, co := hub.NewConn(a), hub.NewConn(b), hub.NewConn(other)
	hub.Join(ca, realtime.ProfileRoom("p1"), realtime.RoomAuthenticated)
	hub.Join(cb, realtime.ProfileRoom("p1"))
	hub.Join(co, realtime.ProfileRoom("p2"), realtime.RoomAuthenticated)

	assert.Equal(t, 2, hub.DisconnectRoom(realtime.ProfileRoom("p1")))
	assert.True(t, a.isClosed())
	assert.True(t, b.isClosed())
	assert.False(t, other.isClosed())

	assert.Equal(t, 1, hub.Count())
	assert.Empty(t, hub.Members(realtime.ProfileRoom("p1")))
	assert.Len(t, hub.Members(realtime.RoomAuthenticated), 1)

	mu.Lock()
	assert.ElementsMatch(t, []string{ca.ID(), cb.ID()}, removed)
	mu.Unlock()

	select {
	case <-ca.Done():
	default:
		t.Fatal("closed connection should report done")
	}
	assert.ErrorIs(t, ca.Emit("x", nil), realtime.ErrConnClosed)
	assert.Equal(t, 0, hub.DisconnectRoom(realtime.ProfileRoom("p1")))
}

func TestConnIdentity(t *testing.T) {
	t.Parallel()

	hub := realtime.NewHub()
	c := hub.NewConn(&fakeTransport{})
	assert.False(t, c.Identity().Authenticated())

	c.SetIdentity(realtime.Identity{ProfileID: "p1", TenantID: "t1", Username: "ann"})
	assert.True(t, c.Identity().Authenticated())
	assert.Equal(t, "t1", c.Identity().TenantID)
	assert.NotEmpty(t, c.ID())
}

func TestSlowClientIsDropped(t *testing.T) {
	t.Parallel()

	hub := realtime.NewHub(realtime.WithBufferSize(1))
	slow := &fakeTransport{block: make(chan struct{})}
	c := hub.NewConn(slow)
	hub.Join(c, "room")
	defer close(slow.block)

	// the first frame is picked up by the writer and blocks it; the second
	// fills the queue, so the third overflows
	var lastErr error
	for range 5 {
		if err := c.Emit("tick", nil); err != nil {
			lastErr = err
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	assert.ErrorIs(t, lastErr, realtime.ErrSlowClient)
	assert.Equal(t, 0, hub.Count())
	assert.True(t, slow.isClosed())
}

func TestWriteFailureClosesConn(t *testing.T) {
	t.Parallel()

	hub := realtime.NewHub()
	broken := &fakeTransport{writeErr: errors.New("broken pipe")}
	c := hub.NewConn(broken)
	require.NoError(t, c.Emit("hello", nil))

	require.Eventually(t, func() bool { return hub.Count() == 0 }, time.Second, 5*time.Millisecond)
	assert.True(t, broken.isClosed())
}

func TestRoomNames(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "profile:p1", realtime.ProfileRoom("p1"))
	assert.Equal(t, "tenant:t1", realtime.TenantRoom("t1"))
	assert.Equal(t, "tenant:none", realtime.TenantRoom(""))
}

func TestJoinAfterClose(t *testing.T) {
	t.Parallel()

	hub := realtime.NewHub()
	c := hub.NewConn(&fakeTransport{})
	hub.Join(c, "a", "b")
	assert.Len(t, hub.Members("a"), 1)
	assert.Len(t, hub.Members("b"), 1)

	_ = c.Close()
	assert.Empty(t, hub.Members("a"))
	hub.Join(c, "c")
	assert.Empty(t, hub.Members("c"))
}

func TestHubAddHook(t *testing.T) {
	t.Parallel()

	var added, removed int
	hub := realtime.NewHub(
		realtime.WithAddHook(func(*realtime.Conn) { added++ }),
		realtime.WithRemoveHook(func(*realtime.Conn) { removed++ }),
	)

	c := hub.NewConn(&fakeTransport{})
	assert.Equal(t, 1, added)
	assert.Equal(t, 0, removed)

	require.NoError(t, c.Close())
	require.NoError(t, c.Close())
	assert.Equal(t, 1, removed)
}
