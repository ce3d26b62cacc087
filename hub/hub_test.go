package hub

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SirOfGears/Net-Chat/domain"
)

type mockConn struct {
	id       string
	received [][]byte
	closed   bool
	mu       sync.Mutex
}

func (m *mockConn) ID() string { return m.id }

func (m *mockConn) Send(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return errors.New("connection closed")
	}
	m.received = append(m.received, data)
	return nil
}

func (m *mockConn) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *mockConn) getReceived() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]byte(nil), m.received...)
}

func (m *mockConn) isClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

type frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func decodeFrames(t *testing.T, raw [][]byte) []frame {
	t.Helper()
	frames := make([]frame, 0, len(raw))
	for _, b := range raw {
		var f frame
		require.NoError(t, json.Unmarshal(b, &f))
		frames = append(frames, f)
	}
	return frames
}

func decodeMessage(t *testing.T, data json.RawMessage) domain.Message {
	t.Helper()
	var msg domain.Message
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func TestHub_JoinReplaysHistory(t *testing.T) {
	h := New()
	h.Post("r1", domain.Text("alice", "one"))
	h.Post("r1", domain.Text("alice", "two"))

	conn := &mockConn{id: "c1"}
	h.Join(conn, "r1", "bob")

	frames := decodeFrames(t, conn.getReceived())
	require.Len(t, frames, 2)

	assert.Equal(t, domain.EventHistory, frames[0].Event)
	var history []domain.Message
	require.NoError(t, json.Unmarshal(frames[0].Data, &history))
	require.Len(t, history, 2)
	assert.Equal(t, "one", history[0].Text)
	assert.Equal(t, "two", history[1].Text)

	assert.Equal(t, domain.EventMessage, frames[1].Event)
	announce := decodeMessage(t, frames[1].Data)
	assert.Equal(t, domain.TypeSystem, announce.Type)
	assert.Equal(t, "bob entrou na sala.", announce.Text)

	// the announcement itself lands in history
	assert.Len(t, h.Snapshot("r1"), 3)
}

func TestHub_JoinEmptyRoom(t *testing.T) {
	h := New()
	conn := &mockConn{id: "c1"}

	h.Join(conn, "fresh", "bob")

	frames := decodeFrames(t, conn.getReceived())
	require.Len(t, frames, 2)
	assert.Equal(t, domain.EventHistory, frames[0].Event)
	var history []domain.Message
	require.NoError(t, json.Unmarshal(frames[0].Data, &history))
	assert.Empty(t, history)
}

func TestHub_Post(t *testing.T) {
	tests := []struct {
		name         string
		setup        func(*Hub) []*mockConn
		room         string
		wantReceived map[string]int
	}{
		{
			name: "delivered to every member",
			setup: func(h *Hub) []*mockConn {
				c1 := &mockConn{id: "c1"}
				c2 := &mockConn{id: "c2"}
				h.Join(c1, "r1", "a")
				h.Join(c2, "r1", "b")
				return []*mockConn{c1, c2}
			},
			room:         "r1",
			wantReceived: map[string]int{"c1": 1, "c2": 1},
		},
		{
			name: "no cross-room delivery",
			setup: func(h *Hub) []*mockConn {
				c1 := &mockConn{id: "c1"}
				c2 := &mockConn{id: "c2"}
				h.Join(c1, "r1", "a")
				h.Join(c2, "r2", "b")
				return []*mockConn{c1, c2}
			},
			room:         "r1",
			wantReceived: map[string]int{"c1": 1, "c2": 0},
		},
		{
			name: "no members",
			setup: func(h *Hub) []*mockConn {
				return nil
			},
			room:         "r1",
			wantReceived: map[string]int{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := New()
			conns := tt.setup(h)

			h.Post(tt.room, domain.Text("alice", "hello"))

			for _, c := range conns {
				var got int
				for _, f := range decodeFrames(t, c.getReceived()) {
					if f.Event != domain.EventMessage {
						continue
					}
					if decodeMessage(t, f.Data).Type == domain.TypeText {
						got++
					}
				}
				assert.Equal(t, tt.wantReceived[c.id], got, "conn %s", c.id)
			}
			// appended regardless of membership
			require.NotEmpty(t, h.Snapshot(tt.room))
		})
	}
}

// A joiner must see every message exactly once: either inside the replayed
// snapshot or as a live frame afterwards, in order, with no gap and no
// duplicate even while writers race the join.
func TestHub_SnapshotThenLiveExactlyOnce(t *testing.T) {
	const total = 200
	h := New()

	conn := &mockConn{id: "joiner"}
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < total; i++ {
			h.Post("r1", domain.Text("w", fmt.Sprintf("%d", i)))
		}
	}()
	h.Join(conn, "r1", "joiner")
	<-done

	var seen []string
	frames := decodeFrames(t, conn.getReceived())
	require.NotEmpty(t, frames)
	require.Equal(t, domain.EventHistory, frames[0].Event)

	var history []domain.Message
	require.NoError(t, json.Unmarshal(frames[0].Data, &history))
	for _, m := range history {
		if m.Type == domain.TypeText {
			seen = append(seen, m.Text)
		}
	}
	for _, f := range frames[1:] {
		require.Equal(t, domain.EventMessage, f.Event)
		if m := decodeMessage(t, f.Data); m.Type == domain.TypeText {
			seen = append(seen, m.Text)
		}
	}

	require.Len(t, seen, total)
	for i, text := range seen {
		assert.Equal(t, fmt.Sprintf("%d", i), text)
	}
}

func TestHub_Teardown(t *testing.T) {
	h := New()
	c1 := &mockConn{id: "c1"}
	c2 := &mockConn{id: "c2"}
	h.Join(c1, "r1", "a")
	h.Join(c2, "r1", "b")
	h.Post("r1", domain.Text("a", "doomed"))

	h.Teardown("r1")

	assert.Empty(t, h.Snapshot("r1"))
	_, clients := h.Stats()
	assert.Equal(t, 0, clients)

	for _, c := range []*mockConn{c1, c2} {
		assert.True(t, c.isClosed(), "conn %s", c.id)
		var notices int
		for _, f := range decodeFrames(t, c.getReceived()) {
			if f.Event != domain.EventSystemCommand {
				continue
			}
			notices++
			var cmd domain.SystemCommand
			require.NoError(t, json.Unmarshal(f.Data, &cmd))
			assert.Equal(t, "!torre", cmd.Cmd)
			assert.Equal(t, "A torre ruiu. Você foi desconectado.", cmd.Msg)
		}
		assert.Equal(t, 1, notices, "conn %s", c.id)
	}

	// evicted members see nothing of the room's later life
	h.Post("r1", domain.Text("x", "afterlife"))
	for _, c := range []*mockConn{c1, c2} {
		for _, f := range decodeFrames(t, c.getReceived()) {
			if f.Event == domain.EventMessage {
				assert.NotEqual(t, "afterlife", decodeMessage(t, f.Data).Text)
			}
		}
	}
}

func TestHub_TeardownEmptyRoom(t *testing.T) {
	h := New()
	h.Teardown("ghost")
	assert.Empty(t, h.Snapshot("ghost"))
}

// Posts racing a teardown must never vanish from both views: each one is
// either delivered to a member before the clear or left in the history after
// it.
func TestHub_ConcurrentTeardownAndPost(t *testing.T) {
	const total = 100
	h := New()
	member := &mockConn{id: "m"}
	h.Join(member, "r1", "m")

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < total; i++ {
			h.Post("r1", domain.Text("w", fmt.Sprintf("%d", i)))
		}
	}()
	go func() {
		defer wg.Done()
		h.Teardown("r1")
	}()
	wg.Wait()

	accounted := make(map[string]bool)
	for _, f := range decodeFrames(t, member.getReceived()) {
		if f.Event != domain.EventMessage {
			continue
		}
		if m := decodeMessage(t, f.Data); m.Type == domain.TypeText {
			accounted[m.Text] = true
		}
	}
	for _, m := range h.Snapshot("r1") {
		if m.Type == domain.TypeText {
			accounted[m.Text] = true
		}
	}

	for i := 0; i < total; i++ {
		assert.True(t, accounted[fmt.Sprintf("%d", i)], "message %d lost", i)
	}
}

func TestHub_Unregister(t *testing.T) {
	h := New()
	conn := &mockConn{id: "c1"}
	h.Join(conn, "r1", "a")
	h.Join(conn, "r2", "a")

	rooms, clients := h.Stats()
	require.Equal(t, 2, rooms)
	require.Equal(t, 2, clients)

	h.Unregister(conn)

	// rooms and their history survive the member leaving
	rooms, clients = h.Stats()
	assert.Equal(t, 2, rooms)
	assert.Equal(t, 0, clients)
	assert.Len(t, h.Snapshot("r1"), 1)

	before := len(conn.getReceived())
	h.Post("r1", domain.Text("x", "unheard"))
	assert.Len(t, conn.getReceived(), before)
}

func TestHub_SnapshotUnknownRoom(t *testing.T) {
	h := New()
	assert.Nil(t, h.Snapshot("nope"))

	rooms, _ := h.Stats()
	assert.Equal(t, 0, rooms, "snapshot must not create the room")
}
