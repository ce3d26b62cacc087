package hub

import (
	"log/slog"
	"sync"

	"github.com/SirOfGears/Net-Chat/domain"
)

// room holds everything shared for one chat room. history and clients are
// only touched under mu; every append+fan-out pair runs as one critical
// section so a join replay can never duplicate or miss a message.
type room struct {
	name    string
	clients map[string]domain.Connection
	history []domain.Message
	mu      sync.RWMutex
}

// Hub is the room registry. Rooms are created lazily on first reference and
// live for the rest of the process; only a teardown empties one out.
type Hub struct {
	rooms map[string]*room
	mu    sync.RWMutex
}

func New() *Hub {
	return &Hub{
		rooms: make(map[string]*room),
	}
}

func (h *Hub) getOrCreate(name string) *room {
	h.mu.Lock()
	defer h.mu.Unlock()

	r, exists := h.rooms[name]
	if !exists {
		r = &room{name: name, clients: make(map[string]domain.Connection)}
		h.rooms[name] = r
		slog.Info("room created", "room", name)
	}
	return r
}

func (h *Hub) lookup(name string) (*room, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	r, exists := h.rooms[name]
	return r, exists
}

// Join registers conn as a member of the room, replays the history to conn
// alone and announces the arrival to the whole room, joiner included. The
// replay and the announcement append happen under the room lock, so every
// message lands in exactly one of the two streams the joiner sees.
func (h *Hub) Join(conn domain.Connection, roomName, username string) {
	r := h.getOrCreate(roomName)

	r.mu.Lock()
	r.clients[conn.ID()] = conn
	count := len(r.clients)

	// copy with make so an empty history serializes as [] and not null
	replay := make([]domain.Message, len(r.history))
	copy(replay, r.history)
	snapshot := domain.Event{Event: domain.EventHistory, Data: replay}
	if data, err := snapshot.Encode(); err == nil {
		r.deliver(conn, data)
	} else {
		slog.Warn("history encode failed", "room", roomName, "error", err)
	}

	msg := domain.JoinAnnouncement(username)
	r.history = append(r.history, msg)
	r.fanOut(domain.Event{Event: domain.EventMessage, Data: msg})
	r.mu.Unlock()

	slog.Info("client joined", "room", roomName, "clientId", conn.ID(), "username", username, "clients", count)
}

// Post appends msg to the room history and broadcasts it to every current
// member, atomically with respect to joins and teardowns on the same room.
func (h *Hub) Post(roomName string, msg domain.Message) {
	r := h.getOrCreate(roomName)

	r.mu.Lock()
	r.history = append(r.history, msg)
	r.fanOut(domain.Event{Event: domain.EventMessage, Data: msg})
	r.mu.Unlock()
}

// Teardown wipes the room: history is cleared, every member gets a one-shot
// system_command notice that is never appended to history, and membership is
// reset before the best-effort disconnect loop runs.
func (h *Hub) Teardown(roomName string) {
	r := h.getOrCreate(roomName)

	r.mu.Lock()
	r.history = nil
	r.fanOut(domain.TeardownEvent())
	evicted := make([]domain.Connection, 0, len(r.clients))
	for _, conn := range r.clients {
		evicted = append(evicted, conn)
	}
	r.clients = make(map[string]domain.Connection)
	r.mu.Unlock()

	for _, conn := range evicted {
		if err := conn.Close(); err != nil {
			slog.Debug("eviction close failed", "room", roomName, "clientId", conn.ID(), "error", err)
		}
	}
	slog.Info("room torn down", "room", roomName, "evicted", len(evicted))
}

// Unregister removes conn from every room it is a member of. History is not
// touched; rooms outlive their members.
func (h *Hub) Unregister(conn domain.Connection) {
	h.mu.RLock()
	rooms := make([]*room, 0, len(h.rooms))
	for _, r := range h.rooms {
		rooms = append(rooms, r)
	}
	h.mu.RUnlock()

	for _, r := range rooms {
		r.mu.Lock()
		if _, member := r.clients[conn.ID()]; member {
			delete(r.clients, conn.ID())
			slog.Info("client disconnected", "room", r.name, "clientId", conn.ID(), "clients", len(r.clients))
		}
		r.mu.Unlock()
	}
}

// Snapshot returns a copy of the room's current history, oldest first.
func (h *Hub) Snapshot(roomName string) []domain.Message {
	r, exists := h.lookup(roomName)
	if !exists {
		return nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]domain.Message(nil), r.history...)
}

func (h *Hub) Stats() (rooms, clients int) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	rooms = len(h.rooms)
	for _, r := range h.rooms {
		r.mu.RLock()
		clients += len(r.clients)
		r.mu.RUnlock()
	}
	return rooms, clients
}

// fanOut delivers one event to every member. Callers hold r.mu.
func (r *room) fanOut(ev domain.Event) {
	data, err := ev.Encode()
	if err != nil {
		slog.Warn("event encode failed", "room", r.name, "event", ev.Event, "error", err)
		return
	}
	for _, conn := range r.clients {
		r.deliver(conn, data)
	}
}

// deliver sends to a single member. Delivery failures are swallowed: a slow
// or dead connection must not stall the room. Callers hold r.mu.
func (r *room) deliver(conn domain.Connection, data []byte) {
	if err := conn.Send(data); err != nil {
		slog.Debug("delivery failed", "room", r.name, "clientId", conn.ID(), "error", err)
	}
}
