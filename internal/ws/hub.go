package ws

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/umairdev1/project-management-tool/internal/metrics"
)

// Envelope is the wire form of every realtime event. Room is empty for
// broadcasts to every connection.
type Envelope struct {
	Event string `json:"event"`
	Room  string `json:"room,omitempty"`
	Data  any    `json:"data,omitempty"`
}

func RoomKey(id string) string    { return "room_" + id }
func UserKey(id string) string    { return "user_" + id }
func ProjectKey(id string) string { return "project_" + id }

// Hub is the process-wide registry of room key to connected clients.
// Membership lives only as long as the connection.
type Hub struct {
	mu      sync.RWMutex
	rooms   map[string]map[*Client]struct{}
	clients map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{
		rooms:   make(map[string]map[*Client]struct{}),
		clients: make(map[*Client]struct{}),
	}
}

// Register makes the client reachable by BroadcastAll.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		return
	}
	h.clients[c] = struct{}{}
	metrics.WsConnections.Inc()
}

func (h *Hub) Join(c *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	members := h.rooms[room]
	if members == nil {
		members = make(map[*Client]struct{})
		h.rooms[room] = members
	}
	members[c] = struct{}{}
	c.rooms[room] = struct{}{}
}

func (h *Hub) Leave(c *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(c, room)
}

func (h *Hub) leaveLocked(c *Client, room string) {
	if members, ok := h.rooms[room]; ok {
		delete(members, c)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
	delete(c.rooms, room)
}

// Disconnect drops every membership of the client and closes its send
// channel. Calling it twice is harmless.
func (h *Hub) Disconnect(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	for room := range c.rooms {
		h.leaveLocked(c, room)
	}
	delete(h.clients, c)
	close(c.send)
	metrics.WsConnections.Dec()
}

// Evict removes the clients of userID from room, or every client when userID
// is empty, and tells each one with a "removed" event. It returns how many
// clients were removed.
func (h *Hub) Evict(room, userID string) int {
	b, _ := json.Marshal(Envelope{Event: "removed", Room: room})
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for c := range h.rooms[room] {
		if userID != "" && c.userID != userID {
			continue
		}
		h.leaveLocked(c, room)
		select {
		case c.send <- b:
		default:
		}
		n++
	}
	return n
}

func (h *Hub) EvictFromRoom(roomID, userID string) {
	h.Evict(RoomKey(roomID), userID)
}

func (h *Hub) EvictFromProject(projectID, userID string) {
	h.Evict(ProjectKey(projectID), userID)
}

// Online is the number of clients joined to room.
func (h *Hub) Online(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

// InRoom reports whether the client is currently joined to room.
func (h *Hub) InRoom(c *Client, room string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := c.rooms[room]
	return ok
}

func (h *Hub) EmitToRoom(roomID, event string, payload any) {
	h.Deliver(Envelope{Event: event, Room: RoomKey(roomID), Data: payload})
}

func (h *Hub) EmitToUser(userID, event string, payload any) {
	h.Deliver(Envelope{Event: event, Room: UserKey(userID), Data: payload})
}

func (h *Hub) EmitToProject(projectID, event string, payload any) {
	h.Deliver(Envelope{Event: event, Room: ProjectKey(projectID), Data: payload})
}

func (h *Hub) BroadcastAll(event string, payload any) {
	h.Deliver(Envelope{Event: event, Data: payload})
}

// Deliver fans the envelope out to local clients. Clients whose buffer is
// full are disconnected rather than waited on.
func (h *Hub) Deliver(env Envelope) {
	b, err := json.Marshal(env)
	if err != nil {
		log.Error().Err(err).Str("event", env.Event).Msg("marshal realtime event")
		return
	}
	h.deliverRaw(env.Room, env.Event, b)
}

func (h *Hub) deliverRaw(room, event string, b []byte) {
	h.mu.RLock()
	var targets []*Client
	if room == "" {
		targets = make([]*Client, 0, len(h.clients))
		for c := range h.clients {
			targets = append(targets, c)
		}
	} else {
		targets = make([]*Client, 0, len(h.rooms[room]))
		for c := range h.rooms[room] {
			targets = append(targets, c)
		}
	}
	var slow []*Client
	for _, c := range targets {
		select {
		case c.send <- b:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	metrics.RealtimeEvent(event)
	for _, c := range slow {
		log.Warn().Str("user_id", c.userID).Str("event", event).Msg("dropping slow websocket client")
		h.Disconnect(c)
	}
}
