// Package realtime implements the websocket fan-out layer: named rooms that
// connections opt into, global broadcast, and online-presence tracking.
//
// Delivery is at-most-once best-effort. There is no persistence or replay; a
// connection that is not subscribed at emission time never sees the event.
package realtime

import (
	"encoding/json"
	"sync"
)

// Event is a server→client frame.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// Server→client event types.
const (
	EventTaskCreated       = "taskCreated"
	EventTaskMoved         = "taskMoved"
	EventTaskUpdated       = "taskUpdated"
	EventTaskDeleted       = "taskDeleted"
	EventNewMessage        = "newMessage"
	EventMessagesRead      = "messagesRead"
	EventUserStatusChanged = "userStatusChanged"
)

// TeamRoom names the broadcast scope for a team channel.
func TeamRoom(teamID string) string { return "team-" + teamID }

// ProjectRoom names the broadcast scope for a project board.
func ProjectRoom(projectID string) string { return "project-" + projectID }

type peer struct {
	mu      sync.Mutex
	encoder *json.Encoder
}

func newPeer(encoder *json.Encoder) *peer {
	return &peer{encoder: encoder}
}

func (p *peer) send(ev Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.encoder.Encode(ev)
}

// Hub tracks every open connection and the rooms each one has joined.
type Hub struct {
	mu    sync.Mutex
	peers map[*peer]struct{}
	rooms map[string]map[*peer]struct{}
}

func NewHub() *Hub {
	return &Hub{
		peers: make(map[*peer]struct{}),
		rooms: make(map[string]map[*peer]struct{}),
	}
}

func (h *Hub) register(p *peer) {
	h.mu.Lock()
	h.peers[p] = struct{}{}
	h.mu.Unlock()
}

// unregister drops the peer from the global set and from every joined room.
func (h *Hub) unregister(p *peer) {
	h.mu.Lock()
	delete(h.peers, p)
	for name, room := range h.rooms {
		delete(room, p)
		if len(room) == 0 {
			delete(h.rooms, name)
		}
	}
	h.mu.Unlock()
}

func (h *Hub) join(p *peer, room string) {
	h.mu.Lock()
	subs, ok := h.rooms[room]
	if !ok {
		subs = make(map[*peer]struct{})
		h.rooms[room] = subs
	}
	subs[p] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) leave(p *peer, room string) {
	h.mu.Lock()
	if subs, ok := h.rooms[room]; ok {
		delete(subs, p)
		if len(subs) == 0 {
			delete(h.rooms, room)
		}
	}
	h.mu.Unlock()
}

// BroadcastRoom delivers the event to current subscribers of the room.
// Zero subscribers is a normal outcome, not an error.
func (h *Hub) BroadcastRoom(room string, ev Event) {
	h.mu.Lock()
	subs := make([]*peer, 0, len(h.rooms[room]))
	for p := range h.rooms[room] {
		subs = append(subs, p)
	}
	h.mu.Unlock()

	go deliver(subs, ev)
}

// BroadcastAll delivers the event to every connected session.
func (h *Hub) BroadcastAll(ev Event) {
	h.mu.Lock()
	subs := make([]*peer, 0, len(h.peers))
	for p := range h.peers {
		subs = append(subs, p)
	}
	h.mu.Unlock()

	go deliver(subs, ev)
}

// deliver runs off the triggering request's goroutine so emission never blocks
// the response. A failed write only costs that subscriber the event.
func deliver(subs []*peer, ev Event) {
	for _, p := range subs {
		_ = p.send(ev)
	}
}
