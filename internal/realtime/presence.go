package realtime

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"
)

// PresenceStore persists the online flag, last-seen stamp and connection id on
// the user record.
type PresenceStore interface {
	SetOnline(ctx context.Context, userID, connID string, at time.Time) error
	SetOffline(ctx context.Context, userID string, at time.Time) error
}

// StatusChange is the userStatusChanged payload, broadcast globally.
type StatusChange struct {
	UserID   string     `json:"userId"`
	IsOnline bool       `json:"isOnline"`
	LastSeen *time.Time `json:"lastSeen,omitempty"`
}

// Tracker maps live connection ids to announced user ids. It is created at
// server start and handed to the websocket server; no ambient globals.
type Tracker struct {
	mu    sync.Mutex
	users map[string]string // connection id -> announced user id

	store PresenceStore
	hub   *Hub
}

func NewTracker(store PresenceStore, hub *Hub) *Tracker {
	return &Tracker{
		users: make(map[string]string),
		store: store,
		hub:   hub,
	}
}

// Announce marks the user online and associates the connection with them.
// If the user already announced on another connection, the newest one wins.
func (t *Tracker) Announce(ctx context.Context, connID, userID string) error {
	if userID == "" {
		return errors.New("empty user id")
	}

	now := time.Now().UTC()
	if err := t.store.SetOnline(ctx, userID, connID, now); err != nil {
		return err
	}

	t.mu.Lock()
	t.users[connID] = userID
	t.mu.Unlock()

	t.hub.BroadcastAll(Event{
		Type:    EventUserStatusChanged,
		Payload: StatusChange{UserID: userID, IsOnline: true},
	})
	return nil
}

// Disconnect handles a closing connection. A connection that never announced
// is not an error; nothing changes and nothing is broadcast.
//
// Known limitation: only the most recently announced connection id is retained
// per user, so a stale connection's disconnect arriving after a newer announce
// can still flip that user offline.
func (t *Tracker) Disconnect(ctx context.Context, connID string) {
	t.mu.Lock()
	userID, ok := t.users[connID]
	if ok {
		delete(t.users, connID)
	}
	t.mu.Unlock()
	if !ok {
		return
	}

	now := time.Now().UTC()
	if err := t.store.SetOffline(ctx, userID, now); err != nil {
		// persist failed, so no event either
		log.Printf("presence: failed to mark %s offline: %v", userID, err)
		return
	}

	t.hub.BroadcastAll(Event{
		Type:    EventUserStatusChanged,
		Payload: StatusChange{UserID: userID, IsOnline: false, LastSeen: &now},
	})
}
