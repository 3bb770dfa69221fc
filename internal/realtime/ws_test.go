package realtime

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/net/websocket"
)

func dialWS(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, err := websocket.Dial(wsURL, "", srv.URL)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func sendFrame(t *testing.T, conn *websocket.Conn, frameType string, payload any) {
	t.Helper()
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	if err := json.NewEncoder(conn).Encode(clientFrame{Type: frameType, Payload: raw}); err != nil {
		t.Fatalf("send frame: %v", err)
	}
}

func readEvent(t *testing.T, dec *json.Decoder) Event {
	t.Helper()
	type result struct {
		ev  Event
		err error
	}
	ch := make(chan result, 1)
	go func() {
		var ev Event
		err := dec.Decode(&ev)
		ch <- result{ev, err}
	}()
	select {
	case r := <-ch:
		if r.err != nil {
			t.Fatalf("read event: %v", r.err)
		}
		return r.ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out reading event")
		return Event{}
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func (h *Hub) roomSize(room string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.rooms[room])
}

func TestWSJoinProjectReceivesRoomEvents(t *testing.T) {
	hub := NewHub()
	tracker := NewTracker(newFakePresenceStore(), hub)
	srv := httptest.NewServer(NewServer(hub, tracker).Handler())
	defer srv.Close()

	conn := dialWS(t, srv)
	dec := json.NewDecoder(conn)

	sendFrame(t, conn, "joinProject", roomPayload{ID: "p1"})
	waitFor(t, func() bool { return hub.roomSize(ProjectRoom("p1")) == 1 })

	hub.BroadcastRoom(ProjectRoom("p1"), Event{Type: EventTaskCreated, Payload: map[string]any{"taskId": "t1"}})

	ev := readEvent(t, dec)
	if ev.Type != EventTaskCreated {
		t.Fatalf("event type = %q, want %q", ev.Type, EventTaskCreated)
	}
}

func TestWSLeaveTeamDropsSubscription(t *testing.T) {
	hub := NewHub()
	tracker := NewTracker(newFakePresenceStore(), hub)
	srv := httptest.NewServer(NewServer(hub, tracker).Handler())
	defer srv.Close()

	conn := dialWS(t, srv)
	sendFrame(t, conn, "joinTeam", roomPayload{ID: "t9"})
	waitFor(t, func() bool { return hub.roomSize(TeamRoom("t9")) == 1 })

	sendFrame(t, conn, "leaveTeam", roomPayload{ID: "t9"})
	waitFor(t, func() bool { return hub.roomSize(TeamRoom("t9")) == 0 })
}

func TestWSUserOnlineAnnounceAndDisconnect(t *testing.T) {
	hub := NewHub()
	store := newFakePresenceStore()
	tracker := NewTracker(store, hub)
	srv := httptest.NewServer(NewServer(hub, tracker).Handler())
	defer srv.Close()

	conn := dialWS(t, srv)
	dec := json.NewDecoder(conn)

	sendFrame(t, conn, "userOnline", announcePayload{UserID: "u-1"})

	ev := readEvent(t, dec)
	if ev.Type != EventUserStatusChanged {
		t.Fatalf("event type = %q", ev.Type)
	}
	payload := ev.Payload.(map[string]any)
	if payload["userId"] != "u-1" || payload["isOnline"] != true {
		t.Fatalf("payload = %v", payload)
	}

	_ = conn.Close()
	waitFor(t, func() bool { return store.offlineCount() == 1 })
}

func TestWSUnsupportedFrame(t *testing.T) {
	hub := NewHub()
	tracker := NewTracker(newFakePresenceStore(), hub)
	srv := httptest.NewServer(NewServer(hub, tracker).Handler())
	defer srv.Close()

	conn := dialWS(t, srv)
	dec := json.NewDecoder(conn)

	sendFrame(t, conn, "speakFriend", roomPayload{ID: "x"})

	ev := readEvent(t, dec)
	if ev.Type != "error" {
		t.Fatalf("event type = %q, want error", ev.Type)
	}
}

func TestWSAnnounceRequiresUserID(t *testing.T) {
	hub := NewHub()
	tracker := NewTracker(newFakePresenceStore(), hub)
	srv := httptest.NewServer(NewServer(hub, tracker).Handler())
	defer srv.Close()

	conn := dialWS(t, srv)
	dec := json.NewDecoder(conn)

	sendFrame(t, conn, "userOnline", announcePayload{UserID: "  "})

	ev := readEvent(t, dec)
	if ev.Type != "error" {
		t.Fatalf("event type = %q, want error", ev.Type)
	}
}
