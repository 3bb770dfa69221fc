package realtime

import (
	"encoding/json"
	"io"
	"testing"
	"time"
)

// newPipePeer wires a peer to an in-memory pipe and decodes everything the
// peer is sent onto a channel.
func newPipePeer(t *testing.T) (*peer, <-chan Event) {
	t.Helper()

	pr, pw := io.Pipe()
	p := newPeer(json.NewEncoder(pw))
	ch := make(chan Event, 16)
	go func() {
		dec := json.NewDecoder(pr)
		for {
			var ev Event
			if err := dec.Decode(&ev); err != nil {
				close(ch)
				return
			}
			ch <- ev
		}
	}()
	t.Cleanup(func() { _ = pw.Close() })
	return p, ch
}

func recvEvent(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func expectNoEvent(t *testing.T, ch <-chan Event) {
	t.Helper()
	select {
	case ev := <-ch:
		t.Fatalf("unexpected event %q", ev.Type)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestBroadcastRoomScoping(t *testing.T) {
	hub := NewHub()
	member, memberCh := newPipePeer(t)
	outsider, outsiderCh := newPipePeer(t)

	hub.register(member)
	hub.register(outsider)
	hub.join(member, ProjectRoom("p1"))

	hub.BroadcastRoom(ProjectRoom("p1"), Event{Type: EventTaskMoved})

	if ev := recvEvent(t, memberCh); ev.Type != EventTaskMoved {
		t.Fatalf("member got %q, want %q", ev.Type, EventTaskMoved)
	}
	expectNoEvent(t, outsiderCh)
}

func TestBroadcastAllReachesEveryConnection(t *testing.T) {
	hub := NewHub()
	a, aCh := newPipePeer(t)
	b, bCh := newPipePeer(t)

	hub.register(a)
	hub.register(b)

	hub.BroadcastAll(Event{Type: EventUserStatusChanged})

	if ev := recvEvent(t, aCh); ev.Type != EventUserStatusChanged {
		t.Fatalf("a got %q", ev.Type)
	}
	if ev := recvEvent(t, bCh); ev.Type != EventUserStatusChanged {
		t.Fatalf("b got %q", ev.Type)
	}
}

func TestLeaveStopsDelivery(t *testing.T) {
	hub := NewHub()
	p, ch := newPipePeer(t)

	hub.register(p)
	hub.join(p, TeamRoom("t1"))
	hub.leave(p, TeamRoom("t1"))

	hub.BroadcastRoom(TeamRoom("t1"), Event{Type: EventNewMessage})
	expectNoEvent(t, ch)
}

func TestUnregisterRemovesFromRooms(t *testing.T) {
	hub := NewHub()
	p, ch := newPipePeer(t)

	hub.register(p)
	hub.join(p, TeamRoom("t1"))
	hub.join(p, ProjectRoom("p1"))
	hub.unregister(p)

	hub.BroadcastRoom(TeamRoom("t1"), Event{Type: EventNewMessage})
	hub.BroadcastRoom(ProjectRoom("p1"), Event{Type: EventTaskUpdated})
	hub.BroadcastAll(Event{Type: EventUserStatusChanged})
	expectNoEvent(t, ch)
}

func TestBroadcastToEmptyRoomIsNotAnError(t *testing.T) {
	hub := NewHub()
	// fan-out to zero recipients is a normal outcome
	hub.BroadcastRoom(TeamRoom("ghost"), Event{Type: EventNewMessage})
	hub.BroadcastAll(Event{Type: EventMessagesRead})
}

func TestRoomNames(t *testing.T) {
	if got := TeamRoom("42"); got != "team-42" {
		t.Fatalf("TeamRoom = %q", got)
	}
	if got := ProjectRoom("42"); got != "project-42" {
		t.Fatalf("ProjectRoom = %q", got)
	}
}
