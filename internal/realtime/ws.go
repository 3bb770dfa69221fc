package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/net/websocket"
)

const maxDecodeErrorsPerConn = 8

// clientFrame is what clients send over /ws.
type clientFrame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type roomPayload struct {
	ID string `json:"id"`
}

type announcePayload struct {
	UserID string `json:"userId"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// Server owns the websocket endpoint: room membership and presence announcements.
type Server struct {
	hub     *Hub
	tracker *Tracker
}

func NewServer(hub *Hub, tracker *Tracker) *Server {
	return &Server{hub: hub, tracker: tracker}
}

// Handler returns the /ws HTTP handler.
func (s *Server) Handler() http.Handler {
	return websocket.Handler(s.handleConn)
}

func (s *Server) handleConn(conn *websocket.Conn) {
	defer func() {
		_ = conn.Close()
	}()

	connID := uuid.NewString()
	decoder := json.NewDecoder(conn)
	p := newPeer(json.NewEncoder(conn))

	s.hub.register(p)
	defer func() {
		s.hub.unregister(p)
		// the request context is gone by now
		s.tracker.Disconnect(context.Background(), connID)
	}()

	decodeErrors := 0
	for {
		var frame clientFrame
		if err := decoder.Decode(&frame); err != nil {
			if errors.Is(err, io.EOF) {
				return
			}
			decodeErrors++
			_ = p.send(Event{Type: "error", Payload: errorPayload{Message: "invalid frame payload"}})
			if decodeErrors >= maxDecodeErrorsPerConn {
				return
			}
			continue
		}
		decodeErrors = 0

		switch frame.Type {
		case "joinTeam", "leaveTeam", "joinProject", "leaveProject":
			s.handleRoomFrame(p, frame)
		case "userOnline":
			s.handleAnnounceFrame(conn, p, connID, frame)
		default:
			_ = p.send(Event{Type: "error", Payload: errorPayload{Message: "unsupported frame type"}})
		}
	}
}

// handleRoomFrame joins or leaves a named room. Membership is only ever
// changed on explicit client request.
func (s *Server) handleRoomFrame(p *peer, frame clientFrame) {
	var payload roomPayload
	if err := json.Unmarshal(frame.Payload, &payload); err != nil {
		_ = p.send(Event{Type: "error", Payload: errorPayload{Message: "invalid room payload"}})
		return
	}
	id := strings.TrimSpace(payload.ID)
	if id == "" {
		_ = p.send(Event{Type: "error", Payload: errorPayload{Message: "id is required"}})
		return
	}

	switch frame.Type {
	case "joinTeam":
		s.hub.join(p, TeamRoom(id))
	case "leaveTeam":
		s.hub.leave(p, TeamRoom(id))
	case "joinProject":
		s.hub.join(p, ProjectRoom(id))
	case "leaveProject":
		s.hub.leave(p, ProjectRoom(id))
	}
}

func (s *Server) handleAnnounceFrame(conn *websocket.Conn, p *peer, connID string, frame clientFrame) {
	var payload announcePayload
	if err := json.Unmarshal(frame.Payload, &payload); err != nil || strings.TrimSpace(payload.UserID) == "" {
		_ = p.send(Event{Type: "error", Payload: errorPayload{Message: "userOnline requires a userId"}})
		return
	}

	ctx := context.Background()
	if req := conn.Request(); req != nil {
		ctx = req.Context()
	}
	if err := s.tracker.Announce(ctx, connID, strings.TrimSpace(payload.UserID)); err != nil {
		log.Printf("realtime: presence announce failed for %q: %v", payload.UserID, err)
		_ = p.send(Event{Type: "error", Payload: errorPayload{Message: "presence update failed"}})
	}
}
