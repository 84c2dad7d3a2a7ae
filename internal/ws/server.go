package ws

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/quickmoney/chat-service/internal/events"
	"github.com/quickmoney/chat-service/internal/metrics"
	"github.com/quickmoney/chat-service/internal/models"
	"github.com/quickmoney/chat-service/internal/presence"
	"github.com/quickmoney/chat-service/internal/service"
)

// Envelope frames every event on the realtime channel, both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type outEnvelope struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

type sendMessagePayload struct {
	SenderID   string    `json:"senderId"`
	ReceiverID string    `json:"receiverId"`
	Message    string    `json:"message"`
	Timestamp  time.Time `json:"timestamp"`
}

type typingPayload struct {
	Room     string `json:"room"`
	IsTyping bool   `json:"isTyping"`
}

type receivePayload struct {
	SenderID   string    `json:"senderId"`
	ReceiverID string    `json:"receiverId"`
	Message    string    `json:"message"`
	RoomID     string    `json:"roomId"`
	Timestamp  time.Time `json:"timestamp"`
}

// Server owns the hub and speaks the event protocol with clients.
// Joining and sending carry no participant check: any connection may
// join any room. That mirrors the upstream behavior and is recorded as
// an accepted gap rather than silently tightened.
type Server struct {
	hub      *Hub
	svc      *service.ChatService
	presence *presence.Store
	log      *zap.SugaredLogger
}

func NewServer(svc *service.ChatService, pres *presence.Store, log *zap.SugaredLogger) *Server {
	return &Server{hub: NewHub(), svc: svc, presence: pres, log: log}
}

func (s *Server) Hub() *Hub { return s.hub }

// OnMessagePersisted is the dispatcher subscription: fan the stored
// message out to every connection joined to its room, the sender's own
// session included.
func (s *Server) OnMessagePersisted(_ context.Context, ev events.MessagePersisted) {
	m := ev.Message
	s.hub.Broadcast(m.RoomID, outEnvelope{
		Event: "receiveMessage",
		Data: receivePayload{
			SenderID:   m.SenderID,
			ReceiverID: m.ReceiverID,
			Message:    m.Body,
			RoomID:     m.RoomID,
			Timestamp:  m.Timestamp,
		},
	})
}

// Handler returns the connection loop for fiber's websocket upgrade.
func (s *Server) Handler() func(*websocket.Conn) {
	return func(conn *websocket.Conn) {
		c := newConnection(uuid.NewString(), conn.Query("userId"), conn)
		metrics.OpenConnections.Inc()
		s.markOnline(c.userID)
		go c.writePump()

		defer func() {
			s.hub.Remove(c)
			close(c.send)
			metrics.OpenConnections.Dec()
			s.markOffline(c.userID)
		}()

		conn.SetReadLimit(readLimit)
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})

		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			_ = conn.SetReadDeadline(time.Now().Add(pongWait))

			var env Envelope
			if err := json.Unmarshal(data, &env); err != nil {
				s.log.Debugw("bad frame", "connId", c.id, "error", err)
				continue
			}
			s.handleEvent(c, env)
		}
	}
}

func (s *Server) handleEvent(c *Connection, env Envelope) {
	switch env.Event {
	case "joinRoom":
		roomID, ok := decodeRoomID(env.Data)
		if !ok {
			return
		}
		s.hub.Join(roomID, c)

	case "sendMessage":
		var p sendMessagePayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if _, err := s.svc.Send(ctx, p.SenderID, p.ReceiverID, p.Message, p.Timestamp, service.OriginRealtime); err != nil {
			s.log.Warnw("realtime send rejected", "connId", c.id, "error", err)
			c.Send(outEnvelope{Event: "error", Data: err.Error()})
		}

	case "typing":
		var p typingPayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			return
		}
		s.hub.BroadcastExcept(p.Room, c, outEnvelope{Event: "typing", Data: p})

	default:
		s.log.Debugw("unknown event", "event", env.Event, "connId", c.id)
	}
}

// decodeRoomID accepts either a bare string or {"roomId": "..."} for
// compatibility with both client generations.
func decodeRoomID(data json.RawMessage) (string, bool) {
	var roomID string
	if err := json.Unmarshal(data, &roomID); err == nil && roomID != "" {
		return roomID, true
	}
	var obj struct {
		RoomID string `json:"roomId"`
	}
	if err := json.Unmarshal(data, &obj); err == nil && obj.RoomID != "" {
		return obj.RoomID, true
	}
	return "", false
}

func (s *Server) markOnline(userID string) {
	if s.presence == nil || userID == "" || userID == models.SystemSender {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.presence.MarkOnline(ctx, userID); err != nil {
		s.log.Warnw("presence online", "userId", userID, "error", err)
	}
}

func (s *Server) markOffline(userID string) {
	if s.presence == nil || userID == "" || userID == models.SystemSender {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.presence.MarkOffline(ctx, userID); err != nil {
		s.log.Warnw("presence offline", "userId", userID, "error", err)
	}
}
