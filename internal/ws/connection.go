package ws

import (
	"time"

	"github.com/gofiber/websocket/v2"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
	readLimit  = 64 * 1024
	sendBuffer = 256
)

// Connection wraps one websocket session. Outbound traffic goes
// through the buffered send channel so broadcasts never block on a
// slow peer.
type Connection struct {
	id     string
	userID string
	ws     *websocket.Conn
	send   chan any
}

func newConnection(id, userID string, conn *websocket.Conn) *Connection {
	return &Connection{
		id:     id,
		userID: userID,
		ws:     conn,
		send:   make(chan any, sendBuffer),
	}
}

// Send queues payload for delivery, dropping it if the buffer is full.
func (c *Connection) Send(payload any) {
	select {
	case c.send <- payload:
	default:
	}
}

func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.ws.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				_ = c.ws.WriteControl(websocket.CloseMessage, []byte{}, time.Now().Add(time.Second))
				return
			}
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(time.Second)); err != nil {
				return
			}
		}
	}
}
