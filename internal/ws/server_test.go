package ws

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/quickmoney/chat-service/internal/events"
	"github.com/quickmoney/chat-service/internal/models"
)

func TestOnMessagePersisted_BroadcastsToRoom(t *testing.T) {
	req := require.New(t)
	s := NewServer(nil, nil, zap.NewNop().Sugar())

	member := testConn("a")
	outsider := testConn("b")
	s.Hub().Join("u1-u2", member)
	s.Hub().Join("u3-u4", outsider)

	msg := &models.Message{
		ID:         "m1",
		SenderID:   "u1",
		ReceiverID: "u2",
		Body:       "hello",
		RoomID:     "u1-u2",
		Timestamp:  time.UnixMilli(1000).UTC(),
	}
	s.OnMessagePersisted(context.Background(), events.MessagePersisted{Message: msg})

	got := drain(member)
	req.Len(got, 1)
	env := got[0].(outEnvelope)
	req.Equal("receiveMessage", env.Event)
	payload := env.Data.(receivePayload)
	req.Equal("u1", payload.SenderID)
	req.Equal("hello", payload.Message)
	req.Equal("u1-u2", payload.RoomID)

	req.Empty(drain(outsider))
}

func TestDecodeRoomID(t *testing.T) {
	req := require.New(t)

	id, ok := decodeRoomID(json.RawMessage(`"u1-u2"`))
	req.True(ok)
	req.Equal("u1-u2", id)

	id, ok = decodeRoomID(json.RawMessage(`{"roomId":"u1-u2"}`))
	req.True(ok)
	req.Equal("u1-u2", id)

	_, ok = decodeRoomID(json.RawMessage(`{}`))
	req.False(ok)

	_, ok = decodeRoomID(json.RawMessage(`42`))
	req.False(ok)
}
