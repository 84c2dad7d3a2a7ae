package chat

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/quickmoney/chat-service/internal/models"
)

func TestRoomKey_OrderIndependent(t *testing.T) {
	req := require.New(t)

	pairs := [][2]string{
		{"u1", "u2"},
		{"alice", "bob"},
		{"5f1d7a3b9c0e4a0001a1b2c3", "5f1d7a3b9c0e4a0001a1b2c4"},
		{"system", "u1"},
		{"same", "same"},
	}
	for _, p := range pairs {
		req.Equal(RoomKey(p[0], p[1]), RoomKey(p[1], p[0]))
	}

	req.Equal("u1-u2", RoomKey("u2", "u1"))
	req.Equal("system-u1", RoomKey("u1", "system"))
}

func TestCounterpart(t *testing.T) {
	req := require.New(t)
	m := &models.Message{SenderID: "u1", ReceiverID: "u2"}

	req.Equal("u2", Counterpart(m, "u1"))
	req.Equal("u1", Counterpart(m, "u2"))
	// A reader who is neither participant sees the sender.
	req.Equal("u1", Counterpart(m, "u3"))
}

func TestValidateUserID(t *testing.T) {
	valid := []string{"u1", "system", "5f1d7a3b9c0e4a0001a1b2c3", "user_42"}
	for _, id := range valid {
		require.NoError(t, ValidateUserID(id), id)
	}

	invalid := []string{"", "u-1", "a b", "u1!", "héllo", strings.Repeat("a", 65)}
	for _, id := range invalid {
		require.Error(t, ValidateUserID(id), id)
	}
}
