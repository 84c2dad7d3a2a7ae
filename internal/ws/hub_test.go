package ws

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func testConn(id string) *Connection {
	return newConnection(id, "user-"+id, nil)
}

func drain(c *Connection) []any {
	var out []any
	for {
		select {
		case msg := <-c.send:
			out = append(out, msg)
		default:
			return out
		}
	}
}

func TestHub_JoinIsIdempotent(t *testing.T) {
	req := require.New(t)
	h := NewHub()
	c := testConn("a")

	h.Join("r1", c)
	h.Join("r1", c)
	req.Equal(1, h.RoomSize("r1"))

	h.Broadcast("r1", "hello")
	req.Len(drain(c), 1)
}

func TestHub_BroadcastReachesAllMembersIncludingSender(t *testing.T) {
	req := require.New(t)
	h := NewHub()
	a, b, outsider := testConn("a"), testConn("b"), testConn("c")

	h.Join("r1", a)
	h.Join("r1", b)
	h.Join("r2", outsider)

	h.Broadcast("r1", "hi")
	req.Len(drain(a), 1)
	req.Len(drain(b), 1)
	req.Empty(drain(outsider))
}

func TestHub_BroadcastExceptSkipsOrigin(t *testing.T) {
	req := require.New(t)
	h := NewHub()
	a, b := testConn("a"), testConn("b")

	h.Join("r1", a)
	h.Join("r1", b)

	h.BroadcastExcept("r1", a, "typing")
	req.Empty(drain(a))
	req.Len(drain(b), 1)
}

func TestHub_RemoveDropsConnectionFromAllRooms(t *testing.T) {
	req := require.New(t)
	h := NewHub()
	a, b := testConn("a"), testConn("b")

	h.Join("r1", a)
	h.Join("r2", a)
	h.Join("r1", b)

	h.Remove(a)
	req.Equal(1, h.RoomSize("r1"))
	req.Equal(0, h.RoomSize("r2"))

	h.Broadcast("r1", "hi")
	h.Broadcast("r2", "hi")
	req.Empty(drain(a))
	req.Len(drain(b), 1)
}

func TestHub_BroadcastToUnknownRoomIsNoop(t *testing.T) {
	h := NewHub()
	h.Broadcast("nope", "hi")
}

func TestHub_ConcurrentJoinLeaveBroadcast(t *testing.T) {
	h := NewHub()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c := testConn(fmt.Sprintf("c%d", i))
			room := fmt.Sprintf("r%d", i%5)
			h.Join(room, c)
			h.Broadcast(room, i)
			h.BroadcastExcept(room, c, i)
			h.Remove(c)
		}(i)
	}
	wg.Wait()

	for i := 0; i < 5; i++ {
		require.Equal(t, 0, h.RoomSize(fmt.Sprintf("r%d", i)))
	}
}
