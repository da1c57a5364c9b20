package relay

import (
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"chat-relay/internal/store"
)

// recvEvent pops one frame off the client's send buffer, or reports that none
// was delivered.
func recvEvent(t *testing.T, c *Client) (Envelope, bool) {
	t.Helper()
	select {
	case frame := <-c.send:
		var env Envelope
		require.NoError(t, json.Unmarshal(frame, &env))
		return env, true
	default:
		return Envelope{}, false
	}
}

func TestDispatcher_RelayMessageExcludesSender(t *testing.T) {
	req := require.New(t)
	reg := NewRegistry()
	d := NewDispatcher(reg, slog.Default())

	a, b, c := newTestClient(8), newTestClient(8), newTestClient(8)
	outsider := newTestClient(8)
	reg.Join("R", a)
	reg.Join("R", b)
	reg.Join("R", c)
	reg.Join("other", outsider)

	msg := store.Message{
		ID:      uuid.New(),
		Content: "hi",
		Sender:  store.User{ID: "u1", FirstName: "Ada", LastName: "Lovelace"},
	}
	d.RelayMessage("R", a, msg)

	for _, member := range []*Client{b, c} {
		env, ok := recvEvent(t, member)
		req.True(ok)
		req.Equal(EventReceive, env.Event)

		var got wireMessage
		req.NoError(json.Unmarshal(env.Data, &got))
		req.Equal("hi", got.Content)
		req.Equal(msg.ID.String(), got.ID)
		req.Equal("Ada", got.Sender.FirstName)

		_, again := recvEvent(t, member)
		req.False(again, "exactly one event per recipient")
	}

	_, got := recvEvent(t, a)
	req.False(got, "sender must not receive its own message")
	_, got = recvEvent(t, outsider)
	req.False(got, "non-members must not receive anything")
}

func TestDispatcher_RelayTypingSendsBareBool(t *testing.T) {
	req := require.New(t)
	reg := NewRegistry()
	d := NewDispatcher(reg, slog.Default())

	a, b := newTestClient(8), newTestClient(8)
	reg.Join("R", a)
	reg.Join("R", b)

	d.RelayTyping("R", a, true)

	env, ok := recvEvent(t, b)
	req.True(ok)
	req.Equal(EventTyping, env.Event)
	req.JSONEq("true", string(env.Data))

	_, got := recvEvent(t, a)
	req.False(got)
}

func TestDispatcher_NotifyLeaveHasNoExclusion(t *testing.T) {
	req := require.New(t)
	reg := NewRegistry()
	d := NewDispatcher(reg, slog.Default())

	a, b := newTestClient(8), newTestClient(8)
	reg.Join("R", a)
	reg.Join("R", b)

	d.NotifyLeave("R", RoomPayload{ID: "R", Name: "general"})

	for _, member := range []*Client{a, b} {
		env, ok := recvEvent(t, member)
		req.True(ok)
		req.Equal(EventLeave, env.Event)

		var room RoomPayload
		req.NoError(json.Unmarshal(env.Data, &room))
		req.Equal("R", room.ID)
	}
}

func TestDispatcher_DeliveryFailureIsIsolated(t *testing.T) {
	req := require.New(t)
	reg := NewRegistry()
	d := NewDispatcher(reg, slog.Default())

	full := newTestClient(0) // no buffer, every send drops
	closed := newTestClient(8)
	closed.close()
	healthy := newTestClient(8)
	reg.Join("R", full)
	reg.Join("R", closed)
	reg.Join("R", healthy)

	d.RelayMessage("R", nil, store.Message{ID: uuid.New(), Content: "still here"})

	env, ok := recvEvent(t, healthy)
	req.True(ok)
	req.Equal(EventReceive, env.Event)
}

func TestDispatcher_DeliverHistoryTargetsOneConnection(t *testing.T) {
	req := require.New(t)
	reg := NewRegistry()
	d := NewDispatcher(reg, slog.Default())

	joiner, other := newTestClient(8), newTestClient(8)
	reg.Join("R", joiner)
	reg.Join("R", other)

	window := []store.Message{{Content: "a"}, {Content: "b"}}
	d.DeliverHistory(joiner, window)

	env, ok := recvEvent(t, joiner)
	req.True(ok)
	req.Equal(EventHistory, env.Event)

	var got []wireHistoryMessage
	req.NoError(json.Unmarshal(env.Data, &got))
	req.Len(got, 2)
	req.Equal("a", got[0].Content)

	_, leaked := recvEvent(t, other)
	req.False(leaked)
}

func TestDispatcher_DeliverHistoryEmptyWindow(t *testing.T) {
	req := require.New(t)
	reg := NewRegistry()
	d := NewDispatcher(reg, slog.Default())

	joiner := newTestClient(8)
	d.DeliverHistory(joiner, nil)

	env, ok := recvEvent(t, joiner)
	req.True(ok)
	req.Equal(EventHistory, env.Event)
	req.JSONEq("[]", string(env.Data))
}
