package relay

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeJoin(t *testing.T) {
	cases := []struct {
		name    string
		data    string
		wantErr bool
	}{
		{"valid", `{"roomId":"r1","roomName":"general"}`, false},
		{"missing roomId", `{"roomName":"general"}`, true},
		{"missing roomName", `{"roomId":"r1"}`, true},
		{"not json", `"nope`, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := require.New(t)
			p, err := decodeJoin(json.RawMessage(tc.data))
			if tc.wantErr {
				req.ErrorIs(err, errBadRequest)
				return
			}
			req.NoError(err)
			req.Equal("r1", p.RoomID)
			req.Equal("general", p.RoomName)
		})
	}
}

func TestDecodeLeave(t *testing.T) {
	cases := []struct {
		name    string
		data    string
		wantErr bool
	}{
		{"valid", `{"room":{"id":"r1","name":"general"}}`, false},
		{"missing room id", `{"room":{"name":"general"}}`, true},
		{"empty", `{}`, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := require.New(t)
			p, err := decodeLeave(json.RawMessage(tc.data))
			if tc.wantErr {
				req.ErrorIs(err, errBadRequest)
				return
			}
			req.NoError(err)
			req.Equal("r1", p.Room.ID)
		})
	}
}

func TestDecodeMessage(t *testing.T) {
	valid := `{"roomId":"r1","roomName":"general","content":"hi","sender":{"id":"u1"}}`
	cases := []struct {
		name    string
		data    string
		wantErr bool
	}{
		{"valid", valid, false},
		{"missing content", `{"roomId":"r1","roomName":"general","sender":{"id":"u1"}}`, true},
		{"missing sender id", `{"roomId":"r1","roomName":"general","content":"hi","sender":{}}`, true},
		{"missing roomName", `{"roomId":"r1","content":"hi","sender":{"id":"u1"}}`, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := require.New(t)
			p, err := decodeMessage(json.RawMessage(tc.data))
			if tc.wantErr {
				req.ErrorIs(err, errBadRequest)
				return
			}
			req.NoError(err)
			req.Equal("hi", p.Content)
			req.Equal("u1", p.Sender.ID)
		})
	}
}

func TestDecodeTyping(t *testing.T) {
	req := require.New(t)

	p, err := decodeTyping(json.RawMessage(`{"roomName":"general","isTyping":true}`))
	req.NoError(err)
	req.Equal("general", p.RoomName)
	req.True(p.IsTyping)

	// isTyping may legitimately be false; only the room is required.
	p, err = decodeTyping(json.RawMessage(`{"roomName":"general"}`))
	req.NoError(err)
	req.False(p.IsTyping)

	_, err = decodeTyping(json.RawMessage(`{"isTyping":true}`))
	req.ErrorIs(err, errBadRequest)
}

func TestDispatchRejectsMalformedFrames(t *testing.T) {
	req := require.New(t)
	hub := newTestHub(newFakeStore())
	c := newTestClient(8)
	c.hub = hub

	c.dispatch([]byte(`{"event":"join-chat","data":{"roomId":"r1"}}`))

	env, ok := recvEvent(t, c)
	req.True(ok)
	req.Equal(EventError, env.Event)

	var p ErrorPayload
	req.NoError(json.Unmarshal(env.Data, &p))
	req.Equal("bad-request", p.Kind)

	req.Empty(hub.registry.Members("r1"), "rejected joins must not register membership")
}

func TestDispatchRejectsUnknownEvents(t *testing.T) {
	req := require.New(t)
	c := newTestClient(8)
	c.hub = newTestHub(newFakeStore())

	c.dispatch([]byte(`{"event":"shutdown","data":{}}`))

	env, ok := recvEvent(t, c)
	req.True(ok)
	req.Equal(EventError, env.Event)
}
