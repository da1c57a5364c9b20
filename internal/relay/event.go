package relay

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"chat-relay/internal/store"
)

// Event names consumed from clients.
const (
	EventJoin    = "join-chat"
	EventLeave   = "leave-chat"
	EventMessage = "chat-message"
	EventTyping  = "typing"
)

// Event names produced toward clients. The "recieve-message" spelling is part
// of the wire contract and must not be corrected.
const (
	EventHistory = "messages"
	EventReceive = "recieve-message"
	EventError   = "error"
)

// errBadRequest marks a malformed inbound payload rejected at the boundary.
var errBadRequest = errors.New("bad request")

// Envelope frames every event in both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type JoinPayload struct {
	RoomID   string `json:"roomId"`
	RoomName string `json:"roomName"`
}

type RoomPayload struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

type LeavePayload struct {
	Room RoomPayload `json:"room"`
}

type SenderRef struct {
	ID string `json:"id"`
}

type MessagePayload struct {
	RoomID   string    `json:"roomId"`
	RoomName string    `json:"roomName"`
	Content  string    `json:"content"`
	Sender   SenderRef `json:"sender"`
}

type TypingPayload struct {
	RoomName string `json:"roomName"`
	IsTyping bool   `json:"isTyping"`
}

type ErrorPayload struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Outbound message shapes. History entries carry the creation time, relayed
// messages the message id, matching what each recipient needs to render.
type wireSender struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

type wireHistoryMessage struct {
	CreatedAt time.Time  `json:"createdAt"`
	Content   string     `json:"content"`
	Sender    wireSender `json:"sender"`
}

type wireMessage struct {
	Content string     `json:"content"`
	ID      string     `json:"id"`
	Sender  wireSender `json:"sender"`
}

func toWireSender(u store.User) wireSender {
	return wireSender{ID: u.ID, FirstName: u.FirstName, LastName: u.LastName}
}

func decodeJoin(data json.RawMessage) (JoinPayload, error) {
	var p JoinPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return JoinPayload{}, fmt.Errorf("%w: %v", errBadRequest, err)
	}
	if p.RoomID == "" || p.RoomName == "" {
		return JoinPayload{}, fmt.Errorf("%w: join-chat requires roomId and roomName", errBadRequest)
	}
	return p, nil
}

func decodeLeave(data json.RawMessage) (LeavePayload, error) {
	var p LeavePayload
	if err := json.Unmarshal(data, &p); err != nil {
		return LeavePayload{}, fmt.Errorf("%w: %v", errBadRequest, err)
	}
	if p.Room.ID == "" {
		return LeavePayload{}, fmt.Errorf("%w: leave-chat requires room.id", errBadRequest)
	}
	return p, nil
}

func decodeMessage(data json.RawMessage) (MessagePayload, error) {
	var p MessagePayload
	if err := json.Unmarshal(data, &p); err != nil {
		return MessagePayload{}, fmt.Errorf("%w: %v", errBadRequest, err)
	}
	if p.RoomID == "" || p.RoomName == "" || p.Content == "" || p.Sender.ID == "" {
		return MessagePayload{}, fmt.Errorf("%w: chat-message requires roomId, roomName, content and sender.id", errBadRequest)
	}
	return p, nil
}

func decodeTyping(data json.RawMessage) (TypingPayload, error) {
	var p TypingPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return TypingPayload{}, fmt.Errorf("%w: %v", errBadRequest, err)
	}
	if p.RoomName == "" {
		return TypingPayload{}, fmt.Errorf("%w: typing requires roomName", errBadRequest)
	}
	return p, nil
}

func marshalEvent(event string, data any) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Event: event, Data: raw})
}
