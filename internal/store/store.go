package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound reports a lookup miss (unknown room, sender, ...). Callers treat
// it as an empty result, never as a fatal condition.
var ErrNotFound = errors.New("store: not found")

// User carries the display attributes attached to every message sender.
// Users are created upstream; the relay only reads them.
type User struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

type Room struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Message is immutable once appended. The relay orders and fans it out but
// never mutates it.
type Message struct {
	ID        uuid.UUID `json:"id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	Sender    User      `json:"sender"`
}

// MessageStore is the persistence collaborator consumed by the relay.
// AppendMessage must return the newly created message with the sender's
// display attributes already resolved.
type MessageStore interface {
	GetMessages(ctx context.Context, roomID string) ([]Message, error)
	AppendMessage(ctx context.Context, roomID, content, senderID string) (Message, error)
}
