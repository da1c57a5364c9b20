package relay

import (
	"context"
	"errors"
	"log/slog"

	"chat-relay/internal/store"
)

// Hub orchestrates the connection lifecycle: it owns the room registry and
// dispatcher and talks to the injected persistence collaborator. Every
// handler is safe to call from concurrent connection goroutines; persistence
// waits in OnJoin and OnSend block only the calling connection.
type Hub struct {
	registry     *Registry
	dispatcher   *Dispatcher
	store        store.MessageStore
	log          *slog.Logger
	historyLimit int
}

func NewHub(st store.MessageStore, log *slog.Logger, historyLimit int) *Hub {
	registry := NewRegistry()
	return &Hub{
		registry:     registry,
		dispatcher:   NewDispatcher(registry, log),
		store:        st,
		log:          log,
		historyLimit: historyLimit,
	}
}

// OnJoin registers the membership, then delivers the bounded history window
// to the joining connection only. A room unknown to the store still joins
// fine and receives an empty window.
func (h *Hub) OnJoin(ctx context.Context, c *Client, roomID, roomName string) {
	h.registry.Join(roomName, c)

	msgs, err := h.store.GetMessages(ctx, roomID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			h.log.Error("history fetch failed", "room", roomID, "err", err)
		}
		msgs = nil
	}
	h.dispatcher.DeliverHistory(c, BuildWindow(msgs, h.historyLimit))
}

// OnLeave removes the membership and notifies the remaining members.
func (h *Hub) OnLeave(c *Client, room RoomPayload) {
	h.registry.Leave(room.ID, c)
	h.dispatcher.NotifyLeave(room.ID, room)
}

// OnSend appends the message and, only once the write succeeded, relays the
// stored message to the room minus the sender. A failed append drops the
// event: no broadcast, no retry.
func (h *Hub) OnSend(ctx context.Context, c *Client, p MessagePayload) {
	msg, err := h.store.AppendMessage(ctx, p.RoomID, p.Content, p.Sender.ID)
	if err != nil {
		h.log.Error("message append failed", "room", p.RoomID, "sender", p.Sender.ID, "err", err)
		return
	}
	h.dispatcher.RelayMessage(p.RoomName, c, msg)
}

// OnTyping relays the ephemeral signal to the room minus the sender. Nothing
// is persisted.
func (h *Hub) OnTyping(c *Client, roomName string, isTyping bool) {
	h.dispatcher.RelayTyping(roomName, c, isTyping)
}

// OnDisconnect releases every membership the connection held. Unlike an
// explicit leave, no notification goes out to the remaining members.
func (h *Hub) OnDisconnect(c *Client) {
	h.registry.LeaveAll(c)
}
