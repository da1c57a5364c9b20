package relay

import (
	"log/slog"

	"chat-relay/internal/store"
)

// Dispatcher fans events out to the correct recipient set. Delivery is
// fire-and-forget per recipient: a slow or already-closed connection loses
// the frame without affecting the other recipients.
type Dispatcher struct {
	registry *Registry
	log      *slog.Logger
}

func NewDispatcher(registry *Registry, log *slog.Logger) *Dispatcher {
	return &Dispatcher{registry: registry, log: log}
}

// DeliverHistory sends the history window to one connection as a single
// "messages" event.
func (d *Dispatcher) DeliverHistory(c *Client, window []store.Message) {
	payload := make([]wireHistoryMessage, 0, len(window))
	for _, msg := range window {
		payload = append(payload, wireHistoryMessage{
			CreatedAt: msg.CreatedAt,
			Content:   msg.Content,
			Sender:    toWireSender(msg.Sender),
		})
	}
	d.deliver(c, EventHistory, payload)
}

// RelayMessage sends the message to every room member except the sender.
func (d *Dispatcher) RelayMessage(room string, exclude *Client, msg store.Message) {
	d.fanOut(room, exclude, EventReceive, wireMessage{
		Content: msg.Content,
		ID:      msg.ID.String(),
		Sender:  toWireSender(msg.Sender),
	})
}

// RelayTyping sends the bare boolean signal to every room member except the
// sender.
func (d *Dispatcher) RelayTyping(room string, exclude *Client, isTyping bool) {
	d.fanOut(room, exclude, EventTyping, isTyping)
}

// NotifyLeave tells every current room member that a participant left. The
// leaver is expected to have been removed from the registry beforehand.
func (d *Dispatcher) NotifyLeave(room string, payload RoomPayload) {
	d.fanOut(room, nil, EventLeave, payload)
}

func (d *Dispatcher) fanOut(room string, exclude *Client, event string, data any) {
	frame, err := marshalEvent(event, data)
	if err != nil {
		d.log.Error("event marshal failed", "event", event, "err", err)
		return
	}
	for _, c := range d.registry.Members(room) {
		if c == exclude {
			continue
		}
		if !c.enqueue(frame) {
			d.log.Debug("frame dropped", "event", event, "room", room)
		}
	}
}

func (d *Dispatcher) deliver(c *Client, event string, data any) {
	frame, err := marshalEvent(event, data)
	if err != nil {
		d.log.Error("event marshal failed", "event", event, "err", err)
		return
	}
	if !c.enqueue(frame) {
		d.log.Debug("frame dropped", "event", event)
	}
}
