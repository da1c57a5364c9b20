package relay

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second    // Time allowed to write a message to the peer.
	pongWait       = 60 * time.Second    // Time allowed to read the next pong message from the peer.
	pingPeriod     = (pongWait * 9) / 10 // Send pings to peer with this period. Must be less than pongWait.
	maxMessageSize = 4096                // Maximum frame size allowed from peer.
	sendBuffer     = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origin is enforced upstream together with the identity token.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Client is the middleman between one websocket connection and the hub. The
// hub holds only this non-owning reference; the connection itself is owned by
// the read pump, whose exit is the single disconnect signal.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	log    *slog.Logger
	userID string

	send chan []byte
	done chan struct{}
	once sync.Once
}

func newClient(hub *Hub, conn *websocket.Conn, log *slog.Logger, userID string) *Client {
	return &Client{
		hub:    hub,
		conn:   conn,
		log:    log,
		userID: userID,
		send:   make(chan []byte, sendBuffer),
		done:   make(chan struct{}),
	}
}

// enqueue hands a frame to the write pump without blocking. Reports false
// when the connection is closed or its buffer is full; the frame is then
// simply lost for this one recipient.
func (c *Client) enqueue(frame []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

func (c *Client) close() {
	c.once.Do(func() { close(c.done) })
}

// readPump pumps events from the websocket connection into the hub. It runs
// in its own goroutine, so a persistence wait inside a handler suspends only
// this connection.
func (c *Client) readPump() {
	defer func() {
		c.hub.OnDisconnect(c)
		c.close()
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, frame, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log.Debug("read failed", "user", c.userID, "err", err)
			}
			break
		}
		c.dispatch(frame)
	}
}

// dispatch validates one inbound frame and routes it to the hub. Malformed
// frames get an error event back and never reach the core.
func (c *Client) dispatch(frame []byte) {
	var env Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		c.reject(err)
		return
	}

	ctx := context.Background()
	switch env.Event {
	case EventJoin:
		p, err := decodeJoin(env.Data)
		if err != nil {
			c.reject(err)
			return
		}
		c.hub.OnJoin(ctx, c, p.RoomID, p.RoomName)

	case EventLeave:
		p, err := decodeLeave(env.Data)
		if err != nil {
			c.reject(err)
			return
		}
		c.hub.OnLeave(c, p.Room)

	case EventMessage:
		p, err := decodeMessage(env.Data)
		if err != nil {
			c.reject(err)
			return
		}
		c.hub.OnSend(ctx, c, p)

	case EventTyping:
		p, err := decodeTyping(env.Data)
		if err != nil {
			c.reject(err)
			return
		}
		c.hub.OnTyping(c, p.RoomName, p.IsTyping)

	default:
		c.reject(errBadRequest)
	}
}

func (c *Client) reject(err error) {
	frame, merr := marshalEvent(EventError, ErrorPayload{Kind: "bad-request", Message: err.Error()})
	if merr != nil {
		return
	}
	c.enqueue(frame)
}

// writePump pumps frames from the hub to the websocket connection and keeps
// the connection alive with periodic pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case frame := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(frame)

			// Flush any queued frames in the same write to save syscalls.
			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
				return
			}

		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ServeWS upgrades the request and starts the connection's pumps. The caller
// provides the user identity established upstream.
func ServeWS(hub *Hub, userID string, w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		hub.log.Error("upgrade failed", "err", err)
		return
	}
	client := newClient(hub, conn, hub.log, userID)

	go client.writePump()
	go client.readPump()
}
