package ws

import (
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jhustinvs-a11y/mi-chat-web/internal/chat"
)

// Config carries the transport timeouts and limits.
type Config struct {
	PingInterval   time.Duration
	WriteDeadline  time.Duration
	MaxMessageSize int64
}

// Client frames one websocket connection into hub events. It implements
// chat.EventSink for the outbound direction.
type Client struct {
	id     string
	ws     *websocket.Conn
	hub    *chat.Hub
	send   chan chat.Event
	cfg    Config
	log    *zap.SugaredLogger
	closed int32
}

// Serve runs a connection until it drops: it registers with the hub, starts
// the writer, and blocks reading inbound events. Cleanup, including the
// hub disconnect, happens exactly once on the way out.
func Serve(conn *websocket.Conn, hub *chat.Hub, cfg Config, log *zap.SugaredLogger) {
	c := &Client{
		id:   uuid.NewString(),
		ws:   conn,
		hub:  hub,
		send: make(chan chat.Event, 64),
		cfg:  cfg,
		log:  log,
	}
	hub.Connect(c.id, c)
	go c.writePump()
	c.readPump()
}

// Push queues an outbound event without blocking. Events for a connection
// whose buffer is full are dropped; the hub treats that as delivery failure
// for this connection only.
func (c *Client) Push(ev chat.Event) bool {
	if atomic.LoadInt32(&c.closed) == 1 {
		return false
	}
	select {
	case c.send <- ev:
		return true
	default:
		return false
	}
}

func (c *Client) readPump() {
	defer func() {
		// disconnect first so the hub stops pushing, then release the writer
		c.hub.Disconnect(c.id)
		c.close()
	}()

	c.ws.SetReadLimit(c.cfg.MaxMessageSize)
	readWait := 2 * c.cfg.PingInterval
	_ = c.ws.SetReadDeadline(time.Now().Add(readWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(readWait))
	})

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			c.log.Debugw("connection closed", "conn", c.id, "err", err)
			return
		}

		var ev chat.Event
		if err := json.Unmarshal(data, &ev); err != nil {
			c.log.Debugw("malformed event ignored", "conn", c.id, "err", err)
			continue
		}

		switch ev.Type {
		case chat.EventAuthenticate:
			c.hub.Authenticate(c.id, ev.Key)
		case chat.EventChatMessage:
			c.hub.Send(c.id, ev.Text)
		case chat.EventDeleteMessage:
			c.hub.Delete(c.id, ev.MessageID)
		default:
			// unknown inbound types are ignored
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(c.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		_ = c.ws.Close()
	}()

	for {
		select {
		case ev, ok := <-c.send:
			if !ok {
				_ = c.ws.WriteControl(websocket.CloseMessage, []byte{}, time.Now().Add(time.Second))
				return
			}
			_ = c.ws.SetWriteDeadline(time.Now().Add(c.cfg.WriteDeadline))
			if err := c.ws.WriteJSON(ev); err != nil {
				c.log.Debugw("write error", "conn", c.id, "err", err)
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(c.cfg.WriteDeadline))
			if err := c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(time.Second)); err != nil {
				return
			}
		}
	}
}

// close shuts the send channel down once. It must only run after the hub no
// longer references this client.
func (c *Client) close() {
	if atomic.CompareAndSwapInt32(&c.closed, 0, 1) {
		close(c.send)
		_ = c.ws.Close()
	}
}
