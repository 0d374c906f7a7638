package relay

import (
	"encoding/json"
	"sync"
	"time"

	"rtc-relay/internal/models"
	"rtc-relay/pkg/logger"

	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 16384
)

// Client is the ephemeral per-connection state: the transport-assigned id,
// the identity bound at handshake, and the cached session pointers used to
// scope chat writes without a re-query.
type Client struct {
	ID       string
	Identity models.Identity

	conn  *websocket.Conn
	send  chan models.Event
	relay *Relay

	mu       sync.Mutex
	closed   bool
	sessions map[string]string // roomKey → session id
}

func NewClient(id string, identity models.Identity, conn *websocket.Conn, relay *Relay) *Client {
	return &Client{
		ID:       id,
		Identity: identity,
		conn:     conn,
		send:     make(chan models.Event, 64),
		relay:    relay,
		sessions: make(map[string]string),
	}
}

// Send enqueues an event for delivery. A slow consumer whose buffer fills
// is dropped rather than allowed to stall the room.
func (c *Client) Send(ev models.Event) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	select {
	case c.send <- ev:
		c.mu.Unlock()
	default:
		c.mu.Unlock()
		logger.Error("Send buffer full for connection %s, closing", c.ID)
		if c.conn != nil {
			c.conn.Close()
		}
	}
}

func (c *Client) cacheSession(roomKey, sessionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessions[roomKey] = sessionID
}

func (c *Client) cachedSession(roomKey string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessions[roomKey]
}

func (c *Client) dropSession(roomKey string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.sessions, roomKey)
}

// ReadPump pumps inbound events off the socket and dispatches them in
// order. It owns disconnect cleanup: when the read loop exits for any
// reason, the relay retracts this connection from every room it was in.
func (c *Client) ReadPump() {
	defer func() {
		c.markClosed()
		c.relay.HandleDisconnect(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Error("WebSocket error on %s: %v", c.ID, err)
			}
			break
		}

		var env models.Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			logger.Debug("Dropping unparseable frame from %s: %v", c.ID, err)
			continue
		}

		c.relay.Dispatch(c, env)
	}
}

func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case ev, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			data, err := json.Marshal(ev)
			if err != nil {
				logger.Error("Error marshaling event %s for %s: %v", ev.Name, c.ID, err)
				continue
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) markClosed() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}
