package hub

import (
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// Client is one websocket connection attached to the hub. A client starts
// unjoined; the hub's join handler sets roomID when the join event arrives.
// roomID is only touched from the hub's event loop.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	id     string
	roomID string
	send   chan []byte
}

// NewClient wraps an upgraded connection with a fresh connection id.
func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		hub:  hub,
		conn: conn,
		id:   uuid.NewString(),
		send: make(chan []byte, 256),
	}
}

// ID returns the unique id of this connection.
func (c *Client) ID() string { return c.id }

// Run starts the read and write pumps.
func (c *Client) Run() {
	go c.writePump()
	go c.readPump()
}

// CloseConn closes the underlying websocket connection.
func (c *Client) CloseConn() {
	c.conn.Close()
}

// readPump forwards inbound frames to the hub until the connection drops,
// then queues the disconnect. It runs in its own goroutine.
func (c *Client) readPump() {
	logCtx := c.hub.log.WithField("conn_id", c.id)
	defer func() {
		disconnect := HubMessage{Kind: msgDisconnect, Client: c}
		select {
		case c.hub.messages <- disconnect:
		case <-time.After(time.Second):
			logCtx.Warn("Timeout queueing disconnect to hub")
		}
		c.conn.Close()
		logCtx.Debug("readPump exited")
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		messageType, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logCtx.WithError(err).Warn("WebSocket read error (unexpected close)")
			} else {
				logCtx.Debug("WebSocket connection closed")
			}
			break
		}
		if messageType != websocket.TextMessage {
			continue
		}
		if !c.hub.QueueMessage(HubMessage{Kind: msgEvent, Client: c, RawData: message}) {
			logCtx.Warn("Dropped inbound event, hub overloaded")
		}
	}
}

// writePump drains the send channel to the websocket and keeps the
// connection alive with pings. It runs in its own goroutine and exits when
// the hub closes the send channel or a write fails.
func (c *Client) writePump() {
	logCtx := c.hub.log.WithFields(logrus.Fields{"conn_id": c.id})
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
		logCtx.Debug("writePump exited")
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				logCtx.WithError(err).Warn("Failed to write message to websocket")
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				logCtx.WithError(err).Debug("Failed to send ping, closing")
				return
			}
		}
	}
}
