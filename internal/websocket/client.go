package websocket

import (
	"encoding/json"
	"time"

	"BlitzHub/internal/utils"

	"github.com/gorilla/websocket"
)

// Client is one websocket connection. ID is unique per connection; several
// clients may belong to the same user.
type Client struct {
	ID   string
	User string
	Role string
	Conn *websocket.Conn
	Send chan OutgoingMessage
	Hub  *Hub
}

const (
	writeWait      = 10 * time.Second    // single write deadline
	pongWait       = 60 * time.Second    // read deadline
	pingPeriod     = (pongWait * 9) / 10 // heartbeat period
	maxMessageSize = 1024 * 16
	sendBuffer     = 64
)

func NewClient(id, user, role string, conn *websocket.Conn, hub *Hub) *Client {
	return &Client{
		ID:   id,
		User: user,
		Role: role,
		Conn: conn,
		Send: make(chan OutgoingMessage, sendBuffer),
		Hub:  hub,
	}
}

// writePump drains Send until the hub closes it.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.Conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.Send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteJSON(msg); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump forwards frames to the hub. Frames that do not decode are dropped;
// only a transport error ends the connection.
func (c *Client) readPump() {
	defer func() {
		c.Hub.Unregister(c)
		_ = c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.Conn.ReadMessage()
		if err != nil {
			return
		}
		var msg IncomingMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			utils.Log.Debug("undecodable frame dropped", "conn", c.ID, "err", err)
			continue
		}
		msg.Conn = c.ID
		msg.User = c.User
		c.Hub.Deliver(msg)
	}
}
