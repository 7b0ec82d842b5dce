package websocket

import (
	"sync"

	"BlitzHub/internal/utils"
)

type eventKind int

const (
	evRegister eventKind = iota
	evUnregister
	evMessage
)

type hubEvent struct {
	kind   eventKind
	client *Client
	msg    IncomingMessage
}

// Hub owns every live connection. Register, unregister and inbound frames
// share one inbox, so handlers see them one at a time and in arrival order.
// Sends bypass the inbox and never block: a full client buffer drops the message.
type Hub struct {
	clients map[string]*Client // conn id -> client
	mu      sync.RWMutex

	inbox     chan hubEvent
	quit      chan struct{}
	stopped   chan struct{}
	closeOnce sync.Once

	OnMessage    func(IncomingMessage)
	OnDisconnect func(conn string)
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*Client),
		inbox:   make(chan hubEvent, 256),
		quit:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
}

func (h *Hub) Run() {
	utils.Log.Info("hub started")
	defer close(h.stopped)

	for {
		select {
		case ev := <-h.inbox:
			switch ev.kind {
			case evRegister:
				h.mu.Lock()
				h.clients[ev.client.ID] = ev.client
				n := len(h.clients)
				h.mu.Unlock()
				utils.Log.Info("hub register", "conn", ev.client.ID, "user", ev.client.User, "connections", n)

			case evUnregister:
				h.mu.Lock()
				c, ok := h.clients[ev.client.ID]
				if ok && c == ev.client {
					delete(h.clients, c.ID)
					close(c.Send)
				}
				n := len(h.clients)
				h.mu.Unlock()
				if !ok || c != ev.client {
					continue
				}
				utils.Log.Info("hub unregister", "conn", c.ID, "user", c.User, "connections", n)
				if h.OnDisconnect != nil {
					h.OnDisconnect(c.ID)
				}

			case evMessage:
				if !h.Alive(ev.msg.Conn) {
					continue
				}
				if h.OnMessage != nil {
					h.OnMessage(ev.msg)
				}
			}

		case <-h.quit:
			h.mu.Lock()
			for id, c := range h.clients {
				close(c.Send)
				delete(h.clients, id)
			}
			h.mu.Unlock()
			utils.Log.Info("hub stopped")
			return
		}
	}
}

func (h *Hub) push(ev hubEvent) bool {
	select {
	case h.inbox <- ev:
		return true
	case <-h.quit:
		return false
	}
}

// Register queues c for registration. It returns false once the hub is closed.
func (h *Hub) Register(c *Client) bool {
	return h.push(hubEvent{kind: evRegister, client: c})
}

func (h *Hub) Unregister(c *Client) {
	h.push(hubEvent{kind: evUnregister, client: c})
}

// Deliver hands an inbound frame to the event loop.
func (h *Hub) Deliver(msg IncomingMessage) {
	h.push(hubEvent{kind: evMessage, msg: msg})
}

// SendTo queues msg for one connection. It reports false if the connection
// is gone or its buffer is full.
func (h *Hub) SendTo(conn string, msg OutgoingMessage) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	c, ok := h.clients[conn]
	if !ok {
		return false
	}
	select {
	case c.Send <- msg:
		return true
	default:
		utils.Log.Warn("send buffer full, message dropped", "conn", conn, "event", msg.Event)
		return false
	}
}

// Broadcast queues msg for every connection.
func (h *Hub) Broadcast(msg OutgoingMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for id, c := range h.clients {
		select {
		case c.Send <- msg:
		default:
			utils.Log.Warn("send buffer full, broadcast dropped", "conn", id, "event", msg.Event)
		}
	}
}

func (h *Hub) Alive(conn string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.clients[conn]
	return ok
}

func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close stops Run and closes every client's Send channel.
func (h *Hub) Close() {
	h.closeOnce.Do(func() { close(h.quit) })
}

// Done is closed after Run returns.
func (h *Hub) Done() <-chan struct{} { return h.stopped }
