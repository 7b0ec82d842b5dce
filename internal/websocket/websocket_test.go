package websocket

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(id string, hub *Hub) *Client {
	return &Client{ID: id, User: "u-" + id, Send: make(chan OutgoingMessage, 4), Hub: hub}
}

func startHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub()
	go hub.Run()
	t.Cleanup(hub.Close)
	return hub
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	assert.Eventually(t, cond, time.Second, 5*time.Millisecond)
}

func TestHubSendTo(t *testing.T) {
	hub := startHub(t)
	c1 := newTestClient("c1", hub)
	c2 := newTestClient("c2", hub)
	hub.Register(c1)
	hub.Register(c2)
	waitFor(t, func() bool { return hub.Len() == 2 })

	assert.True(t, hub.SendTo("c1", OutgoingMessage{Event: "private_msg", Data: "hello"}))

	received := <-c1.Send
	assert.Equal(t, "private_msg", received.Event)
	assert.Equal(t, "hello", received.Data)

	select {
	case <-c2.Send:
		assert.Fail(t, "c2 should NOT receive anything")
	default:
	}

	assert.False(t, hub.SendTo("missing", OutgoingMessage{Event: "x"}))
}

func TestHubBroadcast(t *testing.T) {
	hub := startHub(t)
	c1 := newTestClient("c1", hub)
	c2 := newTestClient("c2", hub)
	hub.Register(c1)
	hub.Register(c2)
	waitFor(t, func() bool { return hub.Len() == 2 })

	hub.Broadcast(OutgoingMessage{Event: "updateUsers"})
	assert.Equal(t, "updateUsers", (<-c1.Send).Event)
	assert.Equal(t, "updateUsers", (<-c2.Send).Event)
}

func TestHubSendToFullBufferDrops(t *testing.T) {
	hub := startHub(t)
	c := &Client{ID: "c1", Send: make(chan OutgoingMessage, 1), Hub: hub}
	hub.Register(c)
	waitFor(t, func() bool { return hub.Alive("c1") })

	assert.True(t, hub.SendTo("c1", OutgoingMessage{Event: "a"}))
	assert.False(t, hub.SendTo("c1", OutgoingMessage{Event: "b"}))
}

func TestHubUnregisterNotifiesOnce(t *testing.T) {
	hub := NewHub()
	var mu sync.Mutex
	var gone []string
	hub.OnDisconnect = func(conn string) {
		mu.Lock()
		gone = append(gone, conn)
		mu.Unlock()
	}
	go hub.Run()
	defer hub.Close()

	c := newTestClient("c1", hub)
	hub.Register(c)
	hub.Unregister(c)
	hub.Unregister(c)

	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(gone) == 1
	})
	assert.False(t, hub.Alive("c1"))
	_, open := <-c.Send
	assert.False(t, open, "Send is closed on unregister")

	time.Sleep(20 * time.Millisecond)
	mu.Lock()
	assert.Equal(t, []string{"c1"}, gone)
	mu.Unlock()
}

func TestHubMessagesFollowRegistrationOrder(t *testing.T) {
	hub := NewHub()
	var mu sync.Mutex
	var events []string
	hub.OnMessage = func(m IncomingMessage) {
		mu.Lock()
		events = append(events, m.Conn+":"+m.Event)
		mu.Unlock()
	}
	hub.OnDisconnect = func(conn string) {
		mu.Lock()
		events = append(events, conn+":gone")
		mu.Unlock()
	}
	go hub.Run()
	defer hub.Close()

	c := newTestClient("c1", hub)
	hub.Deliver(IncomingMessage{Conn: "c1", Event: "early"}) // not registered yet: dropped
	hub.Register(c)
	hub.Deliver(IncomingMessage{Conn: "c1", Event: "join"})
	hub.Deliver(IncomingMessage{Conn: "c1", Event: "matchRequest"})
	hub.Unregister(c)
	hub.Deliver(IncomingMessage{Conn: "c1", Event: "late"})

	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(events) == 3
	})
	time.Sleep(20 * time.Millisecond)
	mu.Lock()
	assert.Equal(t, []string{"c1:join", "c1:matchRequest", "c1:gone"}, events)
	mu.Unlock()
}

func TestHubCloseRejectsRegistration(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	hub.Close()
	<-hub.Done()
	assert.False(t, hub.Register(newTestClient("c1", hub)))
}

func TestServeWS_RoundTrip(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hub := NewHub()
	hub.OnMessage = func(m IncomingMessage) {
		var body map[string]string
		_ = json.Unmarshal(m.Data, &body)
		hub.SendTo(m.Conn, OutgoingMessage{Event: "echo", Data: map[string]string{"user": m.User, "text": body["text"]}})
	}
	go hub.Run()
	defer hub.Close()

	r := gin.New()
	r.GET("/ws", func(c *gin.Context) {
		c.Set("username", "alice")
		c.Next()
	}, ServeWS(hub))
	srv := httptest.NewServer(r)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(map[string]any{"event": "say", "data": map[string]string{"text": "hi"}}))

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got struct {
		Event string            `json:"event"`
		Data  map[string]string `json:"data"`
	}
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, "echo", got.Event)
	assert.Equal(t, "alice", got.Data["user"])
	assert.Equal(t, "hi", got.Data["text"])
}

func TestServeWS_UndecodableFrameKeepsConnection(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hub := NewHub()
	var mu sync.Mutex
	disconnects := 0
	hub.OnDisconnect = func(string) {
		mu.Lock()
		disconnects++
		mu.Unlock()
	}
	hub.OnMessage = func(m IncomingMessage) {
		hub.SendTo(m.Conn, OutgoingMessage{Event: "ack", Data: m.Event})
	}
	go hub.Run()
	defer hub.Close()

	r := gin.New()
	r.GET("/ws", ServeWS(hub))
	srv := httptest.NewServer(r)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	for _, junk := range []string{`{"event":5}`, `not json`, `[1,2`} {
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(junk)))
	}
	require.NoError(t, conn.WriteJSON(map[string]any{"event": "matchCancel"}))

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got struct {
		Event string `json:"event"`
		Data  string `json:"data"`
	}
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, "ack", got.Event)
	assert.Equal(t, "matchCancel", got.Data)

	assert.Equal(t, 1, hub.Len())
	mu.Lock()
	assert.Equal(t, 0, disconnects)
	mu.Unlock()
}
