package coordinator

import (
	"encoding/json"
	"testing"

	"BlitzHub/internal/websocket"

	"github.com/stretchr/testify/assert"
)

func frame(conn, event, data string) websocket.IncomingMessage {
	msg := websocket.IncomingMessage{Conn: conn, Event: event}
	if data != "" {
		msg.Data = json.RawMessage(data)
	}
	return msg
}

func TestHandleMessageRoutesFullGame(t *testing.T) {
	c, hub, _ := newTestCoordinator(Options{})

	c.HandleMessage(frame("a1", EventJoin, `{"username":"alice","role":"player"}`))
	c.HandleMessage(frame("b1", EventJoin, `{"username":"bob"}`))
	c.HandleMessage(frame("a1", EventMatchRequest, `{"baseMs":60000,"incMs":0,"colorPref":"white"}`))
	c.HandleMessage(frame("b1", EventMatchRequest, `{"baseMs":60000,"incMs":0}`))

	room := hub.last(t, "a1", EventMatchFound).(MatchFound).Room
	c.HandleMessage(frame("b1", EventChessJoin, `{"room":"`+room+`"}`))
	c.HandleMessage(frame("a1", EventChessMove, `{"room":"`+room+`","move":{"from":"e2","to":"e4"}}`))
	assert.Len(t, hub.all("b1", EventChessMove), 1)

	c.HandleMessage(frame("b1", EventMatchLeave, ""))
	assert.Len(t, hub.all("a1", EventMatchOpponentLeft), 1)
}

func TestHandleMessageRoutesInvites(t *testing.T) {
	c, hub, _ := newTestCoordinator(Options{})
	c.HandleMessage(frame("a1", EventJoin, `{"username":"alice"}`))
	c.HandleMessage(frame("b1", EventJoin, `{"username":"bob"}`))
	c.HandleMessage(frame("c1", EventJoin, `{"username":"carol"}`))

	c.HandleMessage(frame("a1", EventMatchDirectRequest, `{"targetUsername":"bob","baseMs":60000}`))
	id := hub.last(t, "b1", EventMatchInvite).(MatchInvite).InviteID
	c.HandleMessage(frame("b1", EventMatchInviteDecline, `{"inviteId":"`+id+`"}`))
	assert.Equal(t, "declined", hub.last(t, "a1", EventMatchInviteCancelled).(InviteCancelled).Reason)

	c.HandleMessage(frame("c1", EventMatchDirectRequest, `{"targetUsername":"bob"}`))
	id = hub.last(t, "b1", EventMatchInvite).(MatchInvite).InviteID
	c.HandleMessage(frame("b1", EventMatchInviteAccept, `{"inviteId":"`+id+`"}`))
	assert.NotEmpty(t, hub.all("c1", EventMatchFound))
}

func TestHandleMessageCancelWithoutPayload(t *testing.T) {
	c, hub, _ := newTestCoordinator(Options{})
	c.HandleMessage(frame("a1", EventJoin, `{"username":"alice"}`))
	c.HandleMessage(frame("a1", EventMatchRequest, `null`))
	c.HandleMessage(frame("a1", EventMatchCancel, ""))

	assert.Equal(t, []string{EventMatchQueued, EventMatchCancelled}, hub.events("a1"))
}

func TestHandleMessageDropsJunk(t *testing.T) {
	c, hub, _ := newTestCoordinator(Options{})

	c.HandleMessage(frame("a1", "doSomethingWeird", `{}`))
	c.HandleMessage(frame("a1", EventJoin, `{"username":`))
	c.HandleMessage(frame("a1", EventMatchRequest, `[1,2,3]`))
	c.HandleMessage(frame("a1", EventMatchInviteAccept, `"x"`))

	assert.Empty(t, hub.events("a1"))
	assert.Empty(t, hub.broadcasts)
	assert.Equal(t, Stats{}, c.Stats())
}

func TestHandleMessageCarriesAuthenticatedUser(t *testing.T) {
	c, hub, _ := newTestCoordinator(Options{})
	msg := frame("a1", EventJoin, `{"username":"mallory"}`)
	msg.User = "alice"
	c.HandleMessage(msg)
	assert.Empty(t, hub.broadcasts)

	msg = frame("a1", EventJoin, "")
	msg.User = "alice"
	c.HandleMessage(msg)
	assert.Equal(t, "alice", c.Presence()[0].Username)
}
