package coordinator

import (
	"encoding/json"

	"BlitzHub/internal/utils"
	"BlitzHub/internal/websocket"
)

// HandleMessage decodes a client frame and routes it. Unknown events and
// payloads that do not decode are dropped.
func (c *Coordinator) HandleMessage(msg websocket.IncomingMessage) {
	switch msg.Event {
	case EventJoin:
		var req JoinRequest
		if decode(msg, &req) {
			c.Join(msg.Conn, msg.User, req)
		}
	case EventMatchRequest:
		var req MatchRequest
		if decode(msg, &req) {
			c.RequestMatch(msg.Conn, msg.User, req)
		}
	case EventMatchCancel:
		c.CancelMatch(msg.Conn)
	case EventMatchDirectRequest:
		var req DirectRequest
		if decode(msg, &req) {
			c.DirectRequest(msg.Conn, msg.User, req)
		}
	case EventMatchInviteAccept:
		var ref inviteRef
		if decode(msg, &ref) {
			c.AcceptInvite(msg.Conn, ref.InviteID)
		}
	case EventMatchInviteDecline:
		var ref inviteRef
		if decode(msg, &ref) {
			c.DeclineInvite(msg.Conn, ref.InviteID)
		}
	case EventChessJoin:
		var ref roomRef
		if decode(msg, &ref) {
			c.JoinRoom(msg.Conn, ref.Room)
		}
	case EventChessMove:
		var mv moveFrame
		if decode(msg, &mv) {
			c.RelayMove(msg.Conn, mv.Room, mv.Move)
		}
	case EventMatchLeave:
		c.Leave(msg.Conn)
	default:
		utils.Log.Debug("unknown event", "conn", msg.Conn, "event", msg.Event)
	}
}

// decode treats a missing payload as an empty object.
func decode(msg websocket.IncomingMessage, v interface{}) bool {
	if len(msg.Data) == 0 || string(msg.Data) == "null" {
		return true
	}
	if err := json.Unmarshal(msg.Data, v); err != nil {
		utils.Log.Debug("malformed frame", "conn", msg.Conn, "event", msg.Event, "err", err)
		return false
	}
	return true
}
