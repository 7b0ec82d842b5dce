package websocket

import "encoding/json"

// OutgoingMessage is the server -> client envelope.
type OutgoingMessage struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// IncomingMessage is a client frame tagged with the connection it arrived on.
// User is the identity the upgrade request was authenticated as, if any.
type IncomingMessage struct {
	Conn  string          `json:"-"`
	User  string          `json:"-"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}
