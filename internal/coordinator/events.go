package coordinator

import "encoding/json"

// Client -> server events.
const (
	EventJoin               = "join"
	EventMatchRequest       = "matchRequest"
	EventMatchCancel        = "matchCancel"
	EventMatchDirectRequest = "matchDirectRequest"
	EventMatchInviteAccept  = "matchInviteAccept"
	EventMatchInviteDecline = "matchInviteDecline"
	EventChessJoin          = "chessJoin"
	EventChessMove          = "chessMove"
	EventMatchLeave         = "matchLeave"
)

// Server -> client events.
const (
	EventMatchQueued          = "matchQueued"
	EventMatchFound           = "matchFound"
	EventMatchCancelled       = "matchCancelled"
	EventMatchInvite          = "matchInvite"
	EventMatchInviteResult    = "matchInviteResult"
	EventMatchInviteCancelled = "matchInviteCancelled"
	EventMatchOpponentLeft    = "matchOpponentLeft"
	EventUpdateUsers          = "updateUsers"
)

type JoinRequest struct {
	Username string `json:"username"`
	Role     string `json:"role"`
}

type MatchRequest struct {
	Username  string `json:"username"`
	BaseMs    int64  `json:"baseMs"`
	IncMs     int64  `json:"incMs"`
	ColorPref string `json:"colorPref"`
}

type DirectRequest struct {
	TargetUsername string `json:"targetUsername"`
	BaseMs         int64  `json:"baseMs"`
	IncMs          int64  `json:"incMs"`
	ColorPref      string `json:"colorPref"`
}

type inviteRef struct {
	InviteID string `json:"inviteId"`
}

type roomRef struct {
	Room string `json:"room"`
}

type moveFrame struct {
	Room string          `json:"room"`
	Move json.RawMessage `json:"move"`
}

type MatchFound struct {
	Room     string `json:"room"`
	Opponent string `json:"opponent"`
	Color    string `json:"color"`
	BaseMs   int64  `json:"baseMs"`
	IncMs    int64  `json:"incMs"`
}

type MatchInvite struct {
	InviteID  string `json:"inviteId"`
	From      string `json:"from"`
	BaseMs    int64  `json:"baseMs"`
	IncMs     int64  `json:"incMs"`
	ColorPref string `json:"colorPref"`
}

type InviteResult struct {
	OK       bool   `json:"ok"`
	InviteID string `json:"inviteId,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

type InviteCancelled struct {
	InviteID string `json:"inviteId"`
	Reason   string `json:"reason"`
}

// ChessMove carries the mover's payload untouched.
type ChessMove struct {
	Room string          `json:"room"`
	Move json.RawMessage `json:"move"`
}

type Stats struct {
	Online   int `json:"online"`
	Queued   int `json:"queued"`
	Invites  int `json:"invites"`
	Sessions int `json:"sessions"`
}
