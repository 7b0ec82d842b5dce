// Package coordinator owns all live matchmaking state: presence, the quick-match
// queue, direct invites and sessions. Every operation runs under one mutex and
// re-reads that state, so "a user is in at most one session" holds no matter
// how accept, decline, move, leave and disconnect events interleave.
package coordinator

import (
	"encoding/json"
	"math/rand"
	"strings"
	"sync"
	"time"

	"BlitzHub/internal/invite"
	"BlitzHub/internal/matchmaker"
	"BlitzHub/internal/presence"
	"BlitzHub/internal/record"
	"BlitzHub/internal/session"
	"BlitzHub/internal/utils"
	"BlitzHub/internal/websocket"
)

// Notifier delivers events to connections. Sends must not block.
type Notifier interface {
	SendTo(conn string, msg websocket.OutgoingMessage) bool
	Broadcast(msg websocket.OutgoingMessage)
	Alive(conn string) bool
}

// Recorder mirrors sessions to storage. Calls must not block.
type Recorder interface {
	SaveRoom(room record.Room) bool
	AppendMove(roomID string, mv record.Move) bool
}

type Options struct {
	Limits      matchmaker.Limits
	ValidateFEN bool
	Coin        func() bool      // nil: fair coin
	Now         func() time.Time // nil: time.Now
}

type Coordinator struct {
	mu       sync.Mutex
	presence *presence.Registry
	queue    *matchmaker.Queue
	invites  *invite.Broker
	sessions *session.Manager

	notify      Notifier
	rec         Recorder
	limits      matchmaker.Limits
	validateFEN bool
	coin        func() bool
	now         func() time.Time
}

// New builds a coordinator. rec may be nil to disable persistence.
func New(n Notifier, rec Recorder, opts Options) *Coordinator {
	c := &Coordinator{
		presence:    presence.NewRegistry(),
		queue:       matchmaker.NewQueue(),
		invites:     invite.NewBroker(opts.Now),
		sessions:    session.NewManager(opts.Now),
		notify:      n,
		rec:         rec,
		limits:      opts.Limits,
		validateFEN: opts.ValidateFEN,
		coin:        opts.Coin,
		now:         opts.Now,
	}
	if c.coin == nil {
		c.coin = func() bool { return rand.Intn(2) == 0 }
	}
	if c.now == nil {
		c.now = time.Now
	}
	c.queue.SetCoin(c.coin)
	return c
}

// ---------------------------------------------------------------------------
// presence
// ---------------------------------------------------------------------------

// Join announces conn under username. authUser is the identity proven at
// upgrade time; a join claiming someone else is dropped.
func (c *Coordinator) Join(conn, authUser string, req JoinRequest) {
	username := strings.TrimSpace(req.Username)
	if username == "" {
		username = authUser
	}
	if username == "" || (authUser != "" && username != authUser) {
		utils.Log.Debug("join dropped", "conn", conn, "claimed", req.Username, "auth", authUser)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if prev, ok := c.presence.Identity(conn); ok && prev.Username != username && c.committed(conn) {
		utils.Log.Debug("join dropped: connection committed under another name", "conn", conn,
			"current", prev.Username, "claimed", username)
		return
	}
	c.presence.Announce(conn, username, req.Role)
	c.broadcastPresence()
}

func (c *Coordinator) Presence() []presence.Identity {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.presence.Snapshot()
}

func (c *Coordinator) broadcastPresence() {
	c.notify.Broadcast(websocket.OutgoingMessage{Event: EventUpdateUsers, Data: c.presence.Snapshot()})
}

// identify resolves who is acting on conn: the announced identity first,
// then the authenticated one, then whatever the frame claims.
func (c *Coordinator) identify(conn, authUser, claimed string) (string, bool) {
	if id, ok := c.presence.Identity(conn); ok {
		return id.Username, true
	}
	claimed = strings.TrimSpace(claimed)
	if authUser != "" {
		if claimed != "" && claimed != authUser {
			return "", false
		}
		return authUser, true
	}
	return claimed, claimed != ""
}

// committed reports whether conn holds any state tied to its current name.
func (c *Coordinator) committed(conn string) bool {
	if c.busy(conn) {
		return true
	}
	if _, ok := c.invites.PendingFor(conn); ok {
		return true
	}
	_, ok := c.invites.SentBy(conn)
	return ok
}

// busy reports whether conn is queued or seated.
func (c *Coordinator) busy(conn string) bool {
	return c.queue.Contains(conn) || c.sessions.InSession(conn)
}

// ---------------------------------------------------------------------------
// quick match
// ---------------------------------------------------------------------------

func (c *Coordinator) RequestMatch(conn, authUser string, req MatchRequest) {
	c.mu.Lock()
	defer c.mu.Unlock()

	username, ok := c.identify(conn, authUser, req.Username)
	if !ok {
		utils.Log.Debug("matchRequest dropped: no identity", "conn", conn)
		return
	}
	if c.sessions.InSession(conn) || c.sessions.UserInSession(username) {
		return
	}

	tc := c.limits.Clamp(matchmaker.TimeControl{BaseMs: req.BaseMs, IncMs: req.IncMs})
	entry := matchmaker.Entry{
		Conn:        conn,
		Username:    username,
		TimeControl: tc,
		Pref:        matchmaker.ParseColorChoice(req.ColorPref),
		RequestedAt: c.now(),
	}
	m, matched := c.queue.Enqueue(entry, c.notify.Alive)
	if !matched {
		c.send(conn, EventMatchQueued, struct{}{})
		return
	}
	c.startSession(
		session.Participant{Conn: conn, Username: username},
		session.Participant{Conn: m.Opponent.Conn, Username: m.Opponent.Username},
		m.CandidateColor, tc,
	)
}

// CancelMatch removes conn's queue entry if it still has one. Always acked.
func (c *Coordinator) CancelMatch(conn string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.queue.Remove(conn)
	c.send(conn, EventMatchCancelled, struct{}{})
}

// ---------------------------------------------------------------------------
// direct invites
// ---------------------------------------------------------------------------

func (c *Coordinator) DirectRequest(conn, authUser string, req DirectRequest) {
	c.mu.Lock()
	defer c.mu.Unlock()

	from, ok := c.identify(conn, authUser, "")
	target := strings.TrimSpace(req.TargetUsername)
	if !ok || target == "" {
		utils.Log.Debug("matchDirectRequest dropped", "conn", conn, "target", target)
		return
	}
	reject := func(r invite.Reason) {
		c.send(conn, EventMatchInviteResult, InviteResult{OK: false, Reason: string(r)})
	}
	if target == from {
		reject(invite.ReasonSelfInvite)
		return
	}
	if c.busy(conn) || c.sessions.UserInSession(from) {
		reject(invite.ReasonBusy)
		return
	}
	if c.sessions.UserInSession(target) {
		reject(invite.ReasonUnavailable)
		return
	}
	toConn, ok := c.presence.AnyAvailable(target, c.busy)
	if !ok {
		reject(invite.ReasonUnavailable)
		return
	}

	tc := c.limits.Clamp(matchmaker.TimeControl{BaseMs: req.BaseMs, IncMs: req.IncMs})
	pref := matchmaker.ParseColorChoice(req.ColorPref)
	inv, superseded, err := c.invites.Create(conn, from, toConn, target, tc, pref)
	if err != nil {
		reject(invite.ReasonInvited)
		return
	}
	if superseded != nil {
		c.send(superseded.ToConn, EventMatchInviteCancelled, InviteCancelled{InviteID: superseded.ID, Reason: string(invite.ReasonSuperseded)})
	}

	c.send(toConn, EventMatchInvite, MatchInvite{
		InviteID:  inv.ID,
		From:      from,
		BaseMs:    tc.BaseMs,
		IncMs:     tc.IncMs,
		ColorPref: string(pref),
	})
	c.send(conn, EventMatchInviteResult, InviteResult{OK: true, InviteID: inv.ID})
	utils.Log.Info("invite sent", "invite", inv.ID, "from", from, "to", target)
}

// AcceptInvite turns the invite into a session if both sides are still free.
// A replayed or foreign accept is a no-op.
func (c *Coordinator) AcceptInvite(conn, inviteID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	inv, err := c.invites.Take(inviteID, conn)
	if err != nil {
		utils.Log.Debug("accept ignored", "conn", conn, "invite", inviteID, "err", err)
		return
	}

	stale := !c.notify.Alive(inv.FromConn) || !c.notify.Alive(inv.ToConn) ||
		c.busy(inv.FromConn) || c.busy(inv.ToConn) ||
		c.sessions.UserInSession(inv.FromUser) || c.sessions.UserInSession(inv.ToUser)
	if stale {
		void := InviteCancelled{InviteID: inv.ID, Reason: string(invite.ReasonStale)}
		c.send(inv.FromConn, EventMatchInviteCancelled, void)
		c.send(inv.ToConn, EventMatchInviteCancelled, void)
		utils.Log.Info("invite void at accept", "invite", inv.ID)
		return
	}

	fromColor, _ := matchmaker.ResolveColors(inv.Pref, matchmaker.ChoiceRandom, c.coin)
	c.startSession(
		session.Participant{Conn: inv.FromConn, Username: inv.FromUser},
		session.Participant{Conn: inv.ToConn, Username: inv.ToUser},
		fromColor, inv.TimeControl,
	)
}

func (c *Coordinator) DeclineInvite(conn, inviteID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	inv, err := c.invites.Take(inviteID, conn)
	if err != nil {
		return
	}
	c.send(inv.FromConn, EventMatchInviteCancelled, InviteCancelled{InviteID: inv.ID, Reason: string(invite.ReasonDeclined)})
}

// ---------------------------------------------------------------------------
// sessions
// ---------------------------------------------------------------------------

// startSession binds a (playing colorA) and b, clears anything else either
// user had pending, tells both sides, then mirrors the room to storage.
func (c *Coordinator) startSession(a, b session.Participant, colorA matchmaker.Color, tc matchmaker.TimeControl) {
	s, err := c.sessions.Create(a, b, colorA, tc)
	if err != nil {
		utils.Log.Error("create session", "a", a.Username, "b", b.Username, "err", err)
		return
	}

	for _, p := range []session.Participant{a, b} {
		for _, e := range c.queue.RemoveUser(p.Username) {
			c.send(e.Conn, EventMatchCancelled, struct{}{})
		}
		for _, v := range c.invites.CancelUser(p.Username, invite.ReasonSuperseded) {
			c.send(v.Notify, EventMatchInviteCancelled, InviteCancelled{InviteID: v.Invite.ID, Reason: string(v.Reason)})
		}
	}

	c.send(s.White.Conn, EventMatchFound, MatchFound{
		Room: s.ID, Opponent: s.Black.Username, Color: string(matchmaker.White),
		BaseMs: tc.BaseMs, IncMs: tc.IncMs,
	})
	c.send(s.Black.Conn, EventMatchFound, MatchFound{
		Room: s.ID, Opponent: s.White.Username, Color: string(matchmaker.Black),
		BaseMs: tc.BaseMs, IncMs: tc.IncMs,
	})
	utils.Log.Info("match found", "room", s.ID, "white", s.White.Username, "black", s.Black.Username,
		"baseMs", tc.BaseMs, "incMs", tc.IncMs)

	if c.rec != nil {
		c.rec.SaveRoom(record.Room{
			Room:      s.ID,
			CreatedAt: s.CreatedAt,
			BaseMs:    tc.BaseMs,
			IncMs:     tc.IncMs,
			Players:   record.Players{White: s.White.Username, Black: s.Black.Username},
			FEN:       session.StartingFEN,
			Moves:     []record.Move{},
		})
	}
}

// JoinRoom is accepted for older clients. Participants are subscribed when
// the session is created, so there is nothing left to do.
func (c *Coordinator) JoinRoom(conn, room string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if s, ok := c.sessions.ByConn(conn); !ok || s.ID != room {
		utils.Log.Debug("chessJoin dropped", "conn", conn, "room", room)
	}
}

// RelayMove forwards raw to the mover's opponent only.
func (c *Coordinator) RelayMove(conn, room string, raw json.RawMessage) {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, ok := c.sessions.ByConn(conn)
	if !ok || (room != "" && room != s.ID) || len(raw) == 0 {
		utils.Log.Debug("chessMove dropped", "conn", conn, "room", room)
		return
	}
	var mv session.Move
	if err := json.Unmarshal(raw, &mv); err != nil {
		utils.Log.Debug("chessMove dropped: bad payload", "conn", conn, "err", err)
		return
	}
	if c.validateFEN && !session.ValidFEN(mv.FEN) {
		utils.Log.Debug("chessMove dropped: bad fen", "conn", conn, "fen", mv.FEN)
		return
	}

	_, color, _ := c.sessions.RecordMove(conn)
	opp, _ := s.Opponent(conn)
	c.send(opp.Conn, EventChessMove, ChessMove{Room: s.ID, Move: raw})

	if c.rec != nil {
		c.rec.AppendMove(s.ID, record.Move{
			From:    mv.From,
			To:      mv.To,
			FEN:     mv.FEN,
			Mover:   string(color),
			WhiteMs: mv.WhiteMs,
			BlackMs: mv.BlackMs,
			At:      c.now(),
		})
	}
}

// Leave ends conn's session, if any, and tells the opponent.
func (c *Coordinator) Leave(conn string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.endSession(conn)
}

func (c *Coordinator) endSession(conn string) {
	s, ok := c.sessions.End(conn)
	if !ok {
		return
	}
	opp, _ := s.Opponent(conn)
	c.send(opp.Conn, EventMatchOpponentLeft, struct{}{})
	utils.Log.Info("session ended", "room", s.ID, "leaver", conn, "moves", s.MoveCount())
}

// HandleDisconnect drops every trace of conn: queue entry, invites in either
// direction, session, presence.
func (c *Coordinator) HandleDisconnect(conn string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.queue.Remove(conn)
	for _, v := range c.invites.CancelAllFor(conn) {
		c.send(v.Notify, EventMatchInviteCancelled, InviteCancelled{InviteID: v.Invite.ID, Reason: string(v.Reason)})
	}
	c.endSession(conn)
	if _, gone := c.presence.Release(conn); gone {
		c.broadcastPresence()
	}
}

func (c *Coordinator) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Online:   c.presence.Len(),
		Queued:   c.queue.Len(),
		Invites:  c.invites.Len(),
		Sessions: c.sessions.Len(),
	}
}

func (c *Coordinator) send(conn, event string, data interface{}) {
	c.notify.SendTo(conn, websocket.OutgoingMessage{Event: event, Data: data})
}
