package invite

import (
	"errors"
	"time"

	"BlitzHub/internal/matchmaker"

	"github.com/google/uuid"
)

var (
	ErrNotFound      = errors.New("invite not found")
	ErrNotTarget     = errors.New("connection is not the invite target")
	ErrTargetPending = errors.New("target already has a pending invite")
)

// Reason explains why an invite was refused or voided.
type Reason string

const (
	ReasonSelfInvite  Reason = "self-invite"
	ReasonBusy        Reason = "busy"
	ReasonUnavailable Reason = "player-unavailable"
	ReasonInvited     Reason = "already-invited"

	ReasonSenderLeft   Reason = "sender-left"
	ReasonReceiverLeft Reason = "receiver-left"
	ReasonDeclined     Reason = "declined"
	ReasonStale        Reason = "stale"
	ReasonSuperseded   Reason = "superseded"
)

type Invite struct {
	ID          string
	FromConn    string
	ToConn      string
	FromUser    string
	ToUser      string
	TimeControl matchmaker.TimeControl
	Pref        matchmaker.ColorChoice // sender's preference
	CreatedAt   time.Time
}

// Voided is an invite removed on behalf of one party; Notify is the other one.
type Voided struct {
	Invite *Invite
	Notify string
	Reason Reason
}

// Broker keeps the single invite table plus target and sender indexes.
// Not safe for concurrent use.
type Broker struct {
	invites  map[string]*Invite
	byTarget map[string]string // to conn -> invite id
	bySender map[string]string // from conn -> invite id
	newID    func() string
	now      func() time.Time
}

// NewBroker stamps invites with now; nil means time.Now.
func NewBroker(now func() time.Time) *Broker {
	if now == nil {
		now = time.Now
	}
	return &Broker{
		invites:  make(map[string]*Invite),
		byTarget: make(map[string]string),
		bySender: make(map[string]string),
		newID:    uuid.NewString,
		now:      now,
	}
}

// Create records a new invite. A target may hold one pending invite at a time.
// A sender's previous outstanding invite is replaced and returned as superseded.
func (b *Broker) Create(fromConn, fromUser, toConn, toUser string, tc matchmaker.TimeControl, pref matchmaker.ColorChoice) (*Invite, *Invite, error) {
	if id, ok := b.byTarget[toConn]; ok && b.invites[id].FromConn != fromConn {
		return nil, nil, ErrTargetPending
	}

	var superseded *Invite
	if id, ok := b.bySender[fromConn]; ok {
		superseded = b.invites[id]
		b.remove(superseded)
	}

	inv := &Invite{
		ID:          b.newID(),
		FromConn:    fromConn,
		ToConn:      toConn,
		FromUser:    fromUser,
		ToUser:      toUser,
		TimeControl: tc,
		Pref:        pref,
		CreatedAt:   b.now(),
	}
	b.invites[inv.ID] = inv
	b.byTarget[toConn] = inv.ID
	b.bySender[fromConn] = inv.ID
	return inv, superseded, nil
}

// PendingFor returns the invite currently addressed to conn, if any.
func (b *Broker) PendingFor(conn string) (*Invite, bool) {
	id, ok := b.byTarget[conn]
	if !ok {
		return nil, false
	}
	return b.invites[id], true
}

// SentBy returns the invite conn has outstanding, if any.
func (b *Broker) SentBy(conn string) (*Invite, bool) {
	id, ok := b.bySender[conn]
	if !ok {
		return nil, false
	}
	return b.invites[id], true
}

// Take removes and returns the invite if byConn is its target.
func (b *Broker) Take(id, byConn string) (*Invite, error) {
	inv, ok := b.invites[id]
	if !ok {
		return nil, ErrNotFound
	}
	if inv.ToConn != byConn {
		return nil, ErrNotTarget
	}
	b.remove(inv)
	return inv, nil
}

// CancelAllFor removes every invite where conn is sender or target.
func (b *Broker) CancelAllFor(conn string) []Voided {
	var out []Voided
	if id, ok := b.bySender[conn]; ok {
		inv := b.invites[id]
		b.remove(inv)
		out = append(out, Voided{Invite: inv, Notify: inv.ToConn, Reason: ReasonSenderLeft})
	}
	if id, ok := b.byTarget[conn]; ok {
		inv := b.invites[id]
		b.remove(inv)
		out = append(out, Voided{Invite: inv, Notify: inv.FromConn, Reason: ReasonReceiverLeft})
	}
	return out
}

// CancelUser removes every invite sent or received by username and reports
// the counterpart of each. Used when the user enters a session elsewhere.
func (b *Broker) CancelUser(username string, reason Reason) []Voided {
	var out []Voided
	for _, inv := range b.invites {
		switch username {
		case inv.FromUser:
			out = append(out, Voided{Invite: inv, Notify: inv.ToConn, Reason: reason})
		case inv.ToUser:
			out = append(out, Voided{Invite: inv, Notify: inv.FromConn, Reason: reason})
		default:
			continue
		}
		b.remove(inv)
	}
	return out
}

func (b *Broker) Len() int { return len(b.invites) }

func (b *Broker) remove(inv *Invite) {
	delete(b.invites, inv.ID)
	if b.byTarget[inv.ToConn] == inv.ID {
		delete(b.byTarget, inv.ToConn)
	}
	if b.bySender[inv.FromConn] == inv.ID {
		delete(b.bySender, inv.FromConn)
	}
}
