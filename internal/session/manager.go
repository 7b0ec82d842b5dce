package session

import (
	"errors"
	"fmt"
	"time"

	"BlitzHub/internal/matchmaker"

	"github.com/google/uuid"
)

var (
	ErrConnBusy = errors.New("connection already bound to a session")
	ErrUserBusy = errors.New("user already in a session")
	ErrSameUser = errors.New("both sides are the same user")
)

type Participant struct {
	Conn     string
	Username string
}

// Session is one live two-player room.
type Session struct {
	ID          string
	White       Participant
	Black       Participant
	TimeControl matchmaker.TimeControl
	CreatedAt   time.Time
	moves       int64
}

// Opponent returns the participant facing conn.
func (s *Session) Opponent(conn string) (Participant, bool) {
	switch conn {
	case s.White.Conn:
		return s.Black, true
	case s.Black.Conn:
		return s.White, true
	}
	return Participant{}, false
}

func (s *Session) ColorOf(conn string) (matchmaker.Color, bool) {
	switch conn {
	case s.White.Conn:
		return matchmaker.White, true
	case s.Black.Conn:
		return matchmaker.Black, true
	}
	return "", false
}

// MoveCount is the number of moves relayed so far.
func (s *Session) MoveCount() int64 { return s.moves }

// Move is the client-computed move payload relayed between participants.
type Move struct {
	From    string `json:"from"`
	To      string `json:"to"`
	FEN     string `json:"fen"`
	WhiteMs int64  `json:"whiteMs"`
	BlackMs int64  `json:"blackMs"`
}

// Manager binds connections and usernames to sessions. Each connection and
// each username maps to at most one session. Not safe for concurrent use.
type Manager struct {
	sessions map[string]*Session
	byConn   map[string]string
	byUser   map[string]string
	newID    func() string
	now      func() time.Time
}

// NewManager stamps sessions with now; nil means time.Now.
func NewManager(now func() time.Time) *Manager {
	if now == nil {
		now = time.Now
	}
	return &Manager{
		sessions: make(map[string]*Session),
		byConn:   make(map[string]string),
		byUser:   make(map[string]string),
		newID:    uuid.NewString,
		now:      now,
	}
}

// Create opens a session with a playing colorA and b the opposite.
func (m *Manager) Create(a, b Participant, colorA matchmaker.Color, tc matchmaker.TimeControl) (*Session, error) {
	if a.Username == b.Username {
		return nil, ErrSameUser
	}
	for _, p := range []Participant{a, b} {
		if id, ok := m.byConn[p.Conn]; ok {
			return nil, fmt.Errorf("%w: %s in %s", ErrConnBusy, p.Conn, id)
		}
		if id, ok := m.byUser[p.Username]; ok {
			return nil, fmt.Errorf("%w: %s in %s", ErrUserBusy, p.Username, id)
		}
	}

	s := &Session{ID: m.newID(), TimeControl: tc, CreatedAt: m.now()}
	if colorA == matchmaker.White {
		s.White, s.Black = a, b
	} else {
		s.White, s.Black = b, a
	}
	m.sessions[s.ID] = s
	for _, p := range []Participant{a, b} {
		m.byConn[p.Conn] = s.ID
		m.byUser[p.Username] = s.ID
	}
	return s, nil
}

func (m *Manager) get(id string) (*Session, bool) {
	s, ok := m.sessions[id]
	return s, ok
}

func (m *Manager) ByConn(conn string) (*Session, bool) {
	id, ok := m.byConn[conn]
	if !ok {
		return nil, false
	}
	return m.sessions[id], true
}

func (m *Manager) InSession(conn string) bool {
	_, ok := m.byConn[conn]
	return ok
}

func (m *Manager) UserInSession(username string) bool {
	_, ok := m.byUser[username]
	return ok
}

// RecordMove counts a relayed move from conn and returns the mover's color.
func (m *Manager) RecordMove(conn string) (*Session, matchmaker.Color, bool) {
	s, ok := m.ByConn(conn)
	if !ok {
		return nil, "", false
	}
	color, _ := s.ColorOf(conn)
	s.moves++
	return s, color, true
}

// End unbinds both participants of conn's session and discards it.
func (m *Manager) End(conn string) (*Session, bool) {
	s, ok := m.ByConn(conn)
	if !ok {
		return nil, false
	}
	delete(m.sessions, s.ID)
	for _, p := range []Participant{s.White, s.Black} {
		delete(m.byConn, p.Conn)
		delete(m.byUser, p.Username)
	}
	return s, true
}

func (m *Manager) Len() int { return len(m.sessions) }
