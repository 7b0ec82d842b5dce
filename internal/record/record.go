// Package record stores best-effort copies of sessions and their moves.
// Nothing here feeds back into live matchmaking.
package record

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("room record not found")

type Players struct {
	White string `json:"white"`
	Black string `json:"black"`
}

type Move struct {
	From    string    `json:"from"`
	To      string    `json:"to"`
	FEN     string    `json:"fen"`
	Mover   string    `json:"mover"`
	WhiteMs int64     `json:"whiteMs"`
	BlackMs int64     `json:"blackMs"`
	At      time.Time `json:"at"`
}

// Room is the persisted document for one session.
type Room struct {
	Room      string    `json:"room"`
	CreatedAt time.Time `json:"createdAt"`
	BaseMs    int64     `json:"baseMs"`
	IncMs     int64     `json:"incMs"`
	Players   Players   `json:"players"`
	FEN       string    `json:"fen"`
	Moves     []Move    `json:"moves"`
}

type Repo interface {
	// SaveRoom upserts the room document.
	SaveRoom(ctx context.Context, room *Room) error
	// AppendMove adds a move and updates the current position.
	AppendMove(ctx context.Context, roomID string, mv Move) error
	LoadRoom(ctx context.Context, roomID string) (*Room, error)
}
