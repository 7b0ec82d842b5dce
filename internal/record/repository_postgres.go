package record

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

const schema = `CREATE TABLE IF NOT EXISTS chess_rooms (
    room       TEXT PRIMARY KEY,
    created_at TIMESTAMPTZ NOT NULL,
    base_ms    BIGINT NOT NULL,
    inc_ms     BIGINT NOT NULL,
    white      TEXT NOT NULL,
    black      TEXT NOT NULL,
    fen        TEXT NOT NULL,
    moves      JSONB NOT NULL DEFAULT '[]'::jsonb
)`

type postgresRepo struct {
	db *sql.DB
}

// NewPostgresRepo creates the chess_rooms table if needed.
func NewPostgresRepo(ctx context.Context, db *sql.DB) (Repo, error) {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("ensure chess_rooms: %w", err)
	}
	return &postgresRepo{db: db}, nil
}

func (r *postgresRepo) SaveRoom(ctx context.Context, room *Room) error {
	moves := room.Moves
	if moves == nil {
		moves = []Move{}
	}
	movesRaw, err := json.Marshal(moves)
	if err != nil {
		return err
	}
	q := `INSERT INTO chess_rooms (room, created_at, base_ms, inc_ms, white, black, fen, moves)
      VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
      ON CONFLICT (room) DO UPDATE SET
        created_at=EXCLUDED.created_at,
        base_ms=EXCLUDED.base_ms,
        inc_ms=EXCLUDED.inc_ms,
        white=EXCLUDED.white,
        black=EXCLUDED.black,
        fen=EXCLUDED.fen,
        moves=EXCLUDED.moves`
	_, err = r.db.ExecContext(ctx, q,
		room.Room, room.CreatedAt, room.BaseMs, room.IncMs,
		room.Players.White, room.Players.Black, room.FEN, string(movesRaw),
	)
	return err
}

func (r *postgresRepo) AppendMove(ctx context.Context, roomID string, mv Move) error {
	raw, err := json.Marshal(mv)
	if err != nil {
		return err
	}
	q := `UPDATE chess_rooms
      SET moves = moves || jsonb_build_array($2::jsonb),
          fen = CASE WHEN $3::text = '' THEN fen ELSE $3::text END
      WHERE room = $1`
	res, err := r.db.ExecContext(ctx, q, roomID, string(raw), mv.FEN)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *postgresRepo) LoadRoom(ctx context.Context, roomID string) (*Room, error) {
	q := `SELECT room, created_at, base_ms, inc_ms, white, black, fen, moves
      FROM chess_rooms WHERE room = $1`
	var (
		room     Room
		movesRaw []byte
	)
	err := r.db.QueryRowContext(ctx, q, roomID).Scan(
		&room.Room, &room.CreatedAt, &room.BaseMs, &room.IncMs,
		&room.Players.White, &room.Players.Black, &room.FEN, &movesRaw,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(movesRaw, &room.Moves); err != nil {
		return nil, fmt.Errorf("decode moves for %s: %w", roomID, err)
	}
	return &room, nil
}
