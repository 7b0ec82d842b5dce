package record

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const maxAppendRetries = 5

type redisRepo struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisRepo stores each room as a JSON document. ttl 0 keeps records forever.
func NewRedisRepo(rdb *redis.Client, ttl time.Duration) Repo {
	return &redisRepo{rdb: rdb, ttl: ttl}
}

// key: chess:room:{id} -> JSON Room
func roomKey(id string) string {
	return fmt.Sprintf("chess:room:%s", id)
}

func (r *redisRepo) SaveRoom(ctx context.Context, room *Room) error {
	doc := *room
	if doc.Moves == nil {
		doc.Moves = []Move{}
	}
	data, err := json.Marshal(&doc)
	if err != nil {
		return err
	}
	return r.rdb.Set(ctx, roomKey(room.Room), data, r.ttl).Err()
}

// AppendMove rewrites the document under WATCH so concurrent appends never
// lose moves; it retries when another writer got in first.
func (r *redisRepo) AppendMove(ctx context.Context, roomID string, mv Move) error {
	key := roomKey(roomID)
	txf := func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		var room Room
		if err := json.Unmarshal(raw, &room); err != nil {
			return fmt.Errorf("decode room %s: %w", roomID, err)
		}
		room.Moves = append(room.Moves, mv)
		if mv.FEN != "" {
			room.FEN = mv.FEN
		}
		data, err := json.Marshal(&room)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, redis.KeepTTL)
			return nil
		})
		return err
	}

	for i := 0; i < maxAppendRetries; i++ {
		err := r.rdb.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return fmt.Errorf("append move to %s: %w", roomID, redis.TxFailedErr)
}

func (r *redisRepo) LoadRoom(ctx context.Context, roomID string) (*Room, error) {
	raw, err := r.rdb.Get(ctx, roomKey(roomID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var room Room
	if err := json.Unmarshal(raw, &room); err != nil {
		return nil, err
	}
	return &room, nil
}
