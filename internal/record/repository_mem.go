package record

import (
	"context"
	"sync"
)

type memRepo struct {
	mu    sync.Mutex
	rooms map[string]*Room
}

func NewMemoryRepo() Repo {
	return &memRepo{rooms: make(map[string]*Room)}
}

func (m *memRepo) SaveRoom(ctx context.Context, room *Room) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rooms[room.Room] = cloneRoom(room)
	return nil
}

func (m *memRepo) AppendMove(ctx context.Context, roomID string, mv Move) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rooms[roomID]
	if !ok {
		return ErrNotFound
	}
	r.Moves = append(r.Moves, mv)
	if mv.FEN != "" {
		r.FEN = mv.FEN
	}
	return nil
}

func (m *memRepo) LoadRoom(ctx context.Context, roomID string) (*Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rooms[roomID]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneRoom(r), nil
}

func cloneRoom(r *Room) *Room {
	c := *r
	c.Moves = append([]Move{}, r.Moves...)
	return &c
}
