package record

import (
	"context"
	"sync"
	"time"

	"BlitzHub/internal/utils"
)

const writeTimeout = 5 * time.Second

type job struct {
	room   *Room  // set for SaveRoom
	roomID string // set for AppendMove
	move   Move
}

// Writer applies record writes on one background goroutine so callers never
// wait on storage. Writes are applied in submission order; when the buffer is
// full the write is dropped and logged.
type Writer struct {
	repo Repo
	jobs chan job
	done chan struct{}

	mu     sync.RWMutex
	closed bool
}

func NewWriter(repo Repo, size int) *Writer {
	if size <= 0 {
		size = 1
	}
	w := &Writer{
		repo: repo,
		jobs: make(chan job, size),
		done: make(chan struct{}),
	}
	go w.loop()
	return w
}

func (w *Writer) SaveRoom(room Room) bool {
	return w.submit(job{room: &room})
}

func (w *Writer) AppendMove(roomID string, mv Move) bool {
	return w.submit(job{roomID: roomID, move: mv})
}

func (w *Writer) submit(j job) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		return false
	}
	select {
	case w.jobs <- j:
		return true
	default:
		utils.Log.Warn("record write dropped: buffer full", "room", j.target())
		return false
	}
}

// Close stops accepting writes and waits until queued ones are applied.
func (w *Writer) Close() {
	w.mu.Lock()
	if !w.closed {
		w.closed = true
		close(w.jobs)
	}
	w.mu.Unlock()
	<-w.done
}

func (w *Writer) loop() {
	defer close(w.done)
	for j := range w.jobs {
		w.apply(j)
	}
}

func (w *Writer) apply(j job) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	var err error
	if j.room != nil {
		err = w.repo.SaveRoom(ctx, j.room)
	} else {
		err = w.repo.AppendMove(ctx, j.roomID, j.move)
	}
	if err != nil {
		utils.Log.Error("record write failed", "room", j.target(), "err", err)
	}
}

func (j job) target() string {
	if j.room != nil {
		return j.room.Room
	}
	return j.roomID
}
