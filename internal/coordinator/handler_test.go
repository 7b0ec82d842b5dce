package coordinator

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"BlitzHub/internal/record"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type brokenRepo struct{}

func (brokenRepo) SaveRoom(context.Context, *record.Room) error { return errors.New("down") }
func (brokenRepo) AppendMove(context.Context, string, record.Move) error { return errors.New("down") }
func (brokenRepo) LoadRoom(context.Context, string) (*record.Room, error) { return nil, errors.New("down") }

func newRouter(h *Handler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/presence", h.Presence)
	r.GET("/match/stats", h.Stats)
	r.GET("/rooms/:id", h.Room)
	return r
}

func get(r http.Handler, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	r.ServeHTTP(w, req)
	return w
}

func TestHandlerPresenceAndStats(t *testing.T) {
	c, _, _ := newTestCoordinator(Options{})
	c.Join("a1", "", JoinRequest{Username: "alice", Role: "player"})
	c.RequestMatch("a1", "", blitz("alice", "random"))
	r := newRouter(NewHandler(c, nil))

	w := get(r, "/presence")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"users":[{"username":"alice","role":"player"}]}`, w.Body.String())

	w = get(r, "/match/stats")
	require.Equal(t, http.StatusOK, w.Code)
	var s Stats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &s))
	assert.Equal(t, Stats{Online: 1, Queued: 1}, s)
}

func TestHandlerRoom(t *testing.T) {
	repo := record.NewMemoryRepo()
	ctx := context.Background()
	require.NoError(t, repo.SaveRoom(ctx, &record.Room{
		Room:      "r1",
		CreatedAt: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		BaseMs:    60000,
		Players:   record.Players{White: "alice", Black: "bob"},
		FEN:       "start",
		Moves:     []record.Move{},
	}))
	c, _, _ := newTestCoordinator(Options{})
	r := newRouter(NewHandler(c, repo))

	w := get(r, "/rooms/r1")
	require.Equal(t, http.StatusOK, w.Code)
	var got record.Room
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "alice", got.Players.White)
	assert.Equal(t, int64(60000), got.BaseMs)

	assert.Equal(t, http.StatusNotFound, get(r, "/rooms/missing").Code)
}

func TestHandlerRoomWithoutPersistence(t *testing.T) {
	c, _, _ := newTestCoordinator(Options{})
	assert.Equal(t, http.StatusNotFound, get(newRouter(NewHandler(c, nil)), "/rooms/r1").Code)
	assert.Equal(t, http.StatusInternalServerError, get(newRouter(NewHandler(c, brokenRepo{})), "/rooms/r1").Code)
}
