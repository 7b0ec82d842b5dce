package coordinator

import (
	"errors"
	"net/http"

	"BlitzHub/internal/record"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	coord *Coordinator
	repo  record.Repo
}

// NewHandler exposes read-only views. repo may be nil when persistence is off.
func NewHandler(coord *Coordinator, repo record.Repo) *Handler {
	return &Handler{coord: coord, repo: repo}
}

// GET /presence
func (h *Handler) Presence(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"users": h.coord.Presence()})
}

// GET /match/stats
func (h *Handler) Stats(c *gin.Context) {
	c.JSON(http.StatusOK, h.coord.Stats())
}

// GET /rooms/:id
func (h *Handler) Room(c *gin.Context) {
	if h.repo == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": record.ErrNotFound.Error()})
		return
	}
	room, err := h.repo.LoadRoom(c.Request.Context(), c.Param("id"))
	if errors.Is(err, record.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, room)
}
