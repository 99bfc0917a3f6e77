package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mossy-p/sketchroom/internal/engine"
	"github.com/mossy-p/sketchroom/internal/models"
)

// RoomAPI is the REST surface over the engine: snapshot reads, forced
// flushes, and room deletion, without holding a WebSocket session.
type RoomAPI struct {
	Store *engine.Store
}

func NewRoomAPI(store *engine.Store) *RoomAPI {
	return &RoomAPI{Store: store}
}

// GetRoom returns the room's canonical snapshot and live member count.
func (a *RoomAPI) GetRoom(c *gin.Context) {
	roomID := c.Param("roomId")
	if roomID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "roomId is required"})
		return
	}

	strokes, users := a.Store.Snapshot(roomID)
	c.JSON(http.StatusOK, models.InitStatePayload{Strokes: strokes, Users: users})
}

// SaveRoom forces a synchronous flush; a 200 means the snapshot is durable.
func (a *RoomAPI) SaveRoom(c *gin.Context) {
	roomID := c.Param("roomId")
	if roomID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "roomId is required"})
		return
	}

	if err := a.Store.Flush(roomID); err != nil {
		log.Printf("Failed to persist room %s: %v", roomID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save room"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// DeleteRoom evicts the room from memory and removes its durable snapshot.
func (a *RoomAPI) DeleteRoom(c *gin.Context) {
	roomID := c.Param("roomId")
	if roomID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "roomId is required"})
		return
	}

	if err := a.Store.Evict(roomID); err != nil {
		log.Printf("Failed to delete room %s: %v", roomID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete room"})
		return
	}

	log.Printf("Room deleted: %s", roomID)
	c.JSON(http.StatusOK, gin.H{"message": "Room deleted"})
}
