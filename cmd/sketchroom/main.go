package main

import (
	"log"

	"github.com/gin-gonic/gin"

	"github.com/mossy-p/sketchroom/config"
	"github.com/mossy-p/sketchroom/internal/engine"
	"github.com/mossy-p/sketchroom/internal/handlers"
	"github.com/mossy-p/sketchroom/internal/persist"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Pick the durable snapshot backend
	var gateway persist.Gateway
	var err error
	switch cfg.Persist.Backend {
	case "file":
		gateway, err = persist.NewFileGateway(cfg.Persist.SnapshotDir)
	default:
		gateway, err = persist.NewRedisGateway(cfg.Persist.Redis)
	}
	if err != nil {
		log.Fatalf("Failed to initialize %s persistence: %v", cfg.Persist.Backend, err)
	}
	defer gateway.Close()

	log.Printf("Persistence backend ready (%s)", cfg.Persist.Backend)

	// Authoritative room state, one store per process
	store := engine.NewStore(gateway)
	defer store.Close()

	hub := handlers.NewHub()
	socket := handlers.NewSocketHandler(store, hub)
	rooms := handlers.NewRoomAPI(store)

	// Setup Gin router
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()

	// Global CORS middleware (runs before routing)
	router.Use(handlers.OriginFilter(cfg.AllowedOrigins))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Room management API
	apiGroup := router.Group("/api")
	{
		// Snapshot read without joining
		apiGroup.GET("/rooms/:roomId", rooms.GetRoom)

		// Force a durable flush
		apiGroup.POST("/rooms/:roomId/save", rooms.SaveRoom)

		// Evict the room and delete its snapshot
		apiGroup.DELETE("/rooms/:roomId", rooms.DeleteRoom)
	}

	// WebSocket drawing endpoint; sessions bind to a room via join-room
	wsGroup := router.Group("/ws")
	{
		wsGroup.GET("/draw", socket.Serve)
	}

	// Start server
	log.Printf("Starting sketchroom server on port %s", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
