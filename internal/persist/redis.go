package persist

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"

	"github.com/mossy-p/sketchroom/config"
	"github.com/mossy-p/sketchroom/internal/models"
)

// RedisGateway stores one JSON snapshot per room under room:{id}:state.
type RedisGateway struct {
	client *redis.Client
}

// NewRedisGateway connects to Redis and verifies the connection.
func NewRedisGateway(cfg config.RedisConfig) (*RedisGateway, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisGateway{client: client}, nil
}

func stateKey(roomID string) string {
	return "room:" + roomID + ":state"
}

func (g *RedisGateway) Load(ctx context.Context, roomID string) (*models.RoomState, error) {
	data, err := g.client.Get(ctx, stateKey(roomID)).Bytes()
	if err == redis.Nil {
		return &models.RoomState{Strokes: []*models.Stroke{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load room %s: %w", roomID, err)
	}

	var state models.RoomState
	if err := json.Unmarshal(data, &state); err != nil {
		// Corrupt snapshot: recover with an empty room rather than failing.
		log.Printf("Corrupt snapshot for room %s, starting empty: %v", roomID, err)
		return &models.RoomState{Strokes: []*models.Stroke{}}, nil
	}
	if state.Strokes == nil {
		state.Strokes = []*models.Stroke{}
	}
	return &state, nil
}

func (g *RedisGateway) Save(ctx context.Context, roomID string, state *models.RoomState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal room %s: %w", roomID, err)
	}
	if err := g.client.Set(ctx, stateKey(roomID), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save room %s: %w", roomID, err)
	}
	return nil
}

func (g *RedisGateway) Delete(ctx context.Context, roomID string) error {
	return g.client.Del(ctx, stateKey(roomID)).Err()
}

func (g *RedisGateway) Close() error {
	return g.client.Close()
}
