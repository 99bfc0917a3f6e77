package persist

import (
	"context"

	"github.com/mossy-p/sketchroom/internal/models"
)

// Gateway reads and writes durable room snapshots. Load returns an empty
// state when no snapshot exists or the stored blob cannot be parsed;
// corruption is logged and swallowed, never surfaced to the room.
type Gateway interface {
	Load(ctx context.Context, roomID string) (*models.RoomState, error)
	Save(ctx context.Context, roomID string, state *models.RoomState) error
	Delete(ctx context.Context, roomID string) error
	Close() error
}
