package persist

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/mossy-p/sketchroom/internal/models"
)

// FileGateway keeps one JSON snapshot per room as <dir>/<room>.json.
type FileGateway struct {
	dir string
}

// NewFileGateway creates the snapshot directory if needed.
func NewFileGateway(dir string) (*FileGateway, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create snapshot dir %s: %w", dir, err)
	}
	return &FileGateway{dir: dir}, nil
}

// path maps a room id to a snapshot file, refusing ids that would escape
// the snapshot directory.
func (g *FileGateway) path(roomID string) (string, bool) {
	if roomID == "" || strings.ContainsAny(roomID, "/\\") || roomID == "." || roomID == ".." {
		return "", false
	}
	return filepath.Join(g.dir, roomID+".json"), true
}

func emptyState() *models.RoomState {
	return &models.RoomState{Strokes: []*models.Stroke{}}
}

func (g *FileGateway) Load(_ context.Context, roomID string) (*models.RoomState, error) {
	fn, ok := g.path(roomID)
	if !ok {
		return emptyState(), nil
	}

	data, err := os.ReadFile(fn)
	if os.IsNotExist(err) {
		return emptyState(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot for room %s: %w", roomID, err)
	}

	var state models.RoomState
	if err := json.Unmarshal(data, &state); err != nil {
		log.Printf("Corrupt snapshot for room %s, starting empty: %v", roomID, err)
		return emptyState(), nil
	}
	if state.Strokes == nil {
		state.Strokes = []*models.Stroke{}
	}
	return &state, nil
}

func (g *FileGateway) Save(_ context.Context, roomID string, state *models.RoomState) error {
	fn, ok := g.path(roomID)
	if !ok {
		return fmt.Errorf("invalid room id %q", roomID)
	}

	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal room %s: %w", roomID, err)
	}

	// Write-then-rename so a crash mid-write never leaves a torn snapshot.
	tmp := fn + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write snapshot for room %s: %w", roomID, err)
	}
	if err := os.Rename(tmp, fn); err != nil {
		return fmt.Errorf("failed to commit snapshot for room %s: %w", roomID, err)
	}
	return nil
}

func (g *FileGateway) Delete(_ context.Context, roomID string) error {
	fn, ok := g.path(roomID)
	if !ok {
		return nil
	}
	if err := os.Remove(fn); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete snapshot for room %s: %w", roomID, err)
	}
	return nil
}

func (g *FileGateway) Close() error { return nil }
