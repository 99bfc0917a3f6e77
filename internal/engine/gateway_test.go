package engine_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/mossy-p/sketchroom/internal/models"
)

// memoryGateway is an in-process Gateway for engine tests. Snapshots are
// stored as marshaled JSON so tests exercise the same round-trip the real
// backends do.
type memoryGateway struct {
	mu    sync.Mutex
	blobs map[string][]byte
	saves int

	failSave bool
	failLoad bool
}

func newMemoryGateway() *memoryGateway {
	return &memoryGateway{blobs: make(map[string][]byte)}
}

func (g *memoryGateway) Load(_ context.Context, roomID string) (*models.RoomState, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failLoad {
		return nil, errors.New("load failure")
	}
	blob, ok := g.blobs[roomID]
	if !ok {
		return &models.RoomState{Strokes: []*models.Stroke{}}, nil
	}
	var state models.RoomState
	if err := json.Unmarshal(blob, &state); err != nil {
		return &models.RoomState{Strokes: []*models.Stroke{}}, nil
	}
	return &state, nil
}

func (g *memoryGateway) Save(_ context.Context, roomID string, state *models.RoomState) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failSave {
		return errors.New("save failure")
	}
	blob, err := json.Marshal(state)
	if err != nil {
		return err
	}
	g.blobs[roomID] = blob
	g.saves++
	return nil
}

func (g *memoryGateway) Delete(_ context.Context, roomID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.blobs, roomID)
	return nil
}

func (g *memoryGateway) Close() error { return nil }

func (g *memoryGateway) saveCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.saves
}

func pen(id, author string, points ...models.Point) *models.Stroke {
	return &models.Stroke{
		ID:       id,
		AuthorID: author,
		Tool:     models.ToolPen,
		Color:    "#000000",
		Width:    2,
		Mode:     models.ModeDraw,
		Points:   points,
	}
}

func shape(id, author string, tool models.Tool, points ...models.Point) *models.Stroke {
	s := pen(id, author, points...)
	s.Tool = tool
	return s
}
