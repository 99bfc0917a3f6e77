package engine_test

import (
	"testing"

	"github.com/mossy-p/sketchroom/internal/engine"
	"github.com/mossy-p/sketchroom/internal/models"
)

func TestBeginExtendEnd(t *testing.T) {
	store := engine.NewStore(newMemoryGateway())
	defer store.Close()

	if !store.Begin("r1", pen("s1", "u1", models.Point{X: 0, Y: 0})) {
		t.Fatalf("begin rejected")
	}
	if !store.Extend("r1", "s1", &models.Point{X: 1, Y: 1}) {
		t.Fatalf("extend rejected")
	}
	if !store.End("r1", "s1", "u1") {
		t.Fatalf("end rejected")
	}

	strokes, _ := store.Snapshot("r1")
	if len(strokes) != 1 {
		t.Fatalf("expected 1 stroke, got %d", len(strokes))
	}
	s := strokes[0]
	if s.ID != "s1" || !s.Finalized {
		t.Fatalf("unexpected stroke: %+v", s)
	}
	want := []models.Point{{X: 0, Y: 0}, {X: 1, Y: 1}}
	if len(s.Points) != len(want) || s.Points[0] != want[0] || s.Points[1] != want[1] {
		t.Fatalf("unexpected points: %+v", s.Points)
	}
}

func TestBeginValidation(t *testing.T) {
	store := engine.NewStore(newMemoryGateway())
	defer store.Close()

	tests := []struct {
		name   string
		roomID string
		stroke *models.Stroke
	}{
		{"missing room", "", pen("s1", "u1")},
		{"nil stroke", "r1", nil},
		{"missing stroke id", "r1", pen("", "u1")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if store.Begin(tt.roomID, tt.stroke) {
				t.Fatalf("expected silent reject")
			}
		})
	}

	strokes, _ := store.Snapshot("r1")
	if len(strokes) != 0 {
		t.Fatalf("rejected begins must not mutate the log, got %d strokes", len(strokes))
	}
}

func TestBeginDuplicateIDIgnored(t *testing.T) {
	store := engine.NewStore(newMemoryGateway())
	defer store.Close()

	store.Begin("r1", pen("s1", "u1", models.Point{X: 0, Y: 0}))
	if store.Begin("r1", pen("s1", "u2", models.Point{X: 9, Y: 9})) {
		t.Fatalf("duplicate stroke id must be rejected")
	}

	strokes, _ := store.Snapshot("r1")
	if len(strokes) != 1 {
		t.Fatalf("expected 1 stroke, got %d", len(strokes))
	}
	if strokes[0].AuthorID != "u1" {
		t.Fatalf("original stroke was replaced: %+v", strokes[0])
	}
}

func TestExtendFreehandAppends(t *testing.T) {
	store := engine.NewStore(newMemoryGateway())
	defer store.Close()

	store.Begin("r1", pen("s1", "u1", models.Point{X: 0, Y: 0}))
	for i := 1; i <= 5; i++ {
		store.Extend("r1", "s1", &models.Point{X: float64(i), Y: float64(i)})
	}

	strokes, _ := store.Snapshot("r1")
	if got := len(strokes[0].Points); got != 6 {
		t.Fatalf("freehand points must accumulate, got %d", got)
	}
}

func TestExtendShapeReplacesEndpoint(t *testing.T) {
	store := engine.NewStore(newMemoryGateway())
	defer store.Close()

	store.Begin("r1", shape("s1", "u1", models.ToolRect, models.Point{X: 0, Y: 0}))
	store.Extend("r1", "s1", &models.Point{X: 5, Y: 5})
	store.Extend("r1", "s1", &models.Point{X: 7, Y: 3})
	store.Extend("r1", "s1", &models.Point{X: 10, Y: 10})

	strokes, _ := store.Snapshot("r1")
	pts := strokes[0].Points
	if len(pts) != 2 {
		t.Fatalf("shape must stay anchor+endpoint, got %d points", len(pts))
	}
	if pts[1] != (models.Point{X: 10, Y: 10}) {
		t.Fatalf("endpoint not replaced by the latest extend: %+v", pts[1])
	}
}

func TestEndDegenerateShape(t *testing.T) {
	store := engine.NewStore(newMemoryGateway())
	defer store.Close()

	store.Begin("r1", shape("s1", "u1", models.ToolCircle, models.Point{X: 4, Y: 4}))
	store.End("r1", "s1", "u1")

	strokes, _ := store.Snapshot("r1")
	pts := strokes[0].Points
	if len(pts) != 2 || pts[0] != pts[1] {
		t.Fatalf("single-point shape must end as a zero-size shape, got %+v", pts)
	}
}

func TestEndWithoutIDFinalizesAuthorsLatest(t *testing.T) {
	store := engine.NewStore(newMemoryGateway())
	defer store.Close()

	store.Begin("r1", pen("s1", "u1", models.Point{}))
	store.Begin("r1", pen("s2", "u2", models.Point{}))
	store.Begin("r1", pen("s3", "u1", models.Point{}))

	if !store.End("r1", "", "u1") {
		t.Fatalf("end without id rejected")
	}

	strokes, _ := store.Snapshot("r1")
	byID := map[string]bool{}
	for _, s := range strokes {
		byID[s.ID] = s.Finalized
	}
	if !byID["s3"] || byID["s1"] || byID["s2"] {
		t.Fatalf("expected only s3 finalized: %v", byID)
	}
}

func TestExtendEndUnknownStrokeNoOp(t *testing.T) {
	store := engine.NewStore(newMemoryGateway())
	defer store.Close()

	store.Begin("r1", pen("s1", "u1", models.Point{}))
	if store.Extend("r1", "ghost", &models.Point{X: 1, Y: 1}) {
		t.Fatalf("extend of unknown stroke must no-op")
	}
	if store.End("r1", "ghost", "u1") {
		t.Fatalf("end of unknown stroke must no-op")
	}

	strokes, _ := store.Snapshot("r1")
	if len(strokes) != 1 || len(strokes[0].Points) != 1 || strokes[0].Finalized {
		t.Fatalf("no-op branch mutated the log: %+v", strokes[0])
	}
}

func TestExtendAfterFinalizeNoOp(t *testing.T) {
	store := engine.NewStore(newMemoryGateway())
	defer store.Close()

	store.Begin("r1", pen("s1", "u1", models.Point{}))
	store.End("r1", "s1", "u1")
	if store.Extend("r1", "s1", &models.Point{X: 1, Y: 1}) {
		t.Fatalf("extend of a finalized stroke must no-op")
	}
}

func TestAppendOrderIsCanonical(t *testing.T) {
	store := engine.NewStore(newMemoryGateway())
	defer store.Close()

	// Interleaved begins from three authors arrive in a fixed order; the
	// canonical log preserves exactly that arrival order.
	order := []struct{ id, author string }{
		{"a1", "u1"}, {"b1", "u2"}, {"c1", "u3"},
		{"b2", "u2"}, {"a2", "u1"}, {"c2", "u3"},
	}
	for _, o := range order {
		store.Begin("r1", pen(o.id, o.author, models.Point{}))
	}

	strokes, _ := store.Snapshot("r1")
	if len(strokes) != len(order) {
		t.Fatalf("expected %d strokes, got %d", len(order), len(strokes))
	}
	for i, o := range order {
		if strokes[i].ID != o.id {
			t.Fatalf("position %d: want %s, got %s", i, o.id, strokes[i].ID)
		}
	}
}
