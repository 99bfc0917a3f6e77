package engine

import (
	"log"

	"github.com/mossy-p/sketchroom/internal/models"
)

// Stroke lifecycle: Begin appends a new in-progress stroke, Extend feeds
// it points, End finalizes it. Validation failures are silent no-ops; the
// boolean result only tells the caller whether to relay the event.

// Begin adds a stroke to the canonical log. The stroke must carry an id
// not already present in the room; a duplicate id is ignored so replayed
// or spoofed begins cannot corrupt the log.
func (s *Store) Begin(roomID string, stroke *models.Stroke) bool {
	if roomID == "" || stroke == nil || stroke.ID == "" {
		return false
	}

	r := s.lockRoom(roomID)
	defer r.mu.Unlock()

	if r.findStroke(stroke.ID) != nil {
		return false
	}
	r.strokes = append(r.strokes, stroke)
	s.markDirty(roomID)
	return true
}

// Extend appends a point to a freehand stroke, or moves the live endpoint
// of a shape. Shapes are anchor+endpoint, never polylines, so their second
// point is replaced rather than accumulated. Unknown stroke ids no-op.
func (s *Store) Extend(roomID, strokeID string, point *models.Point) bool {
	if roomID == "" || strokeID == "" || point == nil {
		return false
	}

	r := s.lockRoom(roomID)
	defer r.mu.Unlock()

	stroke := r.findStroke(strokeID)
	if stroke == nil || stroke.Finalized {
		return false
	}

	if stroke.Tool.IsShape() && len(stroke.Points) >= 2 {
		stroke.Points[1] = *point
	} else {
		stroke.Points = append(stroke.Points, *point)
	}
	s.markDirty(roomID)
	return true
}

// End finalizes a stroke and synchronously flushes the room. With an
// empty strokeID the author's most recent unfinalized stroke is taken,
// matching clients that only send the room on end-stroke. A shape ended
// with a single point gets its anchor duplicated so it stays a valid,
// zero-size shape.
func (s *Store) End(roomID, strokeID, authorID string) bool {
	if roomID == "" {
		return false
	}

	r := s.lockRoom(roomID)

	var stroke *models.Stroke
	if strokeID != "" {
		stroke = r.findStroke(strokeID)
	} else {
		for i := len(r.strokes) - 1; i >= 0; i-- {
			if r.strokes[i].AuthorID == authorID && !r.strokes[i].Finalized {
				stroke = r.strokes[i]
				break
			}
		}
	}

	if stroke == nil || stroke.Finalized {
		r.mu.Unlock()
		return false
	}

	if stroke.Tool.IsShape() && len(stroke.Points) == 1 {
		stroke.Points = append(stroke.Points, stroke.Points[0])
	}
	stroke.Finalized = true
	r.mu.Unlock()

	if err := s.Flush(roomID); err != nil {
		log.Printf("Failed to persist room %s on end-stroke: %v", roomID, err)
	}
	return true
}
