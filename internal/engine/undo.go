package engine

import (
	"log"

	"github.com/mossy-p/sketchroom/internal/models"
)

// Undo removes the author's most recent stroke and returns its id. The
// scan is author-scoped: it walks the log from the tail looking for a
// stroke by this author, no matter how many strokes other authors added
// after it. This is deliberately not a global last-action stack. Returns
// "", false when the author has no strokes left.
func (s *Store) Undo(roomID, authorID string) (string, bool) {
	if roomID == "" || authorID == "" {
		return "", false
	}

	r := s.lockRoom(roomID)
	defer r.mu.Unlock()

	for i := len(r.strokes) - 1; i >= 0; i-- {
		if r.strokes[i].AuthorID != authorID {
			continue
		}
		removed := r.strokes[i]
		r.strokes = append(r.strokes[:i], r.strokes[i+1:]...)
		r.removed = append(r.removed, removed)
		s.markDirty(roomID)
		return removed.ID, true
	}
	return "", false
}

// Redo re-admits a stroke the requester previously undid. The server
// keeps no redo history; the client resubmits the full payload and the
// stroke lands at the current tail of the log, not at its original
// position relative to other authors' strokes. The requester is forced
// as author so a session can only ever redo onto its own name. A payload
// whose id already exists in the log is ignored, preserving id
// uniqueness. Returns the admitted stroke for relaying.
func (s *Store) Redo(roomID, authorID string, stroke *models.Stroke) (*models.Stroke, bool) {
	if roomID == "" || stroke == nil || stroke.ID == "" {
		return nil, false
	}

	stroke.AuthorID = authorID
	stroke.Finalized = true

	r := s.lockRoom(roomID)
	defer r.mu.Unlock()

	if r.findStroke(stroke.ID) != nil {
		return nil, false
	}
	r.strokes = append(r.strokes, stroke)
	s.markDirty(roomID)
	return stroke, true
}

// Clear wipes the canonical log and the undo stack in one step and
// synchronously flushes the empty state, so a clear observably wins any
// race with an in-flight extend on the same room.
func (s *Store) Clear(roomID string) bool {
	if roomID == "" {
		return false
	}

	r := s.lockRoom(roomID)
	r.strokes = []*models.Stroke{}
	r.removed = nil
	r.mu.Unlock()

	if err := s.Flush(roomID); err != nil {
		log.Printf("Failed to persist room %s on clear: %v", roomID, err)
	}
	return true
}
