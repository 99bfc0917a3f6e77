package engine

import (
	"context"
	"log"
	"sync"

	"github.com/mossy-p/sketchroom/internal/models"
	"github.com/mossy-p/sketchroom/internal/persist"
)

// Store is the authoritative state store for all rooms in this process.
// Every stroke mutation for a room runs under that room's mutex, so
// per-room operations are strictly serialized while distinct rooms
// proceed in parallel. Durable writes go through the injected gateway;
// most mutations only mark the room dirty for the background flusher,
// Flush persists synchronously.
type Store struct {
	gateway persist.Gateway

	mu    sync.RWMutex
	rooms map[string]*room

	dirty chan string
	done  chan struct{}
	wg    sync.WaitGroup
}

// room holds one room's canonical state. strokes is the canonical log in
// insertion order; removed is the stack of strokes taken out by undo.
// members counts live sessions, not persisted. evicted marks a room that
// has been dropped from the registry; a stale pointer to it must not be
// mutated, callers go back to the registry instead.
type room struct {
	mu      sync.Mutex
	strokes []*models.Stroke
	removed []*models.Stroke
	members int
	evicted bool
}

func NewStore(gateway persist.Gateway) *Store {
	s := &Store{
		gateway: gateway,
		rooms:   make(map[string]*room),
		dirty:   make(chan string, 256),
		done:    make(chan struct{}),
	}
	s.wg.Add(1)
	go s.flusher()
	return s
}

// Close stops the background flusher after draining pending dirty rooms.
func (s *Store) Close() {
	close(s.done)
	s.wg.Wait()
}

func (s *Store) flusher() {
	defer s.wg.Done()
	for {
		select {
		case roomID := <-s.dirty:
			s.flush(roomID)
		case <-s.done:
			// Drain whatever is queued before exiting.
			for {
				select {
				case roomID := <-s.dirty:
					s.flush(roomID)
				default:
					return
				}
			}
		}
	}
}

// markDirty queues a room for the background flusher. A full queue is
// dropped: the room stays durable as of its last flush and every
// finalize/clear/save still flushes synchronously.
func (s *Store) markDirty(roomID string) {
	select {
	case s.dirty <- roomID:
	default:
	}
}

func (s *Store) flush(roomID string) {
	s.mu.RLock()
	r, ok := s.rooms[roomID]
	s.mu.RUnlock()
	if !ok {
		return
	}

	r.mu.Lock()
	state := (&models.RoomState{Strokes: r.strokes}).Clone()
	r.mu.Unlock()

	if err := s.gateway.Save(context.Background(), roomID, state); err != nil {
		log.Printf("Failed to persist room %s: %v", roomID, err)
	}
}

// getOrLoad returns the room, loading its snapshot from the gateway on
// first access. A missing or unreadable snapshot yields an empty room.
func (s *Store) getOrLoad(roomID string) *room {
	s.mu.RLock()
	r, ok := s.rooms[roomID]
	s.mu.RUnlock()
	if ok {
		return r
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.rooms[roomID]; ok {
		return r
	}

	state, err := s.gateway.Load(context.Background(), roomID)
	if err != nil {
		log.Printf("Failed to load room %s, starting empty: %v", roomID, err)
		state = &models.RoomState{}
	}
	r = &room{strokes: state.Strokes}
	if r.strokes == nil {
		r.strokes = []*models.Stroke{}
	}
	s.rooms[roomID] = r
	log.Printf("Room %s loaded with %d strokes", roomID, len(r.strokes))
	return r
}

// lockRoom returns the room with its mutex held. A room evicted between
// the registry lookup and the lock is retried against the registry, so
// callers never mutate an orphaned room.
func (s *Store) lockRoom(roomID string) *room {
	for {
		r := s.getOrLoad(roomID)
		r.mu.Lock()
		if !r.evicted {
			return r
		}
		r.mu.Unlock()
	}
}

// Join binds one more session to the room and returns the canonical
// snapshot plus the new member count.
func (s *Store) Join(roomID string) ([]*models.Stroke, int) {
	r := s.lockRoom(roomID)
	defer r.mu.Unlock()
	r.members++
	return cloneStrokes(r.strokes), r.members
}

// Leave drops one session from the room and returns the remaining member
// count. When the last session leaves, the room is flushed and evicted
// from memory; the durable snapshot survives for the next join.
func (s *Store) Leave(roomID string) int {
	s.mu.RLock()
	r, ok := s.rooms[roomID]
	s.mu.RUnlock()
	if !ok {
		return 0
	}

	r.mu.Lock()
	if r.members > 0 {
		r.members--
	}
	remaining := r.members
	r.mu.Unlock()

	if remaining == 0 {
		s.flush(roomID)
		// Re-check membership under both locks: a session may have joined
		// since the count was read, and evicting under it would orphan its
		// room pointer.
		s.mu.Lock()
		r.mu.Lock()
		if r.members == 0 {
			r.evicted = true
			delete(s.rooms, roomID)
			log.Printf("Evicted idle room %s", roomID)
		}
		r.mu.Unlock()
		s.mu.Unlock()
	}
	return remaining
}

// Snapshot returns a deep copy of the canonical log and the member count
// without touching membership. Rooms that are not already live are read
// straight from the gateway and never cached, so polling arbitrary room
// ids cannot grow the registry.
func (s *Store) Snapshot(roomID string) ([]*models.Stroke, int) {
	s.mu.RLock()
	r, ok := s.rooms[roomID]
	s.mu.RUnlock()
	if ok {
		r.mu.Lock()
		defer r.mu.Unlock()
		return cloneStrokes(r.strokes), r.members
	}

	state, err := s.gateway.Load(context.Background(), roomID)
	if err != nil {
		log.Printf("Failed to load room %s for snapshot: %v", roomID, err)
		return []*models.Stroke{}, 0
	}
	if state.Strokes == nil {
		return []*models.Stroke{}, 0
	}
	return state.Strokes, 0
}

// Flush synchronously persists the room. Once Flush returns nil the
// snapshot is durable. A room that is not in memory has nothing volatile
// to flush; its durable copy is already current.
func (s *Store) Flush(roomID string) error {
	s.mu.RLock()
	r, ok := s.rooms[roomID]
	s.mu.RUnlock()
	if !ok {
		return nil
	}

	r.mu.Lock()
	state := (&models.RoomState{Strokes: r.strokes}).Clone()
	r.mu.Unlock()
	return s.gateway.Save(context.Background(), roomID, state)
}

// Reload replaces the in-memory log with the durable snapshot and returns
// the reloaded strokes. The undo stack is reset: its strokes refer to a
// log that no longer exists.
func (s *Store) Reload(roomID string) []*models.Stroke {
	for {
		r := s.getOrLoad(roomID)

		// Read the snapshot before taking the room lock; the gateway may
		// block on I/O.
		state, err := s.gateway.Load(context.Background(), roomID)
		if err != nil {
			log.Printf("Failed to reload room %s: %v", roomID, err)
			state = &models.RoomState{}
		}
		if state.Strokes == nil {
			state.Strokes = []*models.Stroke{}
		}

		r.mu.Lock()
		if r.evicted {
			r.mu.Unlock()
			continue
		}
		r.strokes = state.Strokes
		r.removed = nil
		strokes := cloneStrokes(r.strokes)
		r.mu.Unlock()
		return strokes
	}
}

// Evict drops the room from memory and deletes its durable snapshot.
func (s *Store) Evict(roomID string) error {
	s.mu.Lock()
	if r, ok := s.rooms[roomID]; ok {
		r.mu.Lock()
		r.evicted = true
		r.mu.Unlock()
		delete(s.rooms, roomID)
	}
	s.mu.Unlock()
	return s.gateway.Delete(context.Background(), roomID)
}

// findStroke scans from the tail: live edits almost always target the
// most recent strokes.
func (r *room) findStroke(strokeID string) *models.Stroke {
	for i := len(r.strokes) - 1; i >= 0; i-- {
		if r.strokes[i].ID == strokeID {
			return r.strokes[i]
		}
	}
	return nil
}

func cloneStrokes(strokes []*models.Stroke) []*models.Stroke {
	out := make([]*models.Stroke, len(strokes))
	for i, s := range strokes {
		out[i] = s.Clone()
	}
	return out
}
