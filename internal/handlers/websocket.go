package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/mossy-p/sketchroom/internal/engine"
	"github.com/mossy-p/sketchroom/internal/models"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Origin checking is handled by middleware
		return true
	},
}

// Hub tracks which live connections belong to which room. It carries no
// drawing state: canonical state lives in the engine, the hub only fans
// frames out.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[string]*Client
}

func NewHub() *Hub {
	return &Hub{rooms: make(map[string]map[string]*Client)}
}

// Client is one WebSocket session. Name defaults from the connection id
// when the client supplies none.
type Client struct {
	ID     string
	Name   string
	RoomID string
	Conn   *websocket.Conn
	Send   chan []byte
}

func (h *Hub) add(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	peers, ok := h.rooms[client.RoomID]
	if !ok {
		peers = make(map[string]*Client)
		h.rooms[client.RoomID] = peers
	}
	peers[client.ID] = client
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	peers, ok := h.rooms[client.RoomID]
	if !ok {
		return
	}
	delete(peers, client.ID)
	if len(peers) == 0 {
		delete(h.rooms, client.RoomID)
	}
}

// Broadcast sends a frame to every session in the room. Pass the sender's
// id as exclude to skip echoing back; pass "" to reach everyone.
func (h *Hub) Broadcast(roomID string, event models.Event, payload any, exclude string) {
	data, err := models.Encode(event, payload)
	if err != nil {
		log.Printf("Failed to marshal %s event: %v", event, err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for id, client := range h.rooms[roomID] {
		if id == exclude {
			continue
		}
		select {
		case client.Send <- data:
		default:
			log.Printf("Dropped %s frame for session %s, buffer full", event, id)
		}
	}
}

// SocketHandler owns the WebSocket surface: one connection per
// participant, bound to a room by the first join-room event.
type SocketHandler struct {
	Store *engine.Store
	Hub   *Hub
}

func NewSocketHandler(store *engine.Store, hub *Hub) *SocketHandler {
	return &SocketHandler{Store: store, Hub: hub}
}

// Serve upgrades the connection and runs the session until disconnect.
func (h *SocketHandler) Serve(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("Failed to upgrade connection: %v", err)
		return
	}

	client := &Client{
		ID:   uuid.New().String(),
		Conn: conn,
		Send: make(chan []byte, 256),
	}
	log.Printf("Session %s connected", client.ID)

	go client.writePump()
	h.readPump(client)
}

func (c *Client) sendEvent(event models.Event, payload any) {
	data, err := models.Encode(event, payload)
	if err != nil {
		log.Printf("Failed to marshal %s event: %v", event, err)
		return
	}
	select {
	case c.Send <- data:
	default:
		log.Printf("Dropped %s frame for session %s, buffer full", event, c.ID)
	}
}

// roomFor resolves the room an event targets: the payload's room wins,
// else the room the session joined. Empty means the event is dropped.
func (c *Client) roomFor(room string) string {
	if room != "" {
		return room
	}
	return c.RoomID
}

func (h *SocketHandler) readPump(c *Client) {
	defer h.disconnect(c)

	c.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			return
		}

		var env models.Envelope
		if err := json.Unmarshal(message, &env); err != nil {
			log.Printf("Failed to parse frame from %s: %v", c.ID, err)
			continue
		}
		h.dispatch(c, env)
	}
}

// dispatch routes one client event. Every malformed or unresolvable event
// is a silent no-op: nothing here ever terminates the session.
func (h *SocketHandler) dispatch(c *Client, env models.Envelope) {
	switch env.Event {
	case models.EventJoinRoom:
		var p models.JoinRoomPayload
		if json.Unmarshal(env.Data, &p) != nil || p.Room == "" {
			return
		}
		h.join(c, p)

	case models.EventBeginStroke:
		var p models.BeginStrokePayload
		if json.Unmarshal(env.Data, &p) != nil || p.Stroke == nil {
			return
		}
		room := c.roomFor(p.Room)
		// The engine trusts the transport identity, not the payload's.
		p.Stroke.AuthorID = c.ID
		// Broadcast a copy: the store owns the stroke once admitted.
		relay := p.Stroke.Clone()
		if h.Store.Begin(room, p.Stroke) {
			h.Hub.Broadcast(room, models.EventStroke, relay, c.ID)
		}

	case models.EventExtendStroke:
		var p models.ExtendStrokePayload
		if json.Unmarshal(env.Data, &p) != nil {
			return
		}
		room := c.roomFor(p.Room)
		if h.Store.Extend(room, p.ID, p.Point) {
			h.Hub.Broadcast(room, models.EventStrokeExtend,
				models.ExtendStrokePayload{ID: p.ID, Point: p.Point}, c.ID)
		}

	case models.EventEndStroke:
		var p models.EndStrokePayload
		if json.Unmarshal(env.Data, &p) != nil {
			return
		}
		h.Store.End(c.roomFor(p.Room), p.ID, c.ID)

	case models.EventUndoMy:
		var p models.RoomPayload
		if json.Unmarshal(env.Data, &p) != nil {
			return
		}
		room := c.roomFor(p.Room)
		if strokeID, ok := h.Store.Undo(room, c.ID); ok {
			h.Hub.Broadcast(room, models.EventUndo, models.UndoPayload{StrokeID: strokeID}, "")
		}

	case models.EventRedoMy:
		var p models.RedoPayload
		if json.Unmarshal(env.Data, &p) != nil || p.Stroke == nil {
			return
		}
		room := c.roomFor(p.Room)
		if stroke, ok := h.Store.Redo(room, c.ID, p.Stroke); ok {
			// Everyone gets the redo, sender included; the sender's own
			// copy already matches and deduplicates by id.
			h.Hub.Broadcast(room, models.EventStroke, stroke.Clone(), "")
		}

	case models.EventCursor:
		var p models.CursorPayload
		if json.Unmarshal(env.Data, &p) != nil {
			return
		}
		room := c.roomFor(p.Room)
		if room == "" {
			return
		}
		h.Hub.Broadcast(room, models.EventCursor, models.CursorPayload{
			ID:    c.ID,
			X:     p.X,
			Y:     p.Y,
			Color: p.Color,
			Tool:  p.Tool,
			Name:  c.Name,
		}, c.ID)

	case models.EventClear:
		var p models.RoomPayload
		if json.Unmarshal(env.Data, &p) != nil {
			return
		}
		room := c.roomFor(p.Room)
		if h.Store.Clear(room) {
			h.Hub.Broadcast(room, models.EventClear, nil, "")
		}

	case models.EventSave:
		var p models.RoomPayload
		if json.Unmarshal(env.Data, &p) != nil {
			return
		}
		room := c.roomFor(p.Room)
		if room == "" {
			return
		}
		if err := h.Store.Flush(room); err != nil {
			log.Printf("Failed to persist room %s on save: %v", room, err)
			return
		}
		c.sendEvent(models.EventSaved, models.SavedPayload{OK: true})

	case models.EventLoad:
		var p models.RoomPayload
		if json.Unmarshal(env.Data, &p) != nil {
			return
		}
		room := c.roomFor(p.Room)
		if room == "" {
			return
		}
		strokes := h.Store.Reload(room)
		h.Hub.Broadcast(room, models.EventLoadState, models.LoadStatePayload{Strokes: strokes}, "")

	case models.EventPing:
		var p models.PingPayload
		if json.Unmarshal(env.Data, &p) != nil {
			return
		}
		c.sendEvent(models.EventPong, p)

	default:
		log.Printf("Unknown event %q from session %s", env.Event, c.ID)
	}
}

func (h *SocketHandler) join(c *Client, p models.JoinRoomPayload) {
	if c.RoomID != "" {
		// Already bound; rebinding a live session is not supported.
		return
	}
	c.RoomID = p.Room
	c.Name = p.Name
	if c.Name == "" {
		c.Name = "User-" + c.ID[:4]
	}

	// Enter the hub before taking the snapshot: a stroke that lands
	// between the two is then broadcast to the joiner as well, so nothing
	// can fall between the snapshot and the live feed. The joiner may see
	// a stroke twice; clients dedupe by stroke id.
	h.Hub.add(c)
	strokes, users := h.Store.Join(p.Room)

	log.Printf("Session %s joined room %s as %q (%d users)", c.ID, p.Room, c.Name, users)

	c.sendEvent(models.EventInitState, models.InitStatePayload{Strokes: strokes, Users: users})
	h.Hub.Broadcast(p.Room, models.EventUserCount, models.UserCountPayload{Count: users}, "")
}

func (h *SocketHandler) disconnect(c *Client) {
	c.Conn.Close()
	if c.RoomID == "" {
		return
	}

	h.Hub.remove(c)
	remaining := h.Store.Leave(c.RoomID)

	h.Hub.Broadcast(c.RoomID, models.EventCursorLeave, models.CursorLeavePayload{ID: c.ID}, c.ID)
	h.Hub.Broadcast(c.RoomID, models.EventUserCount, models.UserCountPayload{Count: remaining}, "")

	log.Printf("Session %s left room %s", c.ID, c.RoomID)
}

func (c *Client) writePump() {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Printf("Failed to write message: %v", err)
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
