package handlers

import (
	"encoding/json"
	"testing"

	"github.com/mossy-p/sketchroom/internal/models"
)

func testClient(id, roomID string) *Client {
	return &Client{ID: id, RoomID: roomID, Send: make(chan []byte, 4)}
}

func received(t *testing.T, c *Client) *models.Envelope {
	t.Helper()
	select {
	case data := <-c.Send:
		var env models.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			t.Fatalf("bad frame: %v", err)
		}
		return &env
	default:
		return nil
	}
}

func TestBroadcastExcludesSender(t *testing.T) {
	hub := NewHub()
	sender := testClient("c1", "r1")
	peer := testClient("c2", "r1")
	hub.add(sender)
	hub.add(peer)

	hub.Broadcast("r1", models.EventCursor, models.CursorPayload{ID: sender.ID, X: 3, Y: 4}, sender.ID)

	if env := received(t, sender); env != nil {
		t.Fatalf("presence must never echo to its originating session, got %s", env.Event)
	}
	env := received(t, peer)
	if env == nil || env.Event != models.EventCursor {
		t.Fatalf("peer did not receive the cursor frame: %+v", env)
	}
	var p models.CursorPayload
	if err := json.Unmarshal(env.Data, &p); err != nil || p.ID != "c1" || p.X != 3 {
		t.Fatalf("unexpected cursor payload: %+v err=%v", p, err)
	}
}

func TestBroadcastToWholeRoom(t *testing.T) {
	hub := NewHub()
	a := testClient("c1", "r1")
	b := testClient("c2", "r1")
	hub.add(a)
	hub.add(b)

	hub.Broadcast("r1", models.EventUndo, models.UndoPayload{StrokeID: "s1"}, "")

	for _, c := range []*Client{a, b} {
		env := received(t, c)
		if env == nil || env.Event != models.EventUndo {
			t.Fatalf("session %s missed the undo broadcast: %+v", c.ID, env)
		}
	}
}

func TestBroadcastStaysInRoom(t *testing.T) {
	hub := NewHub()
	inside := testClient("c1", "r1")
	outside := testClient("c2", "r2")
	hub.add(inside)
	hub.add(outside)

	hub.Broadcast("r1", models.EventClear, nil, "")

	if env := received(t, inside); env == nil || env.Event != models.EventClear {
		t.Fatalf("room member missed the broadcast: %+v", env)
	}
	if env := received(t, outside); env != nil {
		t.Fatalf("broadcast leaked across rooms: %s", env.Event)
	}
}

func TestBroadcastFullBufferDropsFrame(t *testing.T) {
	hub := NewHub()
	slow := &Client{ID: "c1", RoomID: "r1", Send: make(chan []byte)}
	hub.add(slow)

	// Unbuffered channel with no reader: the send must not block.
	hub.Broadcast("r1", models.EventUserCount, models.UserCountPayload{Count: 1}, "")
}

func TestRemoveDropsEmptyRoom(t *testing.T) {
	hub := NewHub()
	c := testClient("c1", "r1")
	hub.add(c)
	hub.remove(c)

	if _, ok := hub.rooms["r1"]; ok {
		t.Fatalf("empty room must be dropped from the hub")
	}
}
