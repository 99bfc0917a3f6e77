package models

import "encoding/json"

// Event names the kind of a websocket message.
type Event string

const (
	EventJoinRoom     Event = "join-room"
	EventInitState    Event = "init-state"
	EventUserCount    Event = "user-count"
	EventBeginStroke  Event = "begin-stroke"
	EventStroke       Event = "stroke"
	EventExtendStroke Event = "extend-stroke"
	EventStrokeExtend Event = "stroke-extend"
	EventEndStroke    Event = "end-stroke"
	EventUndoMy       Event = "undo-my"
	EventUndo         Event = "undo"
	EventRedoMy       Event = "redo-my"
	EventCursor       Event = "cursor"
	EventCursorLeave  Event = "cursor-leave"
	EventClear        Event = "clear"
	EventSave         Event = "save"
	EventSaved        Event = "saved"
	EventLoad         Event = "load"
	EventLoadState    Event = "load-state"
	EventPing         Event = "ping"
	EventPong         Event = "pong"
)

// Envelope is the wire frame for every websocket message. Data holds the
// event-specific payload and is decoded only after the event name is known.
type Envelope struct {
	Event Event           `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Encode marshals an event and its payload into a wire-ready frame.
func Encode(event Event, payload any) ([]byte, error) {
	var data json.RawMessage
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		data = b
	}
	return json.Marshal(Envelope{Event: event, Data: data})
}

// JoinRoomPayload binds a session to a room.
type JoinRoomPayload struct {
	Room string `json:"room"`
	Name string `json:"name,omitempty"`
}

// InitStatePayload is the canonical snapshot sent to a joining session.
type InitStatePayload struct {
	Strokes []*Stroke `json:"strokes"`
	Users   int       `json:"users"`
}

type UserCountPayload struct {
	Count int `json:"count"`
}

type BeginStrokePayload struct {
	Room   string  `json:"room"`
	Stroke *Stroke `json:"stroke"`
}

// ExtendStrokePayload carries one incremental point for an in-progress
// stroke; the same shape is relayed to peers as stroke-extend (room omitted).
type ExtendStrokePayload struct {
	Room  string `json:"room,omitempty"`
	ID    string `json:"id"`
	Point *Point `json:"point"`
}

// EndStrokePayload finalizes a stroke. ID is optional; when absent the
// author's most recent in-progress stroke is finalized.
type EndStrokePayload struct {
	Room string `json:"room"`
	ID   string `json:"id,omitempty"`
}

// RoomPayload is shared by events that only name a room
// (end-stroke fallback, undo-my, clear, save, load).
type RoomPayload struct {
	Room string `json:"room"`
}

// UndoPayload broadcasts which stroke was removed.
type UndoPayload struct {
	StrokeID string `json:"strokeId"`
}

// RedoPayload resubmits a previously undone stroke in full.
type RedoPayload struct {
	Room   string  `json:"room"`
	Stroke *Stroke `json:"stroke"`
}

// CursorPayload is presence state. Clients send room/x/y/color/tool; the
// relay to peers replaces room with the originating session's id and name.
type CursorPayload struct {
	Room  string  `json:"room,omitempty"`
	ID    string  `json:"id,omitempty"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Color string  `json:"color,omitempty"`
	Tool  Tool    `json:"tool,omitempty"`
	Name  string  `json:"name,omitempty"`
}

type CursorLeavePayload struct {
	ID string `json:"id"`
}

type SavedPayload struct {
	OK bool `json:"ok"`
}

type LoadStatePayload struct {
	Strokes []*Stroke `json:"strokes"`
}

// PingPayload is echoed back verbatim as pong.
type PingPayload struct {
	TS int64 `json:"ts"`
}
