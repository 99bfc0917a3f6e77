package models

// Tool identifies the drawing tool a stroke was made with.
type Tool string

const (
	ToolPen    Tool = "pen"
	ToolEraser Tool = "eraser"
	ToolRect   Tool = "rect"
	ToolLine   Tool = "line"
	ToolCircle Tool = "circle"
)

// IsShape reports whether the tool draws a parametric shape. Shapes keep at
// most two points: an anchor and a live endpoint. Freehand tools accumulate
// a polyline instead.
func (t Tool) IsShape() bool {
	return t == ToolRect || t == ToolLine || t == ToolCircle
}

// Mode selects the canvas composite operation for a stroke.
type Mode string

const (
	ModeDraw  Mode = "draw"
	ModeErase Mode = "erase"
)

// Point is a single canvas coordinate. Immutable once created.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Stroke is one drawing operation. The id is unique within a room for the
// lifetime of the room's in-memory state; AuthorID is the connection id the
// server assigned to the author.
type Stroke struct {
	ID        string  `json:"id"`
	AuthorID  string  `json:"userId"`
	Tool      Tool    `json:"tool"`
	Color     string  `json:"color"`
	Width     float64 `json:"width"`
	Mode      Mode    `json:"mode"`
	Points    []Point `json:"points"`
	Finalized bool    `json:"finalized,omitempty"`
}

// Clone returns a deep copy; the points slice is never shared.
func (s *Stroke) Clone() *Stroke {
	cp := *s
	cp.Points = make([]Point, len(s.Points))
	copy(cp.Points, s.Points)
	return &cp
}

// RoomState is the durable snapshot payload for a room: the canonical
// ordered stroke log. It must round-trip exactly through the persistence
// gateway.
type RoomState struct {
	Strokes []*Stroke `json:"strokes"`
}

// Clone deep-copies the snapshot so callers can marshal or mutate it
// outside the room lock.
func (rs *RoomState) Clone() *RoomState {
	out := &RoomState{Strokes: make([]*Stroke, len(rs.Strokes))}
	for i, s := range rs.Strokes {
		out.Strokes[i] = s.Clone()
	}
	return out
}
