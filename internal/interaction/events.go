package interaction

import (
	"time"

	"github.com/kinfolk/kinfolk/internal/geometry"
	"github.com/kinfolk/kinfolk/internal/scene"
)

type PointerKind int

const (
	Mouse PointerKind = iota
	Touch
)

func (k PointerKind) String() string {
	if k == Touch {
		return "touch"
	}
	return "mouse"
}

// PointerEvent is a mouse event in client coordinates. Time is the event
// timestamp relative to any fixed origin.
type PointerEvent struct {
	X      float64       `json:"x"`
	Y      float64       `json:"y"`
	Button int           `json:"button"`
	Time   time.Duration `json:"-"`
}

// TouchPoint is one finger in client coordinates.
type TouchPoint struct {
	ID int     `json:"id"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
}

// TouchEvent carries the fingers still on the surface after the event.
type TouchEvent struct {
	Touches []TouchPoint  `json:"touches"`
	Time    time.Duration `json:"-"`
}

type WheelEvent struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	DeltaY float64 `json:"deltaY"`
}

func (t TouchPoint) point() geometry.Point {
	return geometry.Point{X: t.X, Y: t.Y}
}

// Outward notifications.

type NodeEvent struct {
	ID string
}

type DragEvent struct {
	ID   string
	From geometry.Point
	To   geometry.Point
}

type ConnectionEvent struct {
	Connection scene.Connection
}

type SelectionEvent struct {
	IDs []string
}

type ViewEvent struct {
	Camera geometry.Camera
}

// Events groups the controller's outward hooks. Each accepts any number of
// subscribers.
type Events struct {
	NodeClicked       Signal[NodeEvent]
	NodeDoubleClicked Signal[NodeEvent]
	NodeDragEnded     Signal[DragEvent]
	SelectionCleared  Signal[SelectionEvent]
	SelectionChanged  Signal[SelectionEvent]
	ConnectionClicked Signal[ConnectionEvent]
	HoverChanged      Signal[NodeEvent]
	ViewChanged       Signal[ViewEvent]
}
