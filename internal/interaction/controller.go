// Package interaction turns raw mouse, touch and wheel input into node drags,
// camera pans and zooms, selection changes and tap/double-tap notifications.
package interaction

import (
	"time"

	"github.com/kinfolk/kinfolk/internal/geometry"
	"github.com/kinfolk/kinfolk/internal/scene"
)

type State int

const (
	Idle State = iota
	PressArmed
	DraggingNode
	Panning
	Pinching
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case PressArmed:
		return "press-armed"
	case DraggingNode:
		return "dragging-node"
	case Panning:
		return "panning"
	case Pinching:
		return "pinching"
	default:
		return "unknown"
	}
}

// Scene is what the controller reads and mutates. Points are in world units.
type Scene interface {
	NodeAt(p geometry.Point) (string, bool)
	NodePosition(id string) (geometry.Point, bool)
	MoveNode(id string, p geometry.Point)
	ConnectionAt(p geometry.Point) (scene.Connection, bool)
}

// Config holds gesture thresholds.
type Config struct {
	MouseDragThreshold float64
	TouchDragThreshold float64
	DoubleTapDelay     time.Duration
	DoubleTapDistance  float64
	WheelZoomIn        float64
	WheelZoomOut       float64
}

func DefaultConfig() Config {
	return Config{
		MouseDragThreshold: 5,
		TouchDragThreshold: 8,
		DoubleTapDelay:     300 * time.Millisecond,
		DoubleTapDistance:  50,
		WheelZoomIn:        1.1,
		WheelZoomOut:       0.9,
	}
}

// pendingTap is a single tap on a node waiting out the double-tap window.
type pendingTap struct {
	id        string
	at        geometry.Point
	pressedAt time.Duration
	deadline  time.Duration
}

// Controller is the gesture state machine. It is not safe for concurrent use;
// every method is expected to run on the event loop.
type Controller struct {
	Events Events

	scene      Scene
	view       *geometry.View
	cfg        Config
	invalidate func()
	selection  *Selection

	state      State
	kind       PointerKind
	press      geometry.Point
	pressedAt  time.Duration
	last       geometry.Point
	target     string
	dragOffset geometry.Point
	dragFrom   geometry.Point
	suppressUp bool

	pending *pendingTap
	pinch   geometry.Pinch
	hovered string
}

// NewController wires a controller to a scene and the shared view. invalidate
// is called whenever something visible changes; it may be nil.
func NewController(sc Scene, view *geometry.View, cfg Config, invalidate func()) *Controller {
	if invalidate == nil {
		invalidate = func() {}
	}
	return &Controller{
		scene:      sc,
		view:       view,
		cfg:        cfg,
		invalidate: invalidate,
		selection:  NewSelection(),
	}
}

func (c *Controller) State() State { return c.state }

func (c *Controller) Selection() *Selection { return c.selection }

// Hovered returns the node under an idle mouse, or "".
func (c *Controller) Hovered() string { return c.hovered }

// DraggedNode returns the node being dragged, or "".
func (c *Controller) DraggedNode() string {
	if c.state == DraggingNode {
		return c.target
	}
	return ""
}

// HasPendingTap reports whether a single tap is waiting for the double-tap
// window to close.
func (c *Controller) HasPendingTap() bool { return c.pending != nil }

func (c *Controller) threshold() float64 {
	if c.kind == Touch {
		return c.cfg.TouchDragThreshold
	}
	return c.cfg.MouseDragThreshold
}

// PointerDown handles a primary-button press.
func (c *Controller) PointerDown(e PointerEvent) {
	if e.Button != 0 {
		return
	}
	c.beginPress(Mouse, geometry.Point{X: e.X, Y: e.Y}, e.Time)
}

// PointerMove handles mouse movement, pressed or not.
func (c *Controller) PointerMove(e PointerEvent) {
	p := geometry.Point{X: e.X, Y: e.Y}
	if c.state == Idle {
		c.updateHover(p)
		return
	}
	if c.kind != Mouse {
		return
	}
	c.movePress(p)
}

// PointerUp handles the primary-button release.
func (c *Controller) PointerUp(e PointerEvent) {
	if e.Button != 0 || c.kind != Mouse {
		return
	}
	c.release(geometry.Point{X: e.X, Y: e.Y}, e.Time)
}

// PointerLeave drops the hover highlight.
func (c *Controller) PointerLeave() {
	c.setHover("")
}

// TouchStart handles new fingers. Two or more fingers always pinch.
func (c *Controller) TouchStart(e TouchEvent) {
	switch n := len(e.Touches); {
	case n == 0:
		return
	case n >= 2:
		c.enterPinch(e.Touches[0].point(), e.Touches[1].point())
	case c.state == Idle:
		c.beginPress(Touch, e.Touches[0].point(), e.Time)
	}
}

// TouchMove handles finger movement.
func (c *Controller) TouchMove(e TouchEvent) {
	switch n := len(e.Touches); {
	case n == 0:
		return
	case c.state == Pinching:
		if n < 2 {
			return
		}
		center, change, ok := c.pinch.Move(e.Touches[0].point(), e.Touches[1].point())
		if ok && c.view.ZoomAt(center.X, center.Y, change) {
			c.invalidate()
		}
	case n == 1 && c.kind == Touch && c.state != Idle:
		c.movePress(e.Touches[0].point())
	}
}

// TouchEnd handles lifted fingers; e.Touches lists the ones still down.
func (c *Controller) TouchEnd(e TouchEvent) {
	n := len(e.Touches)
	if c.state == Pinching {
		switch {
		case n >= 2:
			c.pinch.Begin(e.Touches[0].point(), e.Touches[1].point())
		case n == 1:
			c.pinch.End()
			c.kind = Touch
			c.state = Panning
			c.last = e.Touches[0].point()
			c.emitView()
		default:
			c.pinch.End()
			c.state = Idle
			c.emitView()
		}
		return
	}
	if n == 0 && c.kind == Touch && c.state != Idle {
		c.release(c.last, e.Time)
	}
}

// Wheel zooms around the cursor.
func (c *Controller) Wheel(e WheelEvent) {
	if e.DeltaY == 0 || !c.view.InSurface(e.X, e.Y) {
		return
	}
	factor := c.cfg.WheelZoomIn
	if e.DeltaY > 0 {
		factor = c.cfg.WheelZoomOut
	}
	if c.view.ZoomAt(e.X, e.Y, factor) {
		c.invalidate()
		c.emitView()
	}
}

// Tick commits a pending single tap once its double-tap window has passed.
func (c *Controller) Tick(now time.Duration) {
	if c.pending == nil {
		return
	}
	if c.state != Idle && c.state != PressArmed {
		return
	}
	if now >= c.pending.deadline {
		c.commitPending()
	}
}

func (c *Controller) beginPress(kind PointerKind, p geometry.Point, at time.Duration) {
	if c.state != Idle || !c.view.InSurface(p.X, p.Y) {
		return
	}
	world := c.view.ScreenToWorld(p.X, p.Y)
	hit, onNode := c.scene.NodeAt(world)

	c.kind = kind
	c.press = p
	c.last = p
	c.pressedAt = at
	c.suppressUp = false
	c.target = ""
	c.state = PressArmed

	// A second press on the same node inside the window is a double tap. Any
	// other press leaves the pending tap to Tick, the next tap, or a drag.
	if pt := c.pending; pt != nil && onNode && hit == pt.id &&
		at-pt.pressedAt < c.cfg.DoubleTapDelay &&
		p.Dist(pt.at) < c.cfg.DoubleTapDistance {
		c.pending = nil
		c.suppressUp = true
		c.clearSelection()
		c.Events.NodeDoubleClicked.Emit(NodeEvent{ID: hit})
	}

	if onNode {
		c.target = hit
		if pos, ok := c.scene.NodePosition(hit); ok {
			c.dragOffset = world.Sub(pos)
			c.dragFrom = pos
		}
	}
}

func (c *Controller) movePress(p geometry.Point) {
	switch c.state {
	case PressArmed:
		if p.Dist(c.press) <= c.threshold() {
			c.last = p
			return
		}
		c.pending = nil
		if c.target != "" {
			if _, ok := c.scene.NodePosition(c.target); !ok {
				c.reset()
				return
			}
			c.state = DraggingNode
			c.dragTo(p)
		} else {
			c.state = Panning
			c.view.Pan(p.X-c.press.X, p.Y-c.press.Y)
			c.invalidate()
		}
	case DraggingNode:
		c.dragTo(p)
	case Panning:
		c.view.Pan(p.X-c.last.X, p.Y-c.last.Y)
		c.invalidate()
	}
	c.last = p
}

func (c *Controller) dragTo(p geometry.Point) {
	world := c.view.ScreenToWorld(p.X, p.Y)
	c.scene.MoveNode(c.target, world.Sub(c.dragOffset))
	c.invalidate()
}

func (c *Controller) release(p geometry.Point, at time.Duration) {
	switch c.state {
	case PressArmed:
		if !c.suppressUp {
			c.tap(p, at)
		}
	case DraggingNode:
		c.endDrag()
	case Panning:
		c.emitView()
	}
	c.state = Idle
	c.target = ""
	c.suppressUp = false
}

func (c *Controller) tap(p geometry.Point, at time.Duration) {
	c.commitPending()
	if c.target != "" {
		c.pending = &pendingTap{
			id:        c.target,
			at:        c.press,
			pressedAt: c.pressedAt,
			deadline:  at + c.cfg.DoubleTapDelay,
		}
		// A press held past the window can never become a double tap.
		if at-c.pressedAt >= c.cfg.DoubleTapDelay {
			c.commitPending()
		}
		return
	}

	world := c.view.ScreenToWorld(p.X, p.Y)
	if conn, ok := c.scene.ConnectionAt(world); ok {
		c.Events.ConnectionClicked.Emit(ConnectionEvent{Connection: conn})
		return
	}
	c.clearSelection()
}

func (c *Controller) commitPending() {
	pt := c.pending
	c.pending = nil
	if pt == nil {
		return
	}
	if _, ok := c.scene.NodePosition(pt.id); !ok {
		return
	}
	c.selection.Toggle(pt.id)
	c.invalidate()
	c.Events.NodeClicked.Emit(NodeEvent{ID: pt.id})
	c.Events.SelectionChanged.Emit(SelectionEvent{IDs: c.selection.IDs()})
}

func (c *Controller) clearSelection() {
	c.selection.Clear()
	c.invalidate()
	c.Events.SelectionCleared.Emit(SelectionEvent{})
	c.Events.SelectionChanged.Emit(SelectionEvent{})
}

func (c *Controller) endDrag() {
	to, ok := c.scene.NodePosition(c.target)
	if !ok {
		return
	}
	c.Events.NodeDragEnded.Emit(DragEvent{ID: c.target, From: c.dragFrom, To: to})
}

// enterPinch cancels whatever single-finger gesture was running. A drag in
// progress keeps its moved position and is reported as ended.
func (c *Controller) enterPinch(a, b geometry.Point) {
	if c.state == DraggingNode {
		c.endDrag()
	}
	c.pending = nil
	c.target = ""
	c.suppressUp = false
	c.kind = Touch
	c.state = Pinching
	c.pinch.Begin(a, b)
}

func (c *Controller) updateHover(p geometry.Point) {
	if !c.view.InSurface(p.X, p.Y) {
		c.setHover("")
		return
	}
	id, _ := c.scene.NodeAt(c.view.ScreenToWorld(p.X, p.Y))
	c.setHover(id)
}

func (c *Controller) setHover(id string) {
	if id == c.hovered {
		return
	}
	c.hovered = id
	c.invalidate()
	c.Events.HoverChanged.Emit(NodeEvent{ID: id})
}

func (c *Controller) emitView() {
	c.Events.ViewChanged.Emit(ViewEvent{Camera: c.view.Camera})
}

// Forget drops every reference to a deleted person: selection, hover, a
// pending tap and any gesture targeting it.
func (c *Controller) Forget(id string) {
	c.selection.Remove(id)
	if c.hovered == id {
		c.hovered = ""
	}
	if c.pending != nil && c.pending.id == id {
		c.pending = nil
	}
	if c.target == id && (c.state == PressArmed || c.state == DraggingNode) {
		c.reset()
	}
}

// Cancel abandons the current gesture without emitting anything.
func (c *Controller) Cancel() {
	c.pending = nil
	c.pinch.End()
	c.reset()
}

func (c *Controller) reset() {
	c.state = Idle
	c.target = ""
	c.suppressUp = false
}
