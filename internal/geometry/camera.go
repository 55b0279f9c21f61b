package geometry

import (
	"math"
	"time"
)

const (
	MinScale = 0.1
	MaxScale = 5.0
)

// Camera is the pan offset (screen pixels) and uniform zoom of the canvas.
type Camera struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Scale float64 `json:"scale"`
}

// DefaultCamera returns an unpanned, unzoomed camera.
func DefaultCamera() Camera {
	return Camera{X: 0, Y: 0, Scale: 1}
}

// Normalized returns the camera with its scale clamped into [MinScale, MaxScale].
// A zero or NaN scale (missing from a loaded document) becomes 1.
func (c Camera) Normalized() Camera {
	if c.Scale == 0 || math.IsNaN(c.Scale) {
		c.Scale = 1
	}
	c.Scale = ClampScale(c.Scale)
	return c
}

// ClampScale clamps s into [MinScale, MaxScale].
func ClampScale(s float64) float64 {
	return math.Max(MinScale, math.Min(MaxScale, s))
}

// Viewport is the on-screen rectangle of the render surface. OriginX/OriginY
// is the surface's top-left in client coordinates.
type Viewport struct {
	OriginX float64 `json:"originX"`
	OriginY float64 `json:"originY"`
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
}

// View combines the camera with the viewport it projects onto.
type View struct {
	Camera   Camera
	Viewport Viewport
}

// NewView returns a view with the default camera and an empty viewport.
func NewView() *View {
	return &View{Camera: DefaultCamera()}
}

// Local converts client coordinates into surface-relative coordinates.
func (v *View) Local(sx, sy float64) Point {
	return Point{X: sx - v.Viewport.OriginX, Y: sy - v.Viewport.OriginY}
}

// InSurface reports whether the client point lies on the render surface.
// With an unknown (zero) surface size every point is accepted.
func (v *View) InSurface(sx, sy float64) bool {
	if v.Viewport.Width <= 0 || v.Viewport.Height <= 0 {
		return true
	}
	p := v.Local(sx, sy)
	return p.X >= 0 && p.Y >= 0 && p.X <= v.Viewport.Width && p.Y <= v.Viewport.Height
}

// ScreenToWorld converts client coordinates to world coordinates.
func (v *View) ScreenToWorld(sx, sy float64) Point {
	return Point{
		X: (sx - v.Viewport.OriginX - v.Camera.X) / v.Camera.Scale,
		Y: (sy - v.Viewport.OriginY - v.Camera.Y) / v.Camera.Scale,
	}
}

// WorldToScreen converts world coordinates to client coordinates.
func (v *View) WorldToScreen(x, y float64) Point {
	return Point{
		X: x*v.Camera.Scale + v.Camera.X + v.Viewport.OriginX,
		Y: y*v.Camera.Scale + v.Camera.Y + v.Viewport.OriginY,
	}
}

// Matrix returns the world to surface-local transform.
func (v *View) Matrix() Matrix2D {
	return Translate(v.Camera.X, v.Camera.Y).Multiply(Scale(v.Camera.Scale, v.Camera.Scale))
}

// Pan moves the camera by a screen-space delta.
func (v *View) Pan(dx, dy float64) {
	v.Camera.X += dx
	v.Camera.Y += dy
}

// ZoomAt multiplies the scale by factor, keeping the world point under the
// client point (sx, sy) fixed. It reports whether the scale changed.
func (v *View) ZoomAt(sx, sy, factor float64) bool {
	oldScale := v.Camera.Scale
	newScale := ClampScale(oldScale * factor)
	if newScale == oldScale {
		return false
	}

	p := v.Local(sx, sy)
	f := newScale / oldScale
	v.Camera.X = p.X - f*(p.X-v.Camera.X)
	v.Camera.Y = p.Y - f*(p.Y-v.Camera.Y)
	v.Camera.Scale = newScale
	return true
}

// VisibleWorldRect returns the world-space rectangle currently on screen.
func (v *View) VisibleWorldRect() Rect {
	s := v.Camera.Scale
	return Rect{
		X:      -v.Camera.X / s,
		Y:      -v.Camera.Y / s,
		Width:  v.Viewport.Width / s,
		Height: v.Viewport.Height / s,
	}
}

// CenterOn returns the camera that puts world point p at the middle of the
// viewport. Extreme zoom levels are pulled back to a comfortable range.
func (v *View) CenterOn(p Point) Camera {
	scale := v.Camera.Scale
	if scale < 0.8 {
		scale = 1.0
	} else if scale > 3.0 {
		scale = 2.0
	}
	return Camera{
		X:     v.Viewport.Width/2 - p.X*scale,
		Y:     v.Viewport.Height/2 - p.Y*scale,
		Scale: scale,
	}
}

// Pinch tracks a two-finger zoom gesture. The baseline distance is re-based on
// every move so long gestures do not drift or snap.
type Pinch struct {
	active   bool
	lastDist float64
}

// Begin starts a gesture with the two finger positions.
func (p *Pinch) Begin(a, b Point) {
	p.active = true
	p.lastDist = a.Dist(b)
}

// Active reports whether a gesture is in progress.
func (p *Pinch) Active() bool { return p.active }

// End stops the gesture.
func (p *Pinch) End() {
	p.active = false
	p.lastDist = 0
}

// Move returns the midpoint of the fingers and the scale change since the last
// move. ok is false when there is nothing to apply.
func (p *Pinch) Move(a, b Point) (center Point, scaleChange float64, ok bool) {
	if !p.active {
		return Point{}, 1, false
	}
	dist := a.Dist(b)
	if p.lastDist <= 0 || dist <= 0 {
		p.lastDist = dist
		return Point{}, 1, false
	}

	scaleChange = dist / p.lastDist
	p.lastDist = dist
	if scaleChange == 1 {
		return Point{}, 1, false
	}
	return Midpoint(a, b), scaleChange, true
}

// Tween animates the camera between two states.
type Tween struct {
	From     Camera
	To       Camera
	Start    time.Duration
	Duration time.Duration
}

// At returns the camera at time now and whether the animation has finished.
func (t Tween) At(now time.Duration) (Camera, bool) {
	if t.Duration <= 0 || now >= t.Start+t.Duration {
		return t.To, true
	}
	progress := float64(now-t.Start) / float64(t.Duration)
	if progress < 0 {
		progress = 0
	}
	e := EaseInOutCubic(progress)
	return Camera{
		X:     t.From.X + (t.To.X-t.From.X)*e,
		Y:     t.From.Y + (t.To.Y-t.From.Y)*e,
		Scale: t.From.Scale + (t.To.Scale-t.From.Scale)*e,
	}, false
}

// EaseInOutCubic maps [0,1] onto [0,1] with slow ends.
func EaseInOutCubic(p float64) float64 {
	if p < 0.5 {
		return 4 * p * p * p
	}
	return 1 - math.Pow(-2*p+2, 3)/2
}
