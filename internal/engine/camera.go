package engine

import (
	"time"

	"github.com/kinfolk/kinfolk/internal/geometry"
)

// SetViewport records where the render surface sits on screen and how big
// it is. The host calls it on load and on every resize.
func (e *Engine) SetViewport(vp geometry.Viewport) {
	if e.view.Viewport == vp {
		return
	}
	e.view.Viewport = vp
	e.loop.Invalidate()
}

func (e *Engine) Viewport() geometry.Viewport {
	return e.view.Viewport
}

func (e *Engine) Camera() geometry.Camera {
	return e.view.Camera
}

// SetCamera jumps to c, clamping its scale. A running animation is dropped.
func (e *Engine) SetCamera(c geometry.Camera) {
	e.tween = nil
	e.view.Camera = c.Normalized()
	e.loop.Invalidate()
	e.persist()
}

// ResetCamera returns to the unpanned, unzoomed view.
func (e *Engine) ResetCamera() {
	e.SetCamera(geometry.DefaultCamera())
}

// ScreenToWorld converts a client point into world coordinates.
func (e *Engine) ScreenToWorld(sx, sy float64) geometry.Point {
	return e.view.ScreenToWorld(sx, sy)
}

// CenterOn animates the camera so the given persons' centroid ends up in the
// middle of the viewport. It reports false when none of the ids exist.
func (e *Engine) CenterOn(ids ...string) bool {
	var sum geometry.Point
	n := 0
	for _, id := range ids {
		p, ok := e.store.Get(id)
		if !ok {
			continue
		}
		sum.X += p.X
		sum.Y += p.Y
		n++
	}
	if n == 0 {
		return false
	}
	target := e.view.CenterOn(geometry.Point{X: sum.X / float64(n), Y: sum.Y / float64(n)})

	if e.opts.CenterDuration <= 0 {
		e.SetCamera(target)
		return true
	}
	e.tween = &geometry.Tween{From: e.view.Camera, To: target, Duration: e.opts.CenterDuration}
	e.tweenStarted = false
	e.loop.Invalidate()
	return true
}

// Animating reports whether a camera animation is running.
func (e *Engine) Animating() bool {
	return e.tween != nil
}

// stepTween advances the camera animation. The clock starts on the first
// tick after CenterOn.
func (e *Engine) stepTween(now time.Duration) {
	if e.tween == nil {
		return
	}
	if !e.tweenStarted {
		e.tween.Start = now
		e.tweenStarted = true
	}
	cam, done := e.tween.At(now)
	e.view.Camera = cam
	e.loop.Invalidate()
	if done {
		e.tween = nil
		e.persist()
	}
}

func (e *Engine) cancelTween() {
	e.tween = nil
}
