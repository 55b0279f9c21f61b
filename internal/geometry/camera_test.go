package geometry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScreenWorldRoundTrip(t *testing.T) {
	v := &View{
		Camera:   Camera{X: 37, Y: -12, Scale: 1.7},
		Viewport: Viewport{OriginX: 20, OriginY: 55, Width: 800, Height: 600},
	}

	w := v.ScreenToWorld(300, 200)
	s := v.WorldToScreen(w.X, w.Y)
	assert.InDelta(t, 300, s.X, 1e-9)
	assert.InDelta(t, 200, s.Y, 1e-9)

	// Matrix agrees with the closed-form conversion on surface-local coords.
	local := v.Local(300, 200)
	mx, my := v.Matrix().Invert().TransformPoint(local.X, local.Y)
	assert.InDelta(t, w.X, mx, 1e-9)
	assert.InDelta(t, w.Y, my, 1e-9)
}

func TestZoomAtKeepsWorldPointFixed(t *testing.T) {
	tests := []struct {
		name   string
		camera Camera
		sx, sy float64
		factor float64
	}{
		{"zoom in", Camera{X: 0, Y: 0, Scale: 1}, 400, 300, 1.1},
		{"zoom out", Camera{X: 120, Y: -40, Scale: 2}, 10, 580, 0.9},
		{"pinch small step", Camera{X: -300, Y: 200, Scale: 0.5}, 250, 250, 1.0137},
		{"clamped at max", Camera{X: 5, Y: 5, Scale: 4.9}, 100, 100, 3},
		{"clamped at min", Camera{X: 5, Y: 5, Scale: 0.12}, 640, 20, 0.2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := &View{Camera: tt.camera, Viewport: Viewport{OriginX: 15, OriginY: 30, Width: 800, Height: 600}}
			before := v.ScreenToWorld(tt.sx, tt.sy)

			v.ZoomAt(tt.sx, tt.sy, tt.factor)

			after := v.ScreenToWorld(tt.sx, tt.sy)
			assert.InDelta(t, before.X, after.X, 1e-9)
			assert.InDelta(t, before.Y, after.Y, 1e-9)
			assert.GreaterOrEqual(t, v.Camera.Scale, MinScale)
			assert.LessOrEqual(t, v.Camera.Scale, MaxScale)
		})
	}
}

func TestZoomAtNoChangeAtLimit(t *testing.T) {
	v := &View{Camera: Camera{X: 10, Y: 20, Scale: MaxScale}}
	assert.False(t, v.ZoomAt(50, 50, 1.1))
	assert.Equal(t, Camera{X: 10, Y: 20, Scale: MaxScale}, v.Camera)
}

func TestPinchRebasesEveryMove(t *testing.T) {
	var p Pinch
	p.Begin(Point{X: 0, Y: 0}, Point{X: 100, Y: 0})

	_, s1, ok := p.Move(Point{X: 0, Y: 0}, Point{X: 120, Y: 0})
	require.True(t, ok)
	assert.InDelta(t, 1.2, s1, 1e-12)

	center, s2, ok := p.Move(Point{X: 0, Y: 0}, Point{X: 150, Y: 0})
	require.True(t, ok)
	assert.InDelta(t, 1.25, s2, 1e-12)
	assert.Equal(t, Point{X: 75, Y: 0}, center)

	_, _, ok = p.Move(Point{X: 0, Y: 0}, Point{X: 150, Y: 0})
	assert.False(t, ok, "unchanged distance is not a zoom")
}

func TestPinchIgnoresCoincidentFingers(t *testing.T) {
	var p Pinch
	p.Begin(Point{X: 5, Y: 5}, Point{X: 5, Y: 5})
	_, _, ok := p.Move(Point{X: 0, Y: 0}, Point{X: 10, Y: 0})
	assert.False(t, ok)
	_, s, ok := p.Move(Point{X: 0, Y: 0}, Point{X: 20, Y: 0})
	require.True(t, ok)
	assert.InDelta(t, 2, s, 1e-12)
}

func TestDistanceToSegment(t *testing.T) {
	a := Point{X: 0, Y: 0}
	b := Point{X: 10, Y: 0}

	assert.InDelta(t, 3, DistanceToSegment(Point{X: 5, Y: 3}, a, b), 1e-12)
	assert.InDelta(t, 5, DistanceToSegment(Point{X: -3, Y: 4}, a, b), 1e-12, "clamped to a")
	assert.InDelta(t, 5, DistanceToSegment(Point{X: 13, Y: -4}, a, b), 1e-12, "clamped to b")
	assert.InDelta(t, 5, DistanceToSegment(Point{X: 3, Y: 4}, a, a), 1e-12, "degenerate segment")
}

func TestCenterOnClampsScale(t *testing.T) {
	v := &View{Camera: Camera{Scale: 0.3}, Viewport: Viewport{Width: 800, Height: 600}}
	c := v.CenterOn(Point{X: 100, Y: 50})
	assert.Equal(t, 1.0, c.Scale)
	assert.Equal(t, 300.0, c.X)
	assert.Equal(t, 250.0, c.Y)

	v.Camera.Scale = 4
	assert.Equal(t, 2.0, v.CenterOn(Point{}).Scale)
}

func TestTween(t *testing.T) {
	tw := Tween{
		From:     Camera{X: 0, Y: 0, Scale: 1},
		To:       Camera{X: 100, Y: -100, Scale: 2},
		Start:    time.Second,
		Duration: time.Second,
	}

	c, done := tw.At(time.Second + 500*time.Millisecond)
	assert.False(t, done)
	assert.InDelta(t, 50, c.X, 1e-9)
	assert.InDelta(t, 1.5, c.Scale, 1e-9)

	c, done = tw.At(3 * time.Second)
	assert.True(t, done)
	assert.Equal(t, tw.To, c)
}

func TestVisibleWorldRect(t *testing.T) {
	v := &View{Camera: Camera{X: -100, Y: 50, Scale: 2}, Viewport: Viewport{Width: 800, Height: 600}}
	r := v.VisibleWorldRect()
	assert.Equal(t, Rect{X: 50, Y: -25, Width: 400, Height: 300}, r)
}
