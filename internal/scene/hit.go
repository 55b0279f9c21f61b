package scene

import (
	"github.com/kinfolk/kinfolk/internal/geometry"
)

// DefaultConnectionThreshold is the pick distance for connection lines, in
// screen pixels.
const DefaultConnectionThreshold = 8.0

// NodeAt returns the person whose circle contains the world point. When
// circles overlap the highest z-order wins, then the most recently created.
func (s *Store) NodeAt(p geometry.Point) (string, bool) {
	best := ""
	bestZ := 0
	found := false

	// Creation order ascending, so a later equal-z hit replaces an earlier one.
	for _, id := range s.order {
		n := s.persons[id]
		if n.Radius <= 0 {
			continue
		}
		if p.Dist(geometry.Point{X: n.X, Y: n.Y}) > n.Radius {
			continue
		}
		if !found || n.ZIndex >= bestZ {
			best, bestZ, found = id, n.ZIndex, true
		}
	}
	return best, found
}

// ConnectionAt returns the first connection whose segment passes within
// threshold (world units) of p. Connections with a missing endpoint are
// skipped.
func (s *Store) ConnectionAt(conns []Connection, p geometry.Point, threshold float64) (Connection, bool) {
	for _, c := range conns {
		from, ok := s.persons[c.From]
		if !ok {
			continue
		}
		to, ok := s.persons[c.To]
		if !ok {
			continue
		}
		d := geometry.DistanceToSegment(p,
			geometry.Point{X: from.X, Y: from.Y},
			geometry.Point{X: to.X, Y: to.Y})
		if d <= threshold {
			return c, true
		}
	}
	return Connection{}, false
}

// Bounds returns the world-space box around every person's circle.
func (s *Store) Bounds() geometry.Rect {
	var r geometry.Rect
	for _, id := range s.order {
		n := s.persons[id]
		r = r.Union(geometry.Rect{X: n.X - n.Radius, Y: n.Y - n.Radius, Width: 2 * n.Radius, Height: 2 * n.Radius})
	}
	return r
}
