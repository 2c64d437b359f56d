// Package zones maps person observations to named polygonal regions of a
// camera's field of view. Zone definitions are loaded once at session start
// and are immutable afterwards.
package zones

import (
	"github.com/ppe-watch/compliance/internal/geom"
)

// Polygon is a named zone: an ordered sequence of at least three vertices
// associated with one camera.
type Polygon struct {
	Name   string       `json:"name"`
	Points [][2]float64 `json:"points"`
}

// Contains reports whether p is strictly inside the polygon. Points on an
// edge or vertex count as outside, so a point can never be assigned to two
// adjacent zones sharing a boundary.
func (z *Polygon) Contains(p geom.Point) bool {
	n := len(z.Points)
	if n < 3 {
		return false
	}

	// Reject boundary points first: on-segment tests are exact for
	// horizontal/vertical edges, which is how zones are usually drawn.
	for i := 0; i < n; i++ {
		a, b := z.Points[i], z.Points[(i+1)%n]
		if onSegment(p, a, b) {
			return false
		}
	}

	// Ray casting: count crossings of a ray extending in +x.
	inside := false
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		xi, yi := z.Points[i][0], z.Points[i][1]
		xj, yj := z.Points[j][0], z.Points[j][1]
		if (yi > p.Y) != (yj > p.Y) {
			xCross := (xj-xi)*(p.Y-yi)/(yj-yi) + xi
			if p.X < xCross {
				inside = !inside
			}
		}
	}
	return inside
}

// onSegment reports whether p lies on the closed segment ab.
func onSegment(p geom.Point, a, b [2]float64) bool {
	cross := (b[0]-a[0])*(p.Y-a[1]) - (b[1]-a[1])*(p.X-a[0])
	if cross != 0 {
		return false
	}
	return p.X >= min(a[0], b[0]) && p.X <= max(a[0], b[0]) &&
		p.Y >= min(a[1], b[1]) && p.Y <= max(a[1], b[1])
}

// Assign returns the name of the first polygon whose interior contains the
// point, preserving configured order. The second return is false when no
// zone contains the point; such observations are excluded from event
// emission by policy.
func Assign(p geom.Point, polygons []Polygon) (string, bool) {
	for i := range polygons {
		if polygons[i].Contains(p) {
			return polygons[i].Name, true
		}
	}
	return "", false
}
