// Package geom provides the bounding-box arithmetic used to decide whether
// safety equipment is present on a detected person. All functions are pure;
// degenerate boxes degrade to "no overlap" rather than returning errors.
package geom

// BoundingBox is an axis-aligned box in pixel coordinates.
// A non-degenerate box has X1 < X2 and Y1 < Y2.
type BoundingBox struct {
	X1, Y1, X2, Y2 float64
}

// Point is a 2-D point in pixel coordinates.
type Point struct {
	X, Y float64
}

// Width returns the box width, clamped at zero for degenerate boxes.
func (b BoundingBox) Width() float64 {
	if b.X2 < b.X1 {
		return 0
	}
	return b.X2 - b.X1
}

// Height returns the box height, clamped at zero for degenerate boxes.
func (b BoundingBox) Height() float64 {
	if b.Y2 < b.Y1 {
		return 0
	}
	return b.Y2 - b.Y1
}

// Area returns the box area. Degenerate boxes have zero area.
func (b BoundingBox) Area() float64 {
	return b.Width() * b.Height()
}

// Valid reports whether the box has positive extent on both axes.
func (b BoundingBox) Valid() bool {
	return b.X2 > b.X1 && b.Y2 > b.Y1
}

// Centroid returns the arithmetic midpoint of the box corners.
func (b BoundingBox) Centroid() Point {
	return Point{
		X: (b.X1 + b.X2) / 2,
		Y: (b.Y1 + b.Y2) / 2,
	}
}

// IoU returns the intersection-over-union of two boxes in [0, 1].
// Returns 0 when the union area is zero, so degenerate boxes never
// report overlap.
func IoU(a, b BoundingBox) float64 {
	interX1 := max(a.X1, b.X1)
	interY1 := max(a.Y1, b.Y1)
	interX2 := min(a.X2, b.X2)
	interY2 := min(a.Y2, b.Y2)

	interArea := max(0, interX2-interX1) * max(0, interY2-interY1)

	unionArea := a.Area() + b.Area() - interArea
	if unionArea <= 0 {
		return 0
	}
	return interArea / unionArea
}

// HeadRegion returns the top topRatio fraction of a person box: same
// x-extent, height exactly topRatio times the source height. A zero-height
// input yields a zero-area region.
func HeadRegion(person BoundingBox, topRatio float64) BoundingBox {
	return BoundingBox{
		X1: person.X1,
		Y1: person.Y1,
		X2: person.X2,
		Y2: person.Y1 + topRatio*person.Height(),
	}
}
