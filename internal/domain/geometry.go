package domain

import "math"

// Geometry and predicate helpers used by ROI filter and function nodes.
// All functions are pure and side-effect free. Every division is
// guarded: a zero denominator yields 0 rather than NaN or Inf, so a
// degenerate box can never poison a comparison downstream.

// PointInPolygon reports whether p lies inside the closed polygon using
// the standard ray-casting (even-odd) test. The polygon is given as an
// ordered vertex list; the closing edge from the last vertex back to
// the first is implicit. Polygons with fewer than three vertices
// contain nothing.
//
// Points exactly on a polygon edge may be classified either way, which
// is acceptable for detection filtering where coordinates come from
// floating-point box centers.
func PointInPolygon(p Point, polygon []Point) bool {
	if len(polygon) < 3 {
		return false
	}
	inside := false
	j := len(polygon) - 1
	for i := 0; i < len(polygon); i++ {
		pi, pj := polygon[i], polygon[j]
		intersects := (pi.Y > p.Y) != (pj.Y > p.Y) &&
			p.X < (pj.X-pi.X)*(p.Y-pi.Y)/(pj.Y-pi.Y)+pi.X
		if intersects {
			inside = !inside
		}
		j = i
	}
	return inside
}

// BoxWidth returns the horizontal extent of the box.
// Boxes with inverted corners have zero extent.
func BoxWidth(b BoundingBox) float64 {
	if b.X2 <= b.X1 {
		return 0
	}
	return b.X2 - b.X1
}

// BoxHeight returns the vertical extent of the box.
// Boxes with inverted corners have zero extent.
func BoxHeight(b BoundingBox) float64 {
	if b.Y2 <= b.Y1 {
		return 0
	}
	return b.Y2 - b.Y1
}

// BoxArea returns the area of the box. Degenerate boxes have zero area.
func BoxArea(b BoundingBox) float64 {
	return BoxWidth(b) * BoxHeight(b)
}

// BoxCenter returns the box's center point. It is defined even for
// degenerate boxes.
func BoxCenter(b BoundingBox) Point {
	return Point{X: (b.X1 + b.X2) / 2, Y: (b.Y1 + b.Y2) / 2}
}

// MinMaxRatio returns min(a,b)/max(a,b), a symmetric similarity ratio
// in [0,1]. It returns 0 when the larger value is 0 or either value is
// negative.
func MinMaxRatio(a, b float64) float64 {
	if a < 0 || b < 0 {
		return 0
	}
	hi := math.Max(a, b)
	if hi == 0 {
		return 0
	}
	return math.Min(a, b) / hi
}

// DirectedRatio returns a/b, or 0 when b is 0.
func DirectedRatio(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}

// AreaRatio returns the symmetric ratio of the two boxes' areas.
func AreaRatio(a, b BoundingBox) float64 {
	return MinMaxRatio(BoxArea(a), BoxArea(b))
}

// HeightRatio returns the symmetric ratio of the two boxes' heights.
func HeightRatio(a, b BoundingBox) float64 {
	return MinMaxRatio(BoxHeight(a), BoxHeight(b))
}

// WidthRatio returns the symmetric ratio of the two boxes' widths.
func WidthRatio(a, b BoundingBox) float64 {
	return MinMaxRatio(BoxWidth(a), BoxWidth(b))
}

// IOU returns the intersection-over-union (Jaccard overlap) of two
// boxes. Non-overlapping boxes score 0; identical non-degenerate boxes
// score 1. Two degenerate boxes have an empty union and score 0.
func IOU(a, b BoundingBox) float64 {
	ix1 := math.Max(a.X1, b.X1)
	iy1 := math.Max(a.Y1, b.Y1)
	ix2 := math.Min(a.X2, b.X2)
	iy2 := math.Min(a.Y2, b.Y2)
	inter := BoxArea(BoundingBox{X1: ix1, Y1: iy1, X2: ix2, Y2: iy2})
	union := BoxArea(a) + BoxArea(b) - inter
	if union == 0 {
		return 0
	}
	return inter / union
}

// CentroidDistance returns the Euclidean distance between the two
// boxes' center points, in the boxes' own coordinate space.
func CentroidDistance(a, b BoundingBox) float64 {
	ca, cb := BoxCenter(a), BoxCenter(b)
	return math.Hypot(ca.X-cb.X, ca.Y-cb.Y)
}

// HeightRatioFrame returns the box height as a fraction of the frame
// height, or 0 when the frame height is 0.
func HeightRatioFrame(b BoundingBox, frameHeight float64) float64 {
	return DirectedRatio(BoxHeight(b), frameHeight)
}

// WidthRatioFrame returns the box width as a fraction of the frame
// width, or 0 when the frame width is 0.
func WidthRatioFrame(b BoundingBox, frameWidth float64) float64 {
	return DirectedRatio(BoxWidth(b), frameWidth)
}

// AreaRatioFrame returns the box area as a fraction of the frame area,
// or 0 when the frame has no area.
func AreaRatioFrame(b BoundingBox, frameWidth, frameHeight float64) float64 {
	return DirectedRatio(BoxArea(b), frameWidth*frameHeight)
}

// SizeAbsolute returns the box area in squared pixels. It exists so
// function nodes can compare absolute object size against a threshold
// through the same metric dispatch as the relative variants.
func SizeAbsolute(b BoundingBox) float64 {
	return BoxArea(b)
}
