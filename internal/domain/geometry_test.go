package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPointInPolygon(t *testing.T) {
	square := []Point{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}}
	// An L-shape covering [0,4]x[0,2] plus [0,2]x[2,4]; the notch is
	// the upper-right quadrant.
	lShape := []Point{
		{X: 0, Y: 0}, {X: 4, Y: 0}, {X: 4, Y: 2},
		{X: 2, Y: 2}, {X: 2, Y: 4}, {X: 0, Y: 4},
	}

	tests := []struct {
		name    string
		point   Point
		polygon []Point
		want    bool
	}{
		{"center of square", Point{X: 0.5, Y: 0.5}, square, true},
		{"right of square", Point{X: 1.5, Y: 0.5}, square, false},
		{"above square", Point{X: 0.5, Y: 1.5}, square, false},
		{"inside L arm", Point{X: 1, Y: 3}, lShape, true},
		{"inside L base", Point{X: 3, Y: 1}, lShape, true},
		{"in the L notch", Point{X: 3, Y: 3}, lShape, false},
		{"two vertices contain nothing", Point{X: 0.5, Y: 0.5}, square[:2], false},
		{"empty polygon", Point{X: 0, Y: 0}, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PointInPolygon(tt.point, tt.polygon))
		})
	}
}

func TestBoxExtents(t *testing.T) {
	b := BoundingBox{X1: 10, Y1: 20, X2: 40, Y2: 80}
	assert.Equal(t, 30.0, BoxWidth(b))
	assert.Equal(t, 60.0, BoxHeight(b))
	assert.Equal(t, 1800.0, BoxArea(b))
	assert.Equal(t, Point{X: 25, Y: 50}, BoxCenter(b))
}

func TestBoxExtents_InvertedCorners(t *testing.T) {
	inverted := BoundingBox{X1: 40, Y1: 80, X2: 10, Y2: 20}
	assert.Equal(t, 0.0, BoxWidth(inverted))
	assert.Equal(t, 0.0, BoxHeight(inverted))
	assert.Equal(t, 0.0, BoxArea(inverted))
	// The center stays defined even when the extents collapse.
	assert.Equal(t, Point{X: 25, Y: 50}, BoxCenter(inverted))
}

func TestMinMaxRatio(t *testing.T) {
	tests := []struct {
		name string
		a, b float64
		want float64
	}{
		{"smaller over larger", 50, 100, 0.5},
		{"order independent", 100, 50, 0.5},
		{"equal values", 7, 7, 1},
		{"both zero", 0, 0, 0},
		{"one zero", 0, 10, 0},
		{"negative input", -5, 10, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MinMaxRatio(tt.a, tt.b))
		})
	}
}

func TestDirectedRatio(t *testing.T) {
	assert.Equal(t, 0.25, DirectedRatio(1, 4))
	assert.Equal(t, 4.0, DirectedRatio(4, 1))
	assert.Equal(t, 0.0, DirectedRatio(4, 0))
}

func TestIOU(t *testing.T) {
	tests := []struct {
		name string
		a, b BoundingBox
		want float64
	}{
		{
			name: "identical boxes",
			a:    BoundingBox{X1: 0, Y1: 0, X2: 10, Y2: 10},
			b:    BoundingBox{X1: 0, Y1: 0, X2: 10, Y2: 10},
			want: 1,
		},
		{
			name: "disjoint boxes",
			a:    BoundingBox{X1: 0, Y1: 0, X2: 10, Y2: 10},
			b:    BoundingBox{X1: 20, Y1: 20, X2: 30, Y2: 30},
			want: 0,
		},
		{
			name: "half horizontal overlap",
			a:    BoundingBox{X1: 0, Y1: 0, X2: 10, Y2: 10},
			b:    BoundingBox{X1: 5, Y1: 0, X2: 15, Y2: 10},
			want: 50.0 / 150.0,
		},
		{
			name: "contained box",
			a:    BoundingBox{X1: 0, Y1: 0, X2: 10, Y2: 10},
			b:    BoundingBox{X1: 2, Y1: 2, X2: 7, Y2: 7},
			want: 25.0 / 100.0,
		},
		{
			name: "both degenerate",
			a:    BoundingBox{X1: 5, Y1: 5, X2: 5, Y2: 5},
			b:    BoundingBox{X1: 5, Y1: 5, X2: 5, Y2: 5},
			want: 0,
		},
		{
			name: "touching edges do not overlap",
			a:    BoundingBox{X1: 0, Y1: 0, X2: 10, Y2: 10},
			b:    BoundingBox{X1: 10, Y1: 0, X2: 20, Y2: 10},
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, IOU(tt.a, tt.b), 1e-12)
		})
	}
}

func TestCentroidDistance(t *testing.T) {
	a := BoundingBox{X1: 0, Y1: 0, X2: 10, Y2: 10} // center (5, 5)
	b := BoundingBox{X1: 6, Y1: 8, X2: 16, Y2: 18} // center (11, 13)
	assert.InDelta(t, 10.0, CentroidDistance(a, b), 1e-12)
	assert.InDelta(t, 10.0, CentroidDistance(b, a), 1e-12)
	assert.Equal(t, 0.0, CentroidDistance(a, a))
}

func TestSymmetricBoxRatios(t *testing.T) {
	tall := BoundingBox{X1: 0, Y1: 0, X2: 10, Y2: 100}
	short := BoundingBox{X1: 0, Y1: 0, X2: 20, Y2: 50}

	assert.InDelta(t, 0.5, HeightRatio(tall, short), 1e-12)
	assert.InDelta(t, 0.5, WidthRatio(tall, short), 1e-12)
	assert.InDelta(t, 1.0, AreaRatio(tall, short), 1e-12)
}

func TestFrameRelativeMetrics(t *testing.T) {
	box := BoundingBox{X1: 100, Y1: 100, X2: 580, Y2: 640}

	assert.InDelta(t, 0.5, HeightRatioFrame(box, 1080), 1e-12)
	assert.InDelta(t, 0.25, WidthRatioFrame(box, 1920), 1e-12)
	assert.InDelta(t, (480.0*540.0)/(1920.0*1080.0), AreaRatioFrame(box, 1920, 1080), 1e-12)
	assert.Equal(t, 480.0*540.0, SizeAbsolute(box))
}

func TestFrameRelativeMetrics_ZeroFrame(t *testing.T) {
	box := BoundingBox{X1: 0, Y1: 0, X2: 10, Y2: 10}

	assert.Equal(t, 0.0, HeightRatioFrame(box, 0))
	assert.Equal(t, 0.0, WidthRatioFrame(box, 0))
	assert.Equal(t, 0.0, AreaRatioFrame(box, 0, 1080))
	assert.Equal(t, 0.0, AreaRatioFrame(box, 1920, 0))
}
