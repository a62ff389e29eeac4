package model

import "github.com/nkazantsev/streetdogs/game/geom"

// Road is a single straight road segment, either horizontal or vertical.
// Exactly one of IsHorizontal/IsVertical holds; a road with identical
// endpoints on both axes is treated as horizontal (degenerate but valid).
type Road struct {
	Start geom.Point
	End   geom.Point
}

// IsHorizontal reports whether the road runs along the X axis (constant Y).
func (r Road) IsHorizontal() bool {
	return r.Start.Y == r.End.Y
}

// IsVertical reports whether the road runs along the Y axis (constant X).
func (r Road) IsVertical() bool {
	return r.Start.X == r.End.X && !r.IsHorizontal()
}

// Bounds returns the road's min/max X and min/max Y, independent of
// endpoint order.
func (r Road) Bounds() (minX, maxX, minY, maxY int) {
	minX, maxX = r.Start.X, r.End.X
	if minX > maxX {
		minX, maxX = maxX, minX
	}
	minY, maxY = r.Start.Y, r.End.Y
	if minY > maxY {
		minY, maxY = maxY, minY
	}
	return
}

// Covers returns every integer lattice point the road passes over,
// inclusive of both endpoints, regardless of endpoint order.
func (r Road) Covers() []geom.Point {
	minX, maxX, minY, maxY := r.Bounds()
	var points []geom.Point
	if r.IsHorizontal() {
		for x := minX; x <= maxX; x++ {
			points = append(points, geom.Point{X: x, Y: minY})
		}
		return points
	}
	for y := minY; y <= maxY; y++ {
		points = append(points, geom.Point{X: minX, Y: y})
	}
	return points
}
