package contour

import "math"

// Point is a 2D boundary position. Extracted contours carry whole-pixel
// coordinates; transformed contours may be fractional.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Contour is an ordered closed boundary curve. The closing edge from the
// last point back to the first is implicit.
//
// Consecutive points of an extracted contour are 8-adjacent pixels. A point
// is not repeated except where the traced region has a neck one pixel wide:
// the boundary crosses such a neck out and back, visiting its pixels twice
// without the curve crossing itself.
type Contour []Point

// Len returns the number of points.
func (c Contour) Len() int {
	return len(c)
}

// SignedArea returns the shoelace area. In image coordinates (Y down) a
// boundary walked clockwise on screen has positive area.
func (c Contour) SignedArea() float64 {
	n := len(c)
	if n < 3 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		sum += c[i].X*c[j].Y - c[j].X*c[i].Y
	}
	return sum / 2
}

// Area returns the absolute enclosed area.
func (c Contour) Area() float64 {
	return math.Abs(c.SignedArea())
}

// Perimeter returns the closed length of the contour, including the edge
// from the last point back to the first.
func (c Contour) Perimeter() float64 {
	n := len(c)
	if n < 2 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		sum += math.Hypot(c[j].X-c[i].X, c[j].Y-c[i].Y)
	}
	return sum
}

// Centroid returns the mean of the points.
func (c Contour) Centroid() Point {
	if len(c) == 0 {
		return Point{}
	}
	var sx, sy float64
	for _, p := range c {
		sx += p.X
		sy += p.Y
	}
	n := float64(len(c))
	return Point{X: sx / n, Y: sy / n}
}

// Distinct returns the number of distinct points.
func (c Contour) Distinct() int {
	seen := make(map[Point]struct{}, len(c))
	for _, p := range c {
		seen[p] = struct{}{}
	}
	return len(seen)
}

// Reversed returns a copy walked in the opposite direction, starting from
// the same first point.
func (c Contour) Reversed() Contour {
	out := make(Contour, len(c))
	if len(c) == 0 {
		return out
	}
	out[0] = c[0]
	for i := 1; i < len(c); i++ {
		out[i] = c[len(c)-i]
	}
	return out
}

// Transform returns a copy with every point scaled by k, rotated by theta
// radians about the origin and then shifted by (dx, dy).
func (c Contour) Transform(k, theta, dx, dy float64) Contour {
	sin, cos := math.Sincos(theta)
	out := make(Contour, len(c))
	for i, p := range c {
		x := k * p.X
		y := k * p.Y
		out[i] = Point{
			X: x*cos - y*sin + dx,
			Y: x*sin + y*cos + dy,
		}
	}
	return out
}
