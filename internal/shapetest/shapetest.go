// Package shapetest provides synthetic contours and drawings for tests.
//
// Images produced here imitate what the drawing app hands over: black
// strokes of a fixed width on a white (or transparent) square canvas.
package shapetest

import (
	"image"
	"image/color"
	"math"

	"github.com/ironsheep/shape-recognizer/internal/contour"
)

// Circle returns n points evenly spaced on a circle.
func Circle(n int, cx, cy, r float64) contour.Contour {
	c := make(contour.Contour, n)
	for i := 0; i < n; i++ {
		a := 2 * math.Pi * float64(i) / float64(n)
		c[i] = contour.Point{X: cx + r*math.Cos(a), Y: cy + r*math.Sin(a)}
	}
	return c
}

// Polygon returns the vertices of a regular polygon with the given number
// of sides, the first vertex at angle phase.
func Polygon(sides int, cx, cy, r, phase float64) contour.Contour {
	c := make(contour.Contour, sides)
	for i := 0; i < sides; i++ {
		a := phase + 2*math.Pi*float64(i)/float64(sides)
		c[i] = contour.Point{X: cx + r*math.Cos(a), Y: cy + r*math.Sin(a)}
	}
	return c
}

// Square returns an axis-aligned square outline with perSide points on each
// side, starting at the top-left corner.
func Square(x, y, side float64, perSide int) contour.Contour {
	corners := []contour.Point{{X: x, Y: y}, {X: x + side, Y: y}, {X: x + side, Y: y + side}, {X: x, Y: y + side}}
	c := make(contour.Contour, 0, 4*perSide)
	for i := 0; i < 4; i++ {
		a, b := corners[i], corners[(i+1)%4]
		for j := 0; j < perSide; j++ {
			t := float64(j) / float64(perSide)
			c = append(c, contour.Point{X: a.X + t*(b.X-a.X), Y: a.Y + t*(b.Y-a.Y)})
		}
	}
	return c
}

// Wobbly returns a circle whose radius varies by up to amp pixels, the way
// a careful freehand circle does.
func Wobbly(n int, cx, cy, r, amp float64) contour.Contour {
	c := make(contour.Contour, n)
	for i := 0; i < n; i++ {
		a := 2 * math.Pi * float64(i) / float64(n)
		rr := r + amp*math.Sin(3*a+0.4) + 0.5*amp*math.Cos(7*a)
		c[i] = contour.Point{X: cx + rr*math.Cos(a), Y: cy + rr*math.Sin(a)}
	}
	return c
}

// Canvas returns a white size × size RGBA image.
func Canvas(size int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	return img
}

// Arc returns n points along a circular arc starting at angle start and
// turning through sweep radians. Both ends are included.
func Arc(n int, cx, cy, r, start, sweep float64) contour.Contour {
	c := make(contour.Contour, n)
	for i := 0; i < n; i++ {
		a := start + sweep*float64(i)/float64(n-1)
		c[i] = contour.Point{X: cx + r*math.Cos(a), Y: cy + r*math.Sin(a)}
	}
	return c
}

// Stroke paints a closed polyline through pts with the given pen width.
func Stroke(img *image.RGBA, pts contour.Contour, width float64, c color.Color) {
	polyline(img, pts, width, c, true)
}

// OpenStroke paints pts as a single drag gesture: the last point is not
// joined back to the first.
func OpenStroke(img *image.RGBA, pts contour.Contour, width float64, c color.Color) {
	polyline(img, pts, width, c, false)
}

func polyline(img *image.RGBA, pts contour.Contour, width float64, c color.Color, closed bool) {
	if len(pts) == 0 {
		return
	}
	stamp(img, pts[0].X, pts[0].Y, width/2, c)
	for i := range pts {
		if i == len(pts)-1 && !closed {
			break
		}
		a := pts[i]
		b := pts[(i+1)%len(pts)]
		dist := math.Hypot(b.X-a.X, b.Y-a.Y)
		steps := int(math.Ceil(dist)) + 1
		for s := 0; s <= steps; s++ {
			t := float64(s) / float64(steps)
			stamp(img, a.X+t*(b.X-a.X), a.Y+t*(b.Y-a.Y), width/2, c)
		}
	}
}

// stamp fills a disk of radius r centered at (cx, cy).
func stamp(img *image.RGBA, cx, cy, r float64, c color.Color) {
	b := img.Bounds()
	for y := int(cy - r - 1); y <= int(cy+r+1); y++ {
		for x := int(cx - r - 1); x <= int(cx+r+1); x++ {
			if x < b.Min.X || y < b.Min.Y || x >= b.Max.X || y >= b.Max.Y {
				continue
			}
			if math.Hypot(float64(x)+0.5-cx, float64(y)+0.5-cy) <= r {
				img.Set(x, y, c)
			}
		}
	}
}

// Drawn renders pts as the app would: a closed black stroke of width 8 on a
// white size × size canvas.
func Drawn(size int, pts contour.Contour) *image.RGBA {
	img := Canvas(size)
	Stroke(img, pts, 8, color.Black)
	return img
}

// DrawnOpen renders pts as one open 8 px stroke on a white size × size
// canvas, the way the app renders a drag gesture that is not closed.
func DrawnOpen(size int, pts contour.Contour) *image.RGBA {
	img := Canvas(size)
	OpenStroke(img, pts, 8, color.Black)
	return img
}
