package contour

import (
	"image"
	"math"

	"github.com/ironsheep/shape-recognizer/internal/raster"
)

const (
	// maxStrokeWidthRatio bounds the estimated stroke width of an open
	// stroke relative to the smaller side of its bounding box. Wider regions
	// are blobs, not strokes.
	maxStrokeWidthRatio = 0.25

	// maxGapRatio bounds the distance between the two ends of an open
	// stroke relative to its bounding-box diagonal. Lines, L and U shapes
	// exceed it and stay open.
	maxGapRatio = 0.5
)

// bridgeGap closes an open stroke by drawing a segment between its two
// ends, one stroke width thick.
//
// r qualifies when it encloses fewer than minHole background cells, is thin
// compared to its bounding box and has ends no further apart than
// maxGapRatio of the box diagonal. The returned mask holds only r's cells
// plus the bridge. ok is false when r does not qualify.
func bridgeGap(labels []int, width, height int, r region, minHole int) (*raster.Mask, bool) {
	inside := func(p image.Point) bool {
		if p.X < 0 || p.Y < 0 || p.X >= width || p.Y >= height {
			return false
		}
		return labels[p.Y*width+p.X] == r.id
	}

	box := regionBounds(labels, width, height, r)
	if box.Dx() < 3 || box.Dy() < 3 {
		return nil, false
	}
	if enclosedCells(inside, box) >= minHole {
		return nil, false
	}

	a, _ := farthestCell(inside, box, r.start)
	b, steps := farthestCell(inside, box, a)

	strokeWidth := float64(r.area) / float64(steps+1)
	if strokeWidth > maxStrokeWidthRatio*float64(min(box.Dx(), box.Dy())) {
		return nil, false
	}
	gap := math.Hypot(float64(b.X-a.X), float64(b.Y-a.Y))
	if gap > maxGapRatio*math.Hypot(float64(box.Dx()), float64(box.Dy())) {
		return nil, false
	}

	m := raster.NewMask(width, height)
	for y := box.Min.Y; y < box.Max.Y; y++ {
		for x := box.Min.X; x < box.Max.X; x++ {
			if labels[y*width+x] == r.id {
				m.Set(x, y, true)
			}
		}
	}
	drawSegment(m, a, b, math.Max(1, strokeWidth/2))
	return m, true
}

// regionBounds returns the bounding box of r's cells with an exclusive Max.
func regionBounds(labels []int, width, height int, r region) image.Rectangle {
	box := image.Rectangle{Min: r.start, Max: r.start.Add(image.Pt(1, 1))}
	for y := r.start.Y; y < height; y++ {
		for x := 0; x < width; x++ {
			if labels[y*width+x] != r.id {
				continue
			}
			box = box.Union(image.Rect(x, y, x+1, y+1))
		}
	}
	return box
}

// enclosedCells counts the non-region cells inside box that cannot reach
// the box's outer margin through 4-connected non-region cells.
func enclosedCells(inside func(image.Point) bool, box image.Rectangle) int {
	outer := box.Inset(-1)
	w, h := outer.Dx(), outer.Dy()
	seen := make([]bool, w*h)
	index := func(p image.Point) int {
		return (p.Y-outer.Min.Y)*w + (p.X - outer.Min.X)
	}

	// The margin ring is all background, so one corner reaches all of it.
	stack := []image.Point{outer.Min}
	seen[index(outer.Min)] = true
	reached := 0
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		reached++
		for _, d := range [4]image.Point{{1, 0}, {-1, 0}, {0, 1}, {0, -1}} {
			q := p.Add(d)
			if !q.In(outer) || seen[index(q)] || inside(q) {
				continue
			}
			seen[index(q)] = true
			stack = append(stack, q)
		}
	}

	background := 0
	for y := outer.Min.Y; y < outer.Max.Y; y++ {
		for x := outer.Min.X; x < outer.Max.X; x++ {
			if !inside(image.Pt(x, y)) {
				background++
			}
		}
	}
	return background - reached
}

// farthestCell runs an 8-connected breadth-first search over the region from
// start and returns the first cell reached at the greatest step count.
func farthestCell(inside func(image.Point) bool, box image.Rectangle, start image.Point) (image.Point, int) {
	w := box.Dx()
	dist := make([]int, w*box.Dy())
	for i := range dist {
		dist[i] = -1
	}
	index := func(p image.Point) int {
		return (p.Y-box.Min.Y)*w + (p.X - box.Min.X)
	}

	queue := []image.Point{start}
	dist[index(start)] = 0
	best, bestDist := start, 0
	for head := 0; head < len(queue); head++ {
		p := queue[head]
		dp := dist[index(p)]
		if dp > bestDist {
			best, bestDist = p, dp
		}
		for _, d := range mooreOffsets {
			q := p.Add(d)
			if !inside(q) || dist[index(q)] >= 0 {
				continue
			}
			dist[index(q)] = dp + 1
			queue = append(queue, q)
		}
	}
	return best, bestDist
}

// drawSegment marks every cell within radius of the segment from a to b.
func drawSegment(m *raster.Mask, a, b image.Point, radius float64) {
	dx, dy := float64(b.X-a.X), float64(b.Y-a.Y)
	steps := int(math.Ceil(math.Hypot(dx, dy))) + 1
	reach := int(math.Ceil(radius))
	for s := 0; s <= steps; s++ {
		t := float64(s) / float64(steps)
		cx, cy := float64(a.X)+t*dx, float64(a.Y)+t*dy
		for y := int(cy) - reach; y <= int(cy)+reach+1; y++ {
			for x := int(cx) - reach; x <= int(cx)+reach+1; x++ {
				if math.Hypot(float64(x)-cx, float64(y)-cy) <= radius {
					m.Set(x, y, true)
				}
			}
		}
	}
}
