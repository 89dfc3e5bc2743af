package contour

import (
	"errors"
	"image"

	"github.com/ironsheep/shape-recognizer/internal/raster"
)

// ErrEmptyInput is returned when a mask has no ink region large enough to
// trace.
var ErrEmptyInput = errors.New("contour: no ink in image")

// DefaultMinArea is the noise floor, in cells, used when callers pass a
// non-positive minimum area.
const DefaultMinArea = 20

// region is one 8-connected group of ink cells.
type region struct {
	id    int
	start image.Point // topmost-leftmost cell
	area  int
}

// mooreOffsets lists the eight neighbours clockwise on screen (Y down),
// starting from west.
var mooreOffsets = [8]image.Point{
	{-1, 0}, {-1, -1}, {0, -1}, {1, -1},
	{1, 0}, {1, 1}, {0, 1}, {-1, 1},
}

// Extract returns the outer boundary of the largest ink region in m.
//
// Parameters:
//   - m: Binary ink mask. A nil mask is treated as empty.
//   - minArea: Regions with fewer ink cells are discarded as noise. Values
//     of zero or less use DefaultMinArea.
//
// Returns:
//   - Contour: Boundary cells in tracing order, starting at the region's
//     topmost-leftmost cell.
//   - error: ErrEmptyInput when no ink survives noise filtering.
//
// An open stroke whose two ends nearly meet, such as a circle drawn in one
// gesture that stops short of its starting point, is closed by joining its
// ends with a segment one stroke width thick before tracing. A region only
// counts as open when it encloses fewer than minArea background cells, is
// thin relative to its bounding box and has ends at most half the box
// diagonal apart. Lines and L or U shapes therefore stay open.
//
// A region consisting of a single cell, or a straight one-cell-wide line,
// still produces a contour; rejecting such degenerate shapes is left to the
// descriptor.
//
// Where a region narrows to a one-cell neck the trace passes through the
// neck once in each direction, so those cells appear twice in the contour.
func Extract(m *raster.Mask, minArea int) (Contour, error) {
	if m == nil || m.Empty() {
		return nil, ErrEmptyInput
	}
	if minArea <= 0 {
		minArea = DefaultMinArea
	}

	labels, regions := labelRegions(m)
	best := largestRegion(regions, minArea)
	if best == nil {
		return nil, ErrEmptyInput
	}

	if bridged, ok := bridgeGap(labels, m.Width, m.Height, *best, minArea); ok {
		labels, regions = labelRegions(bridged)
		best = largestRegion(regions, minArea)
	}

	return traceBoundary(labels, m.Width, m.Height, *best), nil
}

// largestRegion returns the region with the most cells among those with at
// least minArea cells, preferring the earliest on ties. It returns nil when
// none qualify.
func largestRegion(regions []region, minArea int) *region {
	var best *region
	for i := range regions {
		r := &regions[i]
		if r.area < minArea {
			continue
		}
		if best == nil || r.area > best.area {
			best = r
		}
	}
	return best
}

// Regions reports the cell count of every 8-connected ink region in
// row-major discovery order. It is mainly useful for diagnostics.
func Regions(m *raster.Mask) []int {
	if m == nil {
		return nil
	}
	_, regions := labelRegions(m)
	areas := make([]int, len(regions))
	for i, r := range regions {
		areas[i] = r.area
	}
	return areas
}

// labelRegions assigns a region id (starting at 1) to every ink cell.
// Background cells keep label 0. Regions are discovered in row-major order,
// so each region's start cell is its topmost-leftmost cell.
func labelRegions(m *raster.Mask) ([]int, []region) {
	width, height := m.Width, m.Height
	labels := make([]int, width*height)
	regions := make([]region, 0)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if !m.At(x, y) || labels[y*width+x] != 0 {
				continue
			}
			id := len(regions) + 1
			area := floodFill(m, labels, x, y, id)
			regions = append(regions, region{
				id:    id,
				start: image.Point{X: x, Y: y},
				area:  area,
			})
		}
	}
	return labels, regions
}

// floodFill labels every ink cell 8-connected to (startX, startY) with id
// and returns the number of cells labelled.
//
// Uses an explicit stack rather than recursion so large strokes cannot
// overflow the goroutine stack.
func floodFill(m *raster.Mask, labels []int, startX, startY, id int) int {
	width := m.Width
	stack := []image.Point{{X: startX, Y: startY}}
	area := 0

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if !m.At(p.X, p.Y) {
			continue
		}
		idx := p.Y*width + p.X
		if labels[idx] != 0 {
			continue
		}
		labels[idx] = id
		area++

		for _, d := range mooreOffsets {
			stack = append(stack, p.Add(d))
		}
	}
	return area
}

// traceBoundary walks the outer edge of r using Moore-neighbour tracing.
//
// Tracing stops when the walk is about to repeat its first move from the
// start cell, which handles regions whose start cell is visited more than
// once (one-cell-wide necks).
func traceBoundary(labels []int, width, height int, r region) Contour {
	inside := func(p image.Point) bool {
		if p.X < 0 || p.Y < 0 || p.X >= width || p.Y >= height {
			return false
		}
		return labels[p.Y*width+p.X] == r.id
	}

	start := r.start
	out := Contour{{X: float64(start.X), Y: float64(start.Y)}}

	// The start cell is topmost-leftmost, so its west neighbour is outside.
	p := start
	back := 0
	var first image.Point
	moved := false
	limit := 4*r.area + 8

	for step := 0; step < limit; step++ {
		next, nextBack, ok := nextBoundaryCell(inside, p, back)
		if !ok {
			// Isolated cell.
			return out
		}
		if p == start && moved && next == first {
			break
		}
		if !moved {
			first = next
			moved = true
		}
		out = append(out, Point{X: float64(next.X), Y: float64(next.Y)})
		p, back = next, nextBack
	}

	// Drop a trailing copy of the start cell if the walk re-entered it.
	if n := len(out); n > 1 && out[n-1] == out[0] {
		out = out[:n-1]
	}
	return out
}

// nextBoundaryCell scans p's neighbours clockwise, beginning just after the
// backtrack direction, and returns the first one inside the region together
// with the backtrack direction to use from that cell.
func nextBoundaryCell(inside func(image.Point) bool, p image.Point, back int) (image.Point, int, bool) {
	for i := 1; i <= 8; i++ {
		d := (back + i) % 8
		q := p.Add(mooreOffsets[d])
		if !inside(q) {
			continue
		}
		prev := p.Add(mooreOffsets[(d+7)%8])
		return q, offsetIndex(prev.Sub(q)), true
	}
	return image.Point{}, 0, false
}

// offsetIndex returns the index of d in mooreOffsets. d must be a unit
// neighbour offset.
func offsetIndex(d image.Point) int {
	for i, o := range mooreOffsets {
		if o == d {
			return i
		}
	}
	return 0
}
