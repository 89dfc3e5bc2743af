package raster

import "image"

// Mask is a binary ink/background grid.
//
// The zero value is an empty 0×0 mask. Use NewMask to allocate a mask of a
// given size; all cells start as background.
type Mask struct {
	// Width is the horizontal extent in cells.
	Width int

	// Height is the vertical extent in cells.
	Height int

	ink []bool
}

// NewMask allocates a width × height mask with every cell set to background.
//
// Parameters:
//   - width, height: Mask extent in cells. Negative values are treated as
//     zero.
//
// Returns:
//   - *Mask: A mask whose cells are all background.
func NewMask(width, height int) *Mask {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &Mask{
		Width:  width,
		Height: height,
		ink:    make([]bool, width*height),
	}
}

// At reports whether (x, y) is ink. Coordinates outside the mask are
// background.
func (m *Mask) At(x, y int) bool {
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return false
	}
	return m.ink[y*m.Width+x]
}

// Set marks (x, y) as ink or background. Out-of-range coordinates are ignored.
func (m *Mask) Set(x, y int, ink bool) {
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return
	}
	m.ink[y*m.Width+x] = ink
}

// InkCount returns the number of ink cells.
func (m *Mask) InkCount() int {
	n := 0
	for _, v := range m.ink {
		if v {
			n++
		}
	}
	return n
}

// Empty reports whether the mask contains no ink at all.
func (m *Mask) Empty() bool {
	for _, v := range m.ink {
		if v {
			return false
		}
	}
	return true
}

// InkBounds returns the smallest rectangle containing every ink cell.
//
// Returns:
//   - image.Rectangle: Min is the topmost-leftmost ink corner (inclusive),
//     Max is exclusive, matching image.Rectangle conventions. The empty
//     rectangle when the mask has no ink.
func (m *Mask) InkBounds() image.Rectangle {
	minX, minY := m.Width, m.Height
	maxX, maxY := -1, -1
	for y := 0; y < m.Height; y++ {
		row := m.ink[y*m.Width : (y+1)*m.Width]
		for x, v := range row {
			if !v {
				continue
			}
			if x < minX {
				minX = x
			}
			if x > maxX {
				maxX = x
			}
			if y < minY {
				minY = y
			}
			if y > maxY {
				maxY = y
			}
		}
	}
	if maxX < 0 {
		return image.Rectangle{}
	}
	return image.Rect(minX, minY, maxX+1, maxY+1)
}
