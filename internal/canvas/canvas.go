// Package canvas records freehand strokes as the user draws them.
//
// A Session holds the stroke currently being drawn plus the strokes already
// committed. It belongs to a single drawing surface and is not safe for
// concurrent use.
package canvas

import "github.com/ironsheep/shape-recognizer/internal/contour"

// Drawing is one committed stroke.
type Drawing struct {
	Points []contour.Point `json:"points"`
}

// Len returns the number of points in the stroke.
func (d Drawing) Len() int {
	return len(d.Points)
}

// Session accumulates strokes.
type Session struct {
	current  []contour.Point
	drawings []Drawing
	drawing  bool
}

// NewSession returns an empty session.
func NewSession() *Session {
	return &Session{}
}

// Begin starts a new stroke, discarding any uncommitted points.
func (s *Session) Begin() {
	s.current = s.current[:0]
	s.drawing = true
}

// Append adds a point to the current stroke. A stroke is started implicitly
// if Begin was not called.
func (s *Session) Append(p contour.Point) {
	if !s.drawing {
		s.Begin()
	}
	s.current = append(s.current, p)
}

// Commit moves the current stroke into the committed list.
//
// Returns:
//   - bool: True when a stroke was committed. A stroke with no points is
//     dropped and Commit reports false.
//
// The session starts a fresh stroke afterwards; the committed points are
// copied so later Appends never alter them.
func (s *Session) Commit() bool {
	s.drawing = false
	if len(s.current) == 0 {
		return false
	}
	pts := make([]contour.Point, len(s.current))
	copy(pts, s.current)
	s.drawings = append(s.drawings, Drawing{Points: pts})
	s.current = s.current[:0]
	return true
}

// Clear removes every stroke, committed or not.
func (s *Session) Clear() {
	s.current = nil
	s.drawings = nil
	s.drawing = false
}

// Drawings returns a copy of the committed strokes.
func (s *Session) Drawings() []Drawing {
	out := make([]Drawing, len(s.drawings))
	for i, d := range s.drawings {
		pts := make([]contour.Point, len(d.Points))
		copy(pts, d.Points)
		out[i] = Drawing{Points: pts}
	}
	return out
}

// Current returns a copy of the uncommitted stroke.
func (s *Session) Current() []contour.Point {
	out := make([]contour.Point, len(s.current))
	copy(out, s.current)
	return out
}

// Empty reports whether the session holds no committed strokes.
func (s *Session) Empty() bool {
	return len(s.drawings) == 0
}

// Path joins drawings into a single closed path in drawing order.
//
// Parameters:
//   - drawings: Committed strokes, typically Session.Drawings().
//
// Returns:
//   - contour.Contour: Every point of every stroke, concatenated without
//     resampling. The last point connects back to the first implicitly,
//     which closes a gesture that stopped short of its start. An empty
//     input yields an empty contour.
func Path(drawings []Drawing) contour.Contour {
	n := 0
	for _, d := range drawings {
		n += len(d.Points)
	}
	path := make(contour.Contour, 0, n)
	for _, d := range drawings {
		path = append(path, d.Points...)
	}
	return path
}
