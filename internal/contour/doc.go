// Package contour extracts the outer boundary of the dominant ink region in
// a mask.
//
// # Algorithm Overview
//
//  1. Region labelling: group ink cells into 8-connected regions using an
//     iterative flood fill
//  2. Noise filtering: drop regions with fewer cells than the minimum area
//  3. Selection: keep the region with the largest cell count; when two
//     regions have the same area the one found first in row-major order wins
//  4. Boundary tracing: walk the region's outer edge with Moore-neighbour
//     tracing, starting at its topmost-leftmost cell
//
// The result is an ordered, implicitly closed sequence of boundary cells:
// consecutive points are 8-adjacent and the last point is adjacent to the
// first. The first point is not repeated at the end. Interior holes (the
// inside of a drawn ring) are ignored because tracing starts on the outer
// edge.
//
// Extraction is deterministic: identical masks always yield identical
// contours, point for point.
package contour
