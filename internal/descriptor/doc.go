// Package descriptor reduces a contour to a fixed-length shape signature.
//
// The signature is a vector of normalized Fourier descriptor magnitudes. It
// is invariant to where the shape was drawn, how large it was drawn, how it
// was rotated and where along the outline tracing started, so congruent
// shapes map to near-identical vectors.
//
// # Algorithm
//
//  1. Validation: at least 3 distinct points and a non-zero enclosed area
//  2. Orientation: walk the contour so its shoelace area is positive,
//     making clockwise and counter-clockwise tracings equivalent
//  3. Resampling: place Samples points at equal arc length along the closed
//     outline, starting from the contour's first point
//  4. Transform: treat each sample as a complex number x + iy and take its
//     discrete Fourier transform
//  5. Invariants:
//     - drop the zero-frequency term (translation)
//     - keep only magnitudes of the ±1..±Harmonics terms (rotation and
//     starting point only change phases)
//     - divide by the sum of the kept magnitudes (scale)
//
// The result has Dimension = 2 × Harmonics components, each in [0, 1],
// summing to 1. Low harmonics capture the overall silhouette, higher ones
// capture corners.
//
// # Layout
//
// Components are interleaved by frequency:
//
//	[ |c+1|, |c-1|, |c+2|, |c-2|, ..., |c+H|, |c-H| ] / sum
//
// A circle concentrates almost all weight in the first pair; a square adds
// weight at the third and fifth harmonics.
package descriptor
