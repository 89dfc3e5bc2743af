// Package raster turns rendered drawings into binary ink masks.
//
// A Mask is the RasterImage consumed by contour extraction: a width × height
// grid where every cell is either ink or background. Masks are produced fresh
// for every classification request from an image.Image rendered by the UI
// layer and are never shared between requests.
//
// # Coordinate System
//
// Mask coordinates are 0-based with the origin at the top-left corner:
//   - X increases rightward (0 to Width-1)
//   - Y increases downward (0 to Height-1)
//
// Source images with a non-zero bounds origin are shifted so that the
// top-left pixel of the source maps to (0, 0) in the mask.
//
// # Binarization
//
// Binarize decides ink versus background per pixel:
//
//  1. Large renders are downscaled to fit within Options.MaxDimension
//  2. Optionally, dark strokes are thickened (a min filter) so that small
//     gaps between the start and end of a hand-drawn stroke close up
//  3. A pixel is ink when it is at least half opaque and its CIE-Lab
//     lightness is below Options.InkLightness
//
// Transparent pixels are always background, so renders with a transparent
// canvas behave the same as renders on white.
//
// # Thread Safety
//
// The ImageCache type is safe for concurrent use. Masks are plain values and
// must not be mutated while another goroutine reads them.
package raster
