package raster

import (
	"image"
	"image/color"

	"github.com/anthonynsimon/bild/effect"
	"github.com/disintegration/imaging"
	colorful "github.com/lucasb-eyer/go-colorful"
)

// Options controls how a rendered image is reduced to an ink mask.
type Options struct {
	// InkLightness is the CIE-Lab lightness (0.0 to 1.0) below which an
	// opaque pixel counts as ink. Black strokes have lightness 0, white
	// background 1. Typical: 0.5.
	InkLightness float64

	// CloseRadius thickens dark strokes by this many pixels before
	// thresholding. Zero disables thickening. Small values (1-3) close the
	// gap left when a hand-drawn outline does not quite meet itself.
	CloseRadius float64

	// MaxDimension bounds the larger side of the working image. Renders
	// larger than this are downscaled, preserving aspect ratio. Zero keeps
	// the original resolution.
	MaxDimension int
}

// DefaultOptions returns the options used for 300×300 point canvases
// rendered at 2× scale.
func DefaultOptions() Options {
	return Options{
		InkLightness: 0.5,
		CloseRadius:  0,
		MaxDimension: 300,
	}
}

// Binarize converts a rendered image into an ink mask.
//
// Parameters:
//   - img: The rendered drawing. Any color model is accepted; transparent
//     pixels are treated as background.
//   - opts: Threshold, thickening and downscaling settings. See Options.
//
// Returns:
//   - *Mask: Ink cells set for every pixel that is at least half opaque and
//     darker than opts.InkLightness. The mask has the dimensions of the
//     working image, which is smaller than img when downscaling applies.
//
// Processing order:
//  1. Downscale to fit opts.MaxDimension (box filter, aspect preserved)
//  2. Composite onto white so transparency becomes background
//  3. Thicken dark strokes by opts.CloseRadius (min filter)
//  4. Threshold on CIE-Lab lightness
//
// A nil image yields an empty 0×0 mask. Binarize never fails.
func Binarize(img image.Image, opts Options) *Mask {
	if img == nil {
		return NewMask(0, 0)
	}

	work := img
	b := work.Bounds()
	if opts.MaxDimension > 0 && (b.Dx() > opts.MaxDimension || b.Dy() > opts.MaxDimension) {
		work = imaging.Fit(work, opts.MaxDimension, opts.MaxDimension, imaging.Box)
		b = work.Bounds()
	}

	// Flatten transparency so the min filter never spreads transparent
	// black across the canvas.
	flat := imaging.New(b.Dx(), b.Dy(), color.White)
	flat = imaging.Overlay(flat, work, image.Pt(0, 0), 1.0)

	var src image.Image = flat
	if opts.CloseRadius > 0 {
		src = effect.Erode(flat, opts.CloseRadius)
	}

	sb := src.Bounds()
	mask := NewMask(sb.Dx(), sb.Dy())
	for y := 0; y < sb.Dy(); y++ {
		for x := 0; x < sb.Dx(); x++ {
			if isInk(src.At(sb.Min.X+x, sb.Min.Y+y), opts.InkLightness) {
				mask.ink[y*mask.Width+x] = true
			}
		}
	}
	return mask
}

// isInk applies the opacity and lightness rules to a single pixel.
func isInk(c color.Color, maxLightness float64) bool {
	_, _, _, a := c.RGBA()
	if a < 0x8000 {
		return false
	}
	cf, ok := colorful.MakeColor(c)
	if !ok {
		return false
	}
	l, _, _ := cf.Lab()
	return l < maxLightness
}

// FromImage is Binarize with DefaultOptions.
func FromImage(img image.Image) *Mask {
	return Binarize(img, DefaultOptions())
}
