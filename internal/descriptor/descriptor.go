package descriptor

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/ironsheep/shape-recognizer/internal/contour"
)

// ErrDegenerateContour is returned for contours with fewer than three
// distinct points or no enclosed area.
var ErrDegenerateContour = errors.New("descriptor: degenerate contour")

const (
	// DefaultHarmonics is the number of frequency pairs kept.
	DefaultHarmonics = 8

	// DefaultSamples is the number of arc-length samples fed to the DFT.
	DefaultSamples = 128

	// minAreaRatio is the smallest |area| / perimeter² accepted before a
	// contour is considered flat.
	minAreaRatio = 1e-6
)

// FeatureVector is a fixed-length shape signature.
type FeatureVector []float64

// Dim returns the number of components.
func (v FeatureVector) Dim() int {
	return len(v)
}

// Clone returns an independent copy.
func (v FeatureVector) Clone() FeatureVector {
	out := make(FeatureVector, len(v))
	copy(out, v)
	return out
}

// Describer computes Fourier descriptors with a fixed dimensionality.
//
// A Describer holds a reusable FFT plan and is not safe for concurrent use;
// create one per goroutine.
type Describer struct {
	harmonics int
	samples   int
	fft       *fourier.CmplxFFT
}

// New returns a Describer keeping the given number of harmonics, using
// DefaultSamples resampled points. Non-positive values select the defaults.
func New(harmonics int) *Describer {
	return NewWithSamples(harmonics, DefaultSamples)
}

// NewWithSamples is New with an explicit resampling density. samples is
// raised to at least 2×harmonics+1 so every kept frequency is resolvable.
func NewWithSamples(harmonics, samples int) *Describer {
	if harmonics <= 0 {
		harmonics = DefaultHarmonics
	}
	if samples <= 0 {
		samples = DefaultSamples
	}
	if samples < 2*harmonics+1 {
		samples = 2*harmonics + 1
	}
	return &Describer{
		harmonics: harmonics,
		samples:   samples,
		fft:       fourier.NewCmplxFFT(samples),
	}
}

// Dimension returns the length of every vector produced by Describe.
func (d *Describer) Dimension() int {
	return 2 * d.harmonics
}

// Harmonics returns the number of frequency pairs kept.
func (d *Describer) Harmonics() int {
	return d.harmonics
}

// Samples returns the resampling density.
func (d *Describer) Samples() int {
	return d.samples
}

// Describe computes the signature of c.
//
// Returns ErrDegenerateContour (wrapped with detail) when c has fewer than
// three distinct points or encloses no area.
func (d *Describer) Describe(c contour.Contour) (FeatureVector, error) {
	if n := c.Distinct(); n < 3 {
		return nil, fmt.Errorf("%w: %d distinct points", ErrDegenerateContour, n)
	}

	perimeter := c.Perimeter()
	area := c.SignedArea()
	if perimeter == 0 || math.Abs(area) < minAreaRatio*perimeter*perimeter {
		return nil, fmt.Errorf("%w: zero enclosed area", ErrDegenerateContour)
	}
	if area < 0 {
		c = c.Reversed()
	}

	samples := resample(c, d.samples, perimeter)

	seq := make([]complex128, d.samples)
	for i, p := range samples {
		seq[i] = complex(p.X, p.Y)
	}
	coeffs := d.fft.Coefficients(nil, seq)

	vec := make(FeatureVector, d.Dimension())
	var sum float64
	for k := 1; k <= d.harmonics; k++ {
		pos := cmplx.Abs(coeffs[k])
		neg := cmplx.Abs(coeffs[d.samples-k])
		vec[2*(k-1)] = pos
		vec[2*(k-1)+1] = neg
		sum += pos + neg
	}
	if sum == 0 {
		return nil, fmt.Errorf("%w: no shape energy", ErrDegenerateContour)
	}
	for i := range vec {
		vec[i] /= sum
	}
	return vec, nil
}

// resample places n points at equal arc-length spacing along the closed
// contour, starting at c[0].
func resample(c contour.Contour, n int, perimeter float64) contour.Contour {
	out := make(contour.Contour, 0, n)
	step := perimeter / float64(n)

	seg := 0
	segStart := c[0]
	segEnd := c[1%len(c)]
	segLen := math.Hypot(segEnd.X-segStart.X, segEnd.Y-segStart.Y)
	walked := 0.0 // arc length at segStart

	for i := 0; i < n; i++ {
		target := float64(i) * step
		for walked+segLen < target && seg < len(c)-1 {
			walked += segLen
			seg++
			segStart = c[seg]
			segEnd = c[(seg+1)%len(c)]
			segLen = math.Hypot(segEnd.X-segStart.X, segEnd.Y-segStart.Y)
		}
		t := 0.0
		if segLen > 0 {
			t = (target - walked) / segLen
		}
		if t > 1 {
			t = 1
		}
		out = append(out, contour.Point{
			X: segStart.X + t*(segEnd.X-segStart.X),
			Y: segStart.Y + t*(segEnd.Y-segStart.Y),
		})
	}
	return out
}
