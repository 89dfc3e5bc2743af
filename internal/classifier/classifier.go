// Package classifier matches shape signatures against a reference store.
//
// Matching is exhaustive nearest-neighbour search: the query is compared
// with every reference entry and the closest one wins, provided its
// distance does not exceed the rejection threshold. A query that is too far
// from everything is reported as Unclassified rather than forced onto the
// nearest label.
package classifier

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"

	"github.com/ironsheep/shape-recognizer/internal/descriptor"
	"github.com/ironsheep/shape-recognizer/internal/reference"
)

// Unclassified is the label reported for a valid query that matched no
// reference closely enough.
const Unclassified = "Unclassified"

// DefaultThreshold is the largest Euclidean distance accepted as a match.
//
// Signatures are unit-sum magnitude vectors. A clean circle and a clean
// square are about 0.18 apart, while freehand renditions of the same shape
// typically land within 0.05 of their reference.
const DefaultThreshold = 0.15

// Metric identifies a distance function.
type Metric string

const (
	// Euclidean is the L2 distance between vectors.
	Euclidean Metric = "euclidean"

	// Cosine is 1 - cosine similarity: 0 for identical directions.
	Cosine Metric = "cosine"
)

// ParseMetric converts a metric name (case-insensitive) to a Metric.
func ParseMetric(name string) (Metric, error) {
	switch Metric(strings.ToLower(strings.TrimSpace(name))) {
	case Euclidean, "":
		return Euclidean, nil
	case Cosine:
		return Cosine, nil
	default:
		return "", fmt.Errorf("unknown metric: %s", name)
	}
}

// Distance computes the metric between two equal-length vectors.
//
// Parameters:
//   - a, b: Feature vectors of the same length. Lengths are not checked;
//     Classify rejects mismatched queries before measuring.
//
// Returns:
//   - float64: For Euclidean, the L2 distance. For Cosine, one minus the
//     cosine similarity, in [0, 2]; a zero vector is at distance 1 from
//     everything.
func (m Metric) Distance(a, b descriptor.FeatureVector) float64 {
	switch m {
	case Cosine:
		na := floats.Norm(a, 2)
		nb := floats.Norm(b, 2)
		if na == 0 || nb == 0 {
			return 1
		}
		return 1 - floats.Dot(a, b)/(na*nb)
	default:
		return floats.Distance(a, b, 2)
	}
}

// Result is the outcome of a successful classification.
type Result struct {
	// Label is the matched reference label, or Unclassified.
	Label string `json:"label"`

	// Matched is false when Label is Unclassified.
	Matched bool `json:"matched"`

	// Distance is the distance to the nearest reference. It is +Inf when the
	// reference set is empty.
	Distance float64 `json:"distance"`

	// Confidence is 1 - Distance/Threshold clamped to [0, 1]. Zero for
	// unmatched results.
	Confidence float64 `json:"confidence"`

	// Nearest is the label of the closest reference even when it was
	// rejected. Empty when the reference set is empty.
	Nearest string `json:"nearest,omitempty"`
}

// Classifier compares signatures against a reference store.
//
// Classifier holds no mutable state of its own and is safe for concurrent
// use.
type Classifier struct {
	store     *reference.Store
	threshold float64
	metric    Metric
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithThreshold sets the rejection threshold. Non-positive or non-finite
// values are ignored.
func WithThreshold(t float64) Option {
	return func(c *Classifier) {
		if t > 0 && !math.IsInf(t, 0) && !math.IsNaN(t) {
			c.threshold = t
		}
	}
}

// WithMetric sets the distance metric.
func WithMetric(m Metric) Option {
	return func(c *Classifier) {
		if m != "" {
			c.metric = m
		}
	}
}

// New creates a Classifier reading from store.
func New(store *reference.Store, opts ...Option) *Classifier {
	c := &Classifier{
		store:     store,
		threshold: DefaultThreshold,
		metric:    Euclidean,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Threshold returns the rejection threshold in effect.
func (c *Classifier) Threshold() float64 {
	return c.threshold
}

// Metric returns the distance metric in effect.
func (c *Classifier) Metric() Metric {
	return c.metric
}

// Classify finds the nearest reference to v.
//
// Parameters:
//   - v: Query signature with the store's dimension.
//
// Returns:
//   - Result: The nearest label when its distance is at most the
//     threshold, otherwise Unclassified with Matched false. Nearest and
//     Distance are reported either way. An empty snapshot yields
//     Unclassified at infinite distance.
//   - error: Non-nil only when the query cannot be compared at all.
//
// Ties are resolved in favour of the entry loaded first. Classify reads
// one snapshot, so a concurrent reload never mixes reference sets.
//
// # Errors
//
//   - reference.ErrNotLoaded when the store has never been loaded
//   - reference.ErrDimensionMismatch when v's length differs from the
//     store's
func (c *Classifier) Classify(v descriptor.FeatureVector) (Result, error) {
	snap, err := c.store.Snapshot()
	if err != nil {
		return Result{}, err
	}
	return c.match(snap, v)
}

// match runs the nearest-neighbour search over one snapshot.
func (c *Classifier) match(snap *reference.Snapshot, v descriptor.FeatureVector) (Result, error) {
	if len(snap.Entries) == 0 {
		return Result{Label: Unclassified, Distance: math.Inf(1)}, nil
	}
	if v.Dim() != snap.Dimension {
		return Result{}, fmt.Errorf("%w: query has %d components, references have %d",
			reference.ErrDimensionMismatch, v.Dim(), snap.Dimension)
	}

	best := -1
	bestDist := math.Inf(1)
	for i, e := range snap.Entries {
		d := c.metric.Distance(v, e.Features)
		if d < bestDist {
			best, bestDist = i, d
		}
	}

	nearest := snap.Entries[best].Label
	if bestDist > c.threshold {
		return Result{
			Label:    Unclassified,
			Distance: bestDist,
			Nearest:  nearest,
		}, nil
	}

	confidence := 1 - bestDist/c.threshold
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}
	return Result{
		Label:      nearest,
		Matched:    true,
		Distance:   bestDist,
		Confidence: confidence,
		Nearest:    nearest,
	}, nil
}
