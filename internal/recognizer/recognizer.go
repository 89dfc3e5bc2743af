// Package recognizer wires extraction, description and matching into the
// classification pipeline exposed to the drawing UI.
//
// The UI needs only two calls: LoadTrainingData, which reports whether the
// reference set is ready, and ClassifyShape, which returns a label or
// signals failure. Both operate on a lazily created process-wide
// Recognizer. Structured access to every stage is available through
// Recognizer.Classify.
package recognizer

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ironsheep/shape-recognizer/internal/canvas"
	"github.com/ironsheep/shape-recognizer/internal/classifier"
	"github.com/ironsheep/shape-recognizer/internal/config"
	"github.com/ironsheep/shape-recognizer/internal/contour"
	"github.com/ironsheep/shape-recognizer/internal/descriptor"
	"github.com/ironsheep/shape-recognizer/internal/raster"
	"github.com/ironsheep/shape-recognizer/internal/reference"
)

// Outcome describes a completed classification.
type Outcome struct {
	// RequestID identifies the call in logs.
	RequestID string `json:"request_id"`

	// Stage is StageMatched or StageUnclassified.
	Stage Stage `json:"stage"`

	classifier.Result

	// Contour is the boundary that was described.
	Contour contour.Contour `json:"-"`

	// Features is the query signature.
	Features descriptor.FeatureVector `json:"features,omitempty"`

	// Elapsed is the wall time spent in the pipeline.
	Elapsed time.Duration `json:"elapsed_ns"`
}

// Recognizer runs the classification pipeline against one reference store.
//
// A Recognizer is safe for concurrent use.
type Recognizer struct {
	cfg        config.Config
	store      *reference.Store
	classifier *classifier.Classifier
	logger     *slog.Logger

	describers sync.Pool
}

// New creates a Recognizer from cfg. cfg is copied and validated; a nil cfg
// uses config.DefaultConfig(). A nil logger uses slog.Default().
func New(cfg *config.Config, logger *slog.Logger) (*Recognizer, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	c := *cfg
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	store := reference.NewStore(c.Harmonics, c.Samples, logger)
	r := &Recognizer{
		cfg:    c,
		store:  store,
		logger: logger,
		classifier: classifier.New(store,
			classifier.WithThreshold(c.Threshold),
			classifier.WithMetric(classifier.Metric(c.Metric))),
	}
	r.describers.New = func() any {
		return store.NewDescriber()
	}
	return r, nil
}

var (
	defaultOnce sync.Once
	defaultRec  *Recognizer
)

// Default returns the process-wide Recognizer, creating it on first use from
// environment configuration. When SHAPE_RECOGNIZER_TRAINING_DATA names a
// file it is loaded immediately; a failed load leaves the store unready.
func Default() *Recognizer {
	defaultOnce.Do(func() {
		cfg, err := config.Load("")
		if err != nil {
			slog.Warn("ignoring invalid environment configuration", "error", err)
		}
		defaultRec, err = New(cfg, nil)
		if err != nil {
			// Load already returned validated defaults.
			defaultRec, _ = New(config.DefaultConfig(), nil)
		}
		if cfg.TrainingData != "" {
			defaultRec.LoadTrainingData(cfg.TrainingData)
		}
	})
	return defaultRec
}

// LoadTrainingData loads path into the process-wide Recognizer and reports
// whether its reference store is ready.
func LoadTrainingData(path string) bool {
	return Default().LoadTrainingData(path)
}

// ClassifyShape classifies img with the process-wide Recognizer.
//
// The boolean is false when classification failed; the label is then empty.
// A valid image that matches nothing yields classifier.Unclassified and true.
func ClassifyShape(img image.Image) (string, bool) {
	return Default().ClassifyShape(img)
}

// Config returns a copy of the configuration in effect.
func (r *Recognizer) Config() config.Config {
	return r.cfg
}

// Store returns the reference store.
func (r *Recognizer) Store() *reference.Store {
	return r.store
}

// Classifier returns the matcher.
func (r *Recognizer) Classifier() *classifier.Classifier {
	return r.classifier
}

// Ready reports whether training data has been loaded.
func (r *Recognizer) Ready() bool {
	return r.store.Ready()
}

// LoadTrainingData loads the training file at path. It returns true iff
// the store is populated after the call: a failed reload keeps the
// previous reference set and still reports false.
func (r *Recognizer) LoadTrainingData(path string) bool {
	if err := r.Load(path); err != nil {
		return false
	}
	return r.store.Ready()
}

// Load is LoadTrainingData with the error preserved.
func (r *Recognizer) Load(path string) error {
	return r.store.Load(path)
}

// ClassifyShape runs Classify and collapses the outcome to a label.
func (r *Recognizer) ClassifyShape(img image.Image) (string, bool) {
	out, err := r.Classify(img)
	if err != nil {
		return "", false
	}
	return out.Label, true
}

// Mask binarizes img with the configured raster options.
func (r *Recognizer) Mask(img image.Image) *raster.Mask {
	return raster.Binarize(img, r.cfg.RasterOptions())
}

// Extract returns the outer boundary of the dominant shape in img.
func (r *Recognizer) Extract(img image.Image) (contour.Contour, error) {
	return contour.Extract(r.Mask(img), r.cfg.MinRegionArea)
}

// Describe computes the signature of c with the store's descriptor
// settings.
func (r *Recognizer) Describe(c contour.Contour) (descriptor.FeatureVector, error) {
	d := r.describers.Get().(*descriptor.Describer)
	defer r.describers.Put(d)
	return d.Describe(c)
}

// Classify runs the full pipeline on a rendered drawing.
//
// Parameters:
//   - img: The rendered drawing, typically dark strokes on a white or
//     transparent canvas. A nil image fails at StageExtracting.
//
// Returns:
//   - *Outcome: The label, distance and confidence together with the
//     traced contour and its feature vector. Stage is StageMatched or
//     StageUnclassified; a rejected shape is not an error.
//   - error: A *StageError naming the stage that failed.
//
// The stages run in order Extracting, Describing, Matching. Each call gets
// a fresh request id that is attached to its log records and the Outcome.
//
// # Errors
//
//   - reference.ErrNotLoaded at StageIdle when no training data is loaded
//   - contour.ErrEmptyInput at StageExtracting for a blank image
//   - descriptor.ErrDegenerateContour at StageDescribing
//   - reference.ErrDimensionMismatch at StageMatching
func (r *Recognizer) Classify(img image.Image) (*Outcome, error) {
	run := r.begin()
	if err := run.checkReady(); err != nil {
		return nil, err
	}

	run.advance(StageExtracting)
	c, err := r.Extract(img)
	if err != nil {
		return nil, run.fail(err)
	}
	return r.finish(run, c)
}

// ClassifyContour runs the pipeline from the Describing stage for callers
// that already hold a boundary.
func (r *Recognizer) ClassifyContour(c contour.Contour) (*Outcome, error) {
	run := r.begin()
	if err := run.checkReady(); err != nil {
		return nil, err
	}
	return r.finish(run, c)
}

// ClassifyDrawings classifies committed canvas strokes. The strokes are
// joined in drawing order into one closed path; no rasterization is
// involved.
func (r *Recognizer) ClassifyDrawings(drawings []canvas.Drawing) (*Outcome, error) {
	run := r.begin()
	if err := run.checkReady(); err != nil {
		return nil, err
	}

	run.advance(StageExtracting)
	path := canvas.Path(drawings)
	if len(path) == 0 {
		return nil, run.fail(contour.ErrEmptyInput)
	}
	return r.finish(run, path)
}

// finish runs the Describing and Matching stages.
func (r *Recognizer) finish(run *pipelineRun, c contour.Contour) (*Outcome, error) {
	run.advance(StageDescribing)
	vec, err := r.Describe(c)
	if err != nil {
		return nil, run.fail(err)
	}

	run.advance(StageMatching)
	res, err := r.classifier.Classify(vec)
	if err != nil {
		return nil, run.fail(err)
	}

	final := StageMatched
	if !res.Matched {
		final = StageUnclassified
	}
	run.advance(final)

	out := &Outcome{
		RequestID: run.id,
		Stage:     final,
		Result:    res,
		Contour:   c,
		Features:  vec,
		Elapsed:   time.Since(run.started),
	}
	run.logger.Info("shape classified",
		"label", res.Label,
		"nearest", res.Nearest,
		"distance", res.Distance,
		"confidence", res.Confidence,
		"points", len(c),
		"elapsed", out.Elapsed)
	return out, nil
}

// pipelineRun tracks one call through the stages.
type pipelineRun struct {
	id      string
	stage   Stage
	started time.Time
	logger  *slog.Logger
	store   *reference.Store
}

func (r *Recognizer) begin() *pipelineRun {
	id := uuid.NewString()
	return &pipelineRun{
		id:      id,
		stage:   StageIdle,
		started: time.Now(),
		logger:  r.logger.With("request_id", id),
		store:   r.store,
	}
}

// checkReady fails fast while no reference set is published.
func (p *pipelineRun) checkReady() error {
	if p.store.Ready() {
		return nil
	}
	return p.fail(reference.ErrNotLoaded)
}

func (p *pipelineRun) advance(s Stage) {
	p.logger.Debug("pipeline stage", "from", p.stage, "to", s)
	p.stage = s
}

func (p *pipelineRun) fail(err error) error {
	serr := &StageError{Stage: p.stage, Err: err}
	p.stage = StageFailed

	level := slog.LevelWarn
	if errors.Is(err, contour.ErrEmptyInput) || errors.Is(err, descriptor.ErrDegenerateContour) {
		level = slog.LevelInfo
	}
	p.logger.Log(context.Background(), level, "classification failed", "stage", serr.Stage, "error", err)
	return serr
}
