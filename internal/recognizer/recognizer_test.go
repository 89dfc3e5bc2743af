package recognizer

import (
	"errors"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/shape-recognizer/internal/canvas"
	"github.com/ironsheep/shape-recognizer/internal/classifier"
	"github.com/ironsheep/shape-recognizer/internal/config"
	"github.com/ironsheep/shape-recognizer/internal/contour"
	"github.com/ironsheep/shape-recognizer/internal/descriptor"
	"github.com/ironsheep/shape-recognizer/internal/reference"
	"github.com/ironsheep/shape-recognizer/internal/shapetest"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// trainingFile writes a circle/square reference set and returns its path.
func trainingFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "training.json")
	require.NoError(t, reference.WriteFile(path, reference.Document{Entries: []reference.Record{
		reference.ContourRecord("circle", shapetest.Circle(64, 150, 150, 100)),
		reference.ContourRecord("square", shapetest.Square(50, 50, 200, 16)),
	}}))
	return path
}

func newLoaded(t *testing.T) *Recognizer {
	t.Helper()
	r, err := New(nil, quietLogger())
	require.NoError(t, err)
	require.True(t, r.LoadTrainingData(trainingFile(t)))
	return r
}

func TestClassify_HandDrawnCircle(t *testing.T) {
	r := newLoaded(t)
	img := shapetest.Drawn(300, shapetest.Wobbly(96, 150, 150, 90, 3))

	out, err := r.Classify(img)
	require.NoError(t, err)
	assert.Equal(t, "circle", out.Label)
	assert.Equal(t, StageMatched, out.Stage)
	assert.Greater(t, out.Confidence, 0.0)
	assert.NotEmpty(t, out.RequestID)
	assert.Len(t, out.Features, descriptor.DefaultHarmonics*2)
}

func TestClassify_DrawnSquare(t *testing.T) {
	r := newLoaded(t)
	img := shapetest.Drawn(300, shapetest.Square(60, 60, 180, 12))

	label, ok := r.ClassifyShape(img)
	assert.True(t, ok)
	assert.Equal(t, "square", label)
}

func TestClassify_SmallAndRotated(t *testing.T) {
	r := newLoaded(t)

	sq := shapetest.Square(-40, -40, 80, 12).Transform(1, math.Pi/7, 150, 150)
	label, ok := r.ClassifyShape(shapetest.Drawn(300, sq))
	assert.True(t, ok)
	assert.Equal(t, "square", label)

	label, ok = r.ClassifyShape(shapetest.Drawn(300, shapetest.Circle(48, 80, 220, 45)))
	assert.True(t, ok)
	assert.Equal(t, "circle", label)
}

func TestClassify_OpenStrokes(t *testing.T) {
	r := newLoaded(t)

	square := shapetest.Square(60, 60, 180, 12)
	tests := []struct {
		name  string
		pts   contour.Contour
		label string
	}{
		{"circle 355 degrees", shapetest.Arc(200, 150, 150, 90, math.Pi/3, 355*math.Pi/180), "circle"},
		{"circle 345 degrees", shapetest.Arc(200, 150, 150, 90, math.Pi/3, 345*math.Pi/180), "circle"},
		{"circle 330 degrees", shapetest.Arc(200, 150, 150, 90, math.Pi/3, 330*math.Pi/180), "circle"},
		{"circle gap at top", shapetest.Arc(200, 150, 150, 90, -math.Pi/2+0.2, 2*math.Pi-0.4), "circle"},
		{"square with a gap", square[:len(square)-2], "square"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := r.Classify(shapetest.DrawnOpen(300, tt.pts))
			require.NoError(t, err)
			assert.Equal(t, tt.label, out.Label, "distance %.3f nearest %s", out.Distance, out.Nearest)
			assert.Equal(t, StageMatched, out.Stage)
		})
	}
}

func TestClassify_Unclassified(t *testing.T) {
	r := newLoaded(t)
	triangle := shapetest.Polygon(3, 150, 160, 110, -math.Pi/2)

	out, err := r.Classify(shapetest.Drawn(300, triangle))
	require.NoError(t, err)
	assert.Equal(t, classifier.Unclassified, out.Label)
	assert.Equal(t, StageUnclassified, out.Stage)
	assert.False(t, out.Matched)

	label, ok := r.ClassifyShape(shapetest.Drawn(300, triangle))
	assert.True(t, ok)
	assert.Equal(t, classifier.Unclassified, label)
}

func TestClassify_BlankImage(t *testing.T) {
	r := newLoaded(t)

	_, err := r.Classify(shapetest.Canvas(300))
	require.Error(t, err)
	assert.ErrorIs(t, err, contour.ErrEmptyInput)

	var serr *StageError
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, StageExtracting, serr.Stage)

	label, ok := r.ClassifyShape(shapetest.Canvas(300))
	assert.False(t, ok)
	assert.Empty(t, label)

	_, ok = r.ClassifyShape(nil)
	assert.False(t, ok)
}

func TestClassify_NotLoaded(t *testing.T) {
	r, err := New(nil, quietLogger())
	require.NoError(t, err)

	_, err = r.Classify(shapetest.Drawn(300, shapetest.Circle(64, 150, 150, 100)))
	assert.ErrorIs(t, err, reference.ErrNotLoaded)

	var serr *StageError
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, StageIdle, serr.Stage)

	_, ok := r.ClassifyShape(shapetest.Canvas(100))
	assert.False(t, ok)
	assert.False(t, r.Ready())
}

func TestClassify_Idempotent(t *testing.T) {
	r := newLoaded(t)
	img := shapetest.Drawn(300, shapetest.Wobbly(96, 150, 150, 90, 3))

	first, err := r.Classify(img)
	require.NoError(t, err)
	second, err := r.Classify(img)
	require.NoError(t, err)

	assert.Equal(t, first.Result, second.Result)
	assert.Equal(t, first.Features, second.Features)
	assert.Equal(t, first.Contour, second.Contour)
	assert.NotEqual(t, first.RequestID, second.RequestID)
}

func TestLoadTrainingData_Atomic(t *testing.T) {
	r := newLoaded(t)
	img := shapetest.Drawn(300, shapetest.Wobbly(96, 150, 150, 90, 3))
	before, err := r.Classify(img)
	require.NoError(t, err)

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"version": 1, "entries": [{"label": "circle", "features": [2]}]}`), 0o644))

	assert.False(t, r.LoadTrainingData(bad))
	assert.False(t, r.LoadTrainingData(filepath.Join(t.TempDir(), "missing.json")))

	assert.True(t, r.Ready())
	after, err := r.Classify(img)
	require.NoError(t, err)
	assert.Equal(t, before.Result, after.Result)
}

func TestClassifyContour(t *testing.T) {
	r := newLoaded(t)

	out, err := r.ClassifyContour(shapetest.Circle(32, 0, 0, 5))
	require.NoError(t, err)
	assert.Equal(t, "circle", out.Label)

	_, err = r.ClassifyContour(contour.Contour{{X: 0, Y: 0}, {X: 1, Y: 1}, {X: 2, Y: 2}})
	assert.ErrorIs(t, err, descriptor.ErrDegenerateContour)
	var serr *StageError
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, StageDescribing, serr.Stage)
}

func TestClassifyDrawings(t *testing.T) {
	r := newLoaded(t)
	s := canvas.NewSession()

	pts := shapetest.Square(10, 10, 100, 10)
	half := len(pts) / 2
	for _, p := range pts[:half] {
		s.Append(p)
	}
	s.Commit()
	for _, p := range pts[half:] {
		s.Append(p)
	}
	s.Commit()

	out, err := r.ClassifyDrawings(s.Drawings())
	require.NoError(t, err)
	assert.Equal(t, "square", out.Label)

	_, err = r.ClassifyDrawings(nil)
	assert.ErrorIs(t, err, contour.ErrEmptyInput)
}

func TestClassify_Concurrent(t *testing.T) {
	r := newLoaded(t)
	img := shapetest.Drawn(300, shapetest.Wobbly(96, 150, 150, 90, 3))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			label, ok := r.ClassifyShape(img)
			assert.True(t, ok)
			assert.Equal(t, "circle", label)
		}()
	}
	wg.Wait()
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Metric = "chebyshev"
	_, err := New(cfg, nil)
	assert.Error(t, err)
}

func TestNew_UsesConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Threshold = 0.05
	cfg.Harmonics = 4

	r, err := New(cfg, quietLogger())
	require.NoError(t, err)
	assert.Equal(t, 0.05, r.Classifier().Threshold())
	assert.Equal(t, 8, r.Store().Dimension())
	assert.Equal(t, 4, cfg.Harmonics)
	assert.Equal(t, 4, r.Config().Harmonics)
}

func TestPackageLevelBoundary(t *testing.T) {
	path := trainingFile(t)

	assert.False(t, LoadTrainingData(filepath.Join(t.TempDir(), "absent.json")))
	assert.True(t, LoadTrainingData(path))
	assert.Same(t, Default(), Default())

	label, ok := ClassifyShape(shapetest.Drawn(300, shapetest.Circle(64, 150, 150, 100)))
	assert.True(t, ok)
	assert.Equal(t, "circle", label)
}

func TestStage(t *testing.T) {
	assert.Equal(t, "extracting", StageExtracting.String())
	assert.Equal(t, "stage(42)", Stage(42).String())
	assert.True(t, StageFailed.Terminal())
	assert.False(t, StageMatching.Terminal())

	text, err := StageMatched.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "matched", string(text))

	serr := &StageError{Stage: StageDescribing, Err: descriptor.ErrDegenerateContour}
	assert.Contains(t, serr.Error(), "describing failed")
	assert.ErrorIs(t, serr, descriptor.ErrDegenerateContour)
}
