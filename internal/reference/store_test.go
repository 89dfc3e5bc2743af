package reference

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/shape-recognizer/internal/contour"
	"github.com/ironsheep/shape-recognizer/internal/descriptor"
	"github.com/ironsheep/shape-recognizer/internal/shapetest"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestStore() *Store {
	return NewStore(descriptor.DefaultHarmonics, descriptor.DefaultSamples, quietLogger())
}

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func shapesDocument() Document {
	return Document{
		Version: FormatVersion,
		Entries: []Record{
			ContourRecord("circle", shapetest.Circle(64, 50, 50, 40)),
			ContourRecord("square", shapetest.Square(10, 10, 80, 16)),
		},
	}
}

func TestStore_NotLoaded(t *testing.T) {
	s := newTestStore()

	assert.False(t, s.Ready())
	assert.Equal(t, 0, s.Len())
	_, err := s.Snapshot()
	assert.ErrorIs(t, err, ErrNotLoaded)
}

func TestStore_LoadJSONContours(t *testing.T) {
	path := filepath.Join(t.TempDir(), "training.json")
	require.NoError(t, WriteFile(path, shapesDocument()))

	s := newTestStore()
	require.NoError(t, s.Load(path))

	assert.True(t, s.Ready())
	snap, err := s.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, []string{"circle", "square"}, snap.Labels())
	assert.Equal(t, path, snap.Source)
	assert.Equal(t, s.Dimension(), snap.Dimension)
	for _, e := range snap.Entries {
		assert.Len(t, e.Features, s.Dimension())
	}
}

func TestStore_LoadYAMLFeatures(t *testing.T) {
	content := `version: 1
dimension: 4
entries:
  - label: blob
    features: [0.7, 0.1, 0.1, 0.1]
  - label: spike
    features: [0.25, 0.25, 0.25, 0.25]
`
	path := writeTemp(t, "training.yaml", content)

	s := NewStore(2, 0, quietLogger())
	require.NoError(t, s.Load(path))

	snap, err := s.Snapshot()
	require.NoError(t, err)
	require.Len(t, snap.Entries, 2)
	assert.Equal(t, "blob", snap.Entries[0].Label)
	assert.InDelta(t, 0.7, snap.Entries[0].Features[0], 1e-12)
}

func TestStore_LoadSQLite(t *testing.T) {
	d := descriptor.New(descriptor.DefaultHarmonics)
	circle, err := d.Describe(shapetest.Circle(64, 0, 0, 10))
	require.NoError(t, err)
	square, err := d.Describe(shapetest.Square(0, 0, 10, 8))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "training.db")
	require.NoError(t, WriteFile(path, Document{Entries: []Record{
		FeatureRecord("circle", circle),
		FeatureRecord("square", square),
	}}))

	s := newTestStore()
	require.NoError(t, s.Load(path))

	snap, err := s.Snapshot()
	require.NoError(t, err)
	require.Len(t, snap.Entries, 2)
	assert.Equal(t, "circle", snap.Entries[0].Label)
	assert.InDeltaSlice(t, []float64(circle), []float64(snap.Entries[0].Features), 1e-12)
}

func TestStore_SQLiteVersionRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "future.db")
	require.NoError(t, WriteFile(path, Document{Entries: []Record{
		{Label: "x", Features: make([]float64, 16)},
	}}))

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	_, err = db.Exec("UPDATE meta SET value = '7' WHERE key = 'version'")
	require.NoError(t, err)
	require.NoError(t, db.Close())

	s := newTestStore()
	err = s.Load(path)
	assert.ErrorIs(t, err, ErrUnsupportedVersion)
	assert.ErrorIs(t, err, ErrParse)
	assert.False(t, s.Ready())
}

func TestWriteSQLite_RejectsContours(t *testing.T) {
	path := filepath.Join(t.TempDir(), "contours.db")
	err := WriteFile(path, shapesDocument())
	assert.Error(t, err)
}

func TestStore_MissingFile(t *testing.T) {
	s := newTestStore()

	assert.ErrorIs(t, s.Load(filepath.Join(t.TempDir(), "nope.json")), os.ErrNotExist)
	assert.ErrorIs(t, s.Load(filepath.Join(t.TempDir(), "nope.db")), os.ErrNotExist)
	assert.False(t, s.Ready())
}

func TestStore_ParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		wantErr error
	}{
		{"not json", "a.json", `{"version": 1, "entries": [`, ErrParse},
		{"missing version", "a.json", `{"entries": []}`, ErrUnsupportedVersion},
		{"future version", "a.json", `{"version": 2, "entries": [{"label": "x", "features": [1]}]}`, ErrUnsupportedVersion},
		{"unknown field", "a.json", `{"version": 1, "entries": [], "extra": true}`, ErrParse},
		{"trailing data", "a.json", `{"version": 1, "entries": []} {}`, ErrParse},
		{"empty label", "a.json", `{"version": 1, "entries": [{"label": " ", "features": [0.5]}]}`, ErrParse},
		{"both samples", "a.json", `{"version": 1, "entries": [{"label": "x", "features": [0.5], "contour": [[0,0],[1,0],[0,1]]}]}`, ErrParse},
		{"no sample", "a.json", `{"version": 1, "entries": [{"label": "x"}]}`, ErrParse},
		{"bad point", "a.json", `{"version": 1, "entries": [{"label": "x", "contour": [[0,0,0],[1,0],[0,1]]}]}`, ErrParse},
		{"feature out of range", "a.json", `{"version": 1, "entries": [{"label": "x", "features": [1.5]}]}`, ErrParse},
		{"wrong dimension", "a.json", `{"version": 1, "entries": [{"label": "x", "features": [0.5, 0.5]}]}`, ErrDimensionMismatch},
		{"document dimension", "a.json", `{"version": 1, "dimension": 4, "entries": []}`, ErrDimensionMismatch},
		{"yaml unknown field", "a.yaml", "version: 1\nentries: []\nbogus: 1\n", ErrParse},
		{"yaml garbage", "a.yml", "version: [\n", ErrParse},
		{"not a database", "a.db", "definitely not sqlite", ErrParse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeTemp(t, tt.file, tt.content)
			s := newTestStore()
			err := s.Load(path)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.False(t, s.Ready())
		})
	}
}

func TestStore_EmptyDataset(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"no entries", `{"version": 1, "entries": []}`},
		{"only degenerate", `{"version": 1, "entries": [{"label": "dot", "contour": [[1,1],[1,1],[1,1]]}, {"label": "line", "contour": [[0,0],[5,0],[10,0]]}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStore()
			err := s.Load(writeTemp(t, "empty.json", tt.content))
			assert.ErrorIs(t, err, ErrEmptyDataset)
			assert.False(t, s.Ready())
		})
	}
}

func TestStore_SkipsDegenerateSamples(t *testing.T) {
	doc := shapesDocument()
	doc.Entries = append(doc.Entries, Record{Label: "line", Contour: [][]float64{{0, 0}, {5, 0}, {10, 0}}})

	path := filepath.Join(t.TempDir(), "mixed.json")
	require.NoError(t, WriteFile(path, doc))

	s := newTestStore()
	require.NoError(t, s.Load(path))
	snap, _ := s.Snapshot()
	assert.Len(t, snap.Entries, 2)
	assert.Equal(t, 1, snap.Skipped)
}

func TestStore_FailedReloadKeepsSnapshot(t *testing.T) {
	good := filepath.Join(t.TempDir(), "good.json")
	require.NoError(t, WriteFile(good, shapesDocument()))
	bad := writeTemp(t, "bad.json", `{"version": 1, "entries": [{"label": "x"`)

	s := newTestStore()
	require.NoError(t, s.Load(good))
	before, err := s.Snapshot()
	require.NoError(t, err)

	assert.Error(t, s.Load(bad))

	after, err := s.Snapshot()
	require.NoError(t, err)
	assert.Same(t, before, after)
	assert.True(t, s.Ready())
}

func TestStore_ReloadReplaces(t *testing.T) {
	first := filepath.Join(t.TempDir(), "first.json")
	require.NoError(t, WriteFile(first, shapesDocument()))

	second := Document{Entries: []Record{
		ContourRecord("triangle", shapetest.Polygon(3, 0, 0, 20, 0)),
	}}
	secondPath := filepath.Join(t.TempDir(), "second.yaml")
	require.NoError(t, WriteFile(secondPath, second))

	s := newTestStore()
	require.NoError(t, s.Load(first))
	require.NoError(t, s.Load(secondPath))

	snap, _ := s.Snapshot()
	assert.Equal(t, []string{"triangle"}, snap.Labels())
}

func TestStore_ConcurrentLoadsAndReads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "training.json")
	require.NoError(t, WriteFile(path, shapesDocument()))

	s := newTestStore()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			assert.NoError(t, s.LoadContext(context.Background(), path))
		}()
		go func() {
			defer wg.Done()
			if snap, err := s.Snapshot(); err == nil {
				assert.Len(t, snap.Entries, 2)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 2, s.Len())
}

func TestStore_LoadDocument(t *testing.T) {
	s := newTestStore()

	assert.ErrorIs(t, s.LoadDocument(&Document{Version: 0}, "memory"), ErrUnsupportedVersion)

	doc := shapesDocument()
	require.NoError(t, s.LoadDocument(&doc, "memory"))
	snap, _ := s.Snapshot()
	assert.Equal(t, "memory", snap.Source)
}

func TestContourRecord_RoundTrip(t *testing.T) {
	c := contour.Contour{{X: 1, Y: 2}, {X: 3, Y: 4}}
	r := ContourRecord("x", c)
	assert.Equal(t, c, r.contourOf())
}
