package reference

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ironsheep/shape-recognizer/internal/descriptor"
)

// Entry pairs a signature with its ground-truth label.
type Entry struct {
	Label    string
	Features descriptor.FeatureVector
}

// Snapshot is an immutable, fully validated set of entries.
//
// Snapshots are shared between readers; callers must not modify Entries or
// the vectors they hold.
type Snapshot struct {
	// Entries are in load order, which is also the classifier's tie order.
	Entries []Entry

	// Dimension is the common length of every entry's Features.
	Dimension int

	// Source is the path the snapshot was loaded from.
	Source string

	// LoadedAt is when the snapshot was published.
	LoadedAt time.Time

	// Skipped counts samples dropped because their contour was degenerate.
	Skipped int
}

// Labels returns the distinct labels in first-seen order.
func (s *Snapshot) Labels() []string {
	seen := make(map[string]bool)
	labels := make([]string, 0)
	for _, e := range s.Entries {
		if !seen[e.Label] {
			seen[e.Label] = true
			labels = append(labels, e.Label)
		}
	}
	return labels
}

// Store holds the currently published training snapshot.
//
// Store is safe for concurrent use. Readers never lock; loads are
// serialized with a mutex.
type Store struct {
	harmonics int
	samples   int
	logger    *slog.Logger

	loadMu sync.Mutex
	snap   atomic.Pointer[Snapshot]
}

// NewStore returns an empty store whose contour samples are described with
// the given descriptor settings. A nil logger uses slog.Default().
func NewStore(harmonics, samples int, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	d := descriptor.NewWithSamples(harmonics, samples)
	return &Store{
		harmonics: d.Harmonics(),
		samples:   d.Samples(),
		logger:    logger,
	}
}

// Dimension returns the feature length this store accepts.
func (s *Store) Dimension() int {
	return 2 * s.harmonics
}

// NewDescriber returns a descriptor configured like the one used to
// describe contour samples, so queries and references are comparable.
func (s *Store) NewDescriber() *descriptor.Describer {
	return descriptor.NewWithSamples(s.harmonics, s.samples)
}

// Ready reports whether a snapshot has been published.
func (s *Store) Ready() bool {
	return s.snap.Load() != nil
}

// Snapshot returns the published snapshot or ErrNotLoaded.
func (s *Store) Snapshot() (*Snapshot, error) {
	snap := s.snap.Load()
	if snap == nil {
		return nil, ErrNotLoaded
	}
	return snap, nil
}

// Len returns the number of published entries, zero before the first load.
func (s *Store) Len() int {
	if snap := s.snap.Load(); snap != nil {
		return len(snap.Entries)
	}
	return 0
}

// Load reads the training file at path and, when it is fully valid,
// replaces the published snapshot.
//
// Parameters:
//   - path: Training data file. The extension selects the format: .yaml or
//     .yml for YAML, .db, .sqlite or .sqlite3 for SQLite, anything else
//     for JSON.
//
// Returns:
//   - error: Nil once the new snapshot is published.
//
// Loads are serialized; a second caller waits for the first to finish.
// Contour entries are described with the store's harmonics and samples.
// Entries whose contour is degenerate are skipped and counted in
// Snapshot.Skipped.
//
// # Errors
//
//   - file I/O failures (wrapping the os error)
//   - ErrParse for malformed content, including ErrUnsupportedVersion and
//     ErrDimensionMismatch
//   - ErrEmptyDataset when no entry survives validation
//
// On any error the previously published snapshot, if any, is kept.
func (s *Store) Load(path string) error {
	return s.LoadContext(context.Background(), path)
}

// LoadContext is Load with a context used for database reads.
func (s *Store) LoadContext(ctx context.Context, path string) error {
	s.loadMu.Lock()
	defer s.loadMu.Unlock()

	doc, err := readDocument(ctx, path)
	if err != nil {
		s.logger.Warn("training data rejected", "path", path, "error", err)
		return err
	}

	snap, err := s.build(doc, path)
	if err != nil {
		s.logger.Warn("training data rejected", "path", path, "error", err)
		return err
	}

	s.snap.Store(snap)
	s.logger.Info("training data loaded",
		"path", path,
		"entries", len(snap.Entries),
		"labels", len(snap.Labels()),
		"skipped", snap.Skipped,
		"dimension", snap.Dimension)
	return nil
}

// LoadDocument validates an in-memory document and publishes it under the
// given source name.
func (s *Store) LoadDocument(doc *Document, source string) error {
	s.loadMu.Lock()
	defer s.loadMu.Unlock()

	if err := checkVersion(doc.Version); err != nil {
		return err
	}
	snap, err := s.build(doc, source)
	if err != nil {
		return err
	}
	s.snap.Store(snap)
	return nil
}

// readDocument decodes path according to its extension.
func readDocument(ctx context.Context, path string) (*Document, error) {
	f := formatFor(path)
	if f == formatSQLite {
		return readSQLite(ctx, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read training data: %w", err)
	}
	return decodeDocument(data, f)
}

// build validates every record and computes signatures for contour samples.
// It never touches the published snapshot.
func (s *Store) build(doc *Document, source string) (*Snapshot, error) {
	want := s.Dimension()
	if doc.Dimension != 0 && doc.Dimension != want {
		return nil, fmt.Errorf("%w: %w: document dimension %d, want %d",
			ErrParse, ErrDimensionMismatch, doc.Dimension, want)
	}

	d := s.NewDescriber()
	entries := make([]Entry, 0, len(doc.Entries))
	skipped := 0

	for i, r := range doc.Entries {
		if err := r.validate(i); err != nil {
			return nil, err
		}

		if len(r.Features) > 0 {
			if len(r.Features) != want {
				return nil, dimensionError(i, len(r.Features), want)
			}
			entries = append(entries, Entry{
				Label:    r.Label,
				Features: descriptor.FeatureVector(r.Features).Clone(),
			})
			continue
		}

		vec, err := d.Describe(r.contourOf())
		if err != nil {
			if errors.Is(err, descriptor.ErrDegenerateContour) {
				s.logger.Debug("skipping degenerate sample", "index", i, "label", r.Label, "error", err)
				skipped++
				continue
			}
			return nil, err
		}
		entries = append(entries, Entry{Label: r.Label, Features: vec})
	}

	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: %d records, %d skipped", ErrEmptyDataset, len(doc.Entries), skipped)
	}

	return &Snapshot{
		Entries:   entries,
		Dimension: want,
		Source:    source,
		LoadedAt:  time.Now(),
		Skipped:   skipped,
	}, nil
}
