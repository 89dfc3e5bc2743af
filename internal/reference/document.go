package reference

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ironsheep/shape-recognizer/internal/contour"
	"github.com/ironsheep/shape-recognizer/internal/descriptor"
)

// FormatVersion is the only training data version this package reads and
// the version it writes.
const FormatVersion = 1

// Document is the serialized form of a training set.
type Document struct {
	// Version must equal FormatVersion.
	Version int `json:"version" yaml:"version"`

	// Dimension optionally declares the feature vector length.
	Dimension int `json:"dimension,omitempty" yaml:"dimension,omitempty"`

	// Entries are the labeled samples in load order.
	Entries []Record `json:"entries" yaml:"entries"`
}

// Record is one labeled sample. Exactly one of Contour or Features is set.
type Record struct {
	// Label is the ground-truth shape name, e.g. "circle".
	Label string `json:"label" yaml:"label"`

	// Contour is a raw boundary as [x, y] pairs.
	Contour [][]float64 `json:"contour,omitempty" yaml:"contour,omitempty"`

	// Features is a precomputed signature.
	Features []float64 `json:"features,omitempty" yaml:"features,omitempty"`
}

// format identifies an on-disk encoding.
type format int

const (
	formatJSON format = iota
	formatYAML
	formatSQLite
)

// formatFor picks the encoding from the file extension.
func formatFor(path string) format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return formatYAML
	case ".db", ".sqlite", ".sqlite3":
		return formatSQLite
	default:
		return formatJSON
	}
}

// versionHeader is decoded before the full document so unknown versions are
// rejected before their entries are interpreted.
type versionHeader struct {
	Version int `json:"version" yaml:"version"`
}

// decodeDocument parses a JSON or YAML training document strictly: unknown
// fields and trailing data are errors.
func decodeDocument(data []byte, f format) (*Document, error) {
	var hdr versionHeader
	var doc Document

	switch f {
	case formatYAML:
		if err := yaml.Unmarshal(data, &hdr); err != nil {
			return nil, parseErrorf("%v", err)
		}
		if err := checkVersion(hdr.Version); err != nil {
			return nil, err
		}
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&doc); err != nil {
			return nil, parseErrorf("%v", err)
		}
	default:
		if err := json.Unmarshal(data, &hdr); err != nil {
			return nil, parseErrorf("%v", err)
		}
		if err := checkVersion(hdr.Version); err != nil {
			return nil, err
		}
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&doc); err != nil {
			return nil, parseErrorf("%v", err)
		}
		if dec.More() {
			return nil, parseErrorf("trailing data after document")
		}
	}
	return &doc, nil
}

func checkVersion(v int) error {
	if v != FormatVersion {
		return fmt.Errorf("%w: got %d, want %d", ErrUnsupportedVersion, v, FormatVersion)
	}
	return nil
}

// validate checks structural rules that do not depend on the descriptor.
func (r Record) validate(index int) error {
	if strings.TrimSpace(r.Label) == "" {
		return parseErrorf("entry %d: empty label", index)
	}
	hasContour := len(r.Contour) > 0
	hasFeatures := len(r.Features) > 0
	if hasContour == hasFeatures {
		return parseErrorf("entry %d (%s): need exactly one of contour or features", index, r.Label)
	}
	for i, p := range r.Contour {
		if len(p) != 2 {
			return parseErrorf("entry %d (%s): contour point %d has %d coordinates", index, r.Label, i, len(p))
		}
		if !finite(p[0]) || !finite(p[1]) {
			return parseErrorf("entry %d (%s): contour point %d is not finite", index, r.Label, i)
		}
	}
	for i, x := range r.Features {
		if !finite(x) || x < 0 || x > 1 {
			return parseErrorf("entry %d (%s): feature %d = %v outside [0,1]", index, r.Label, i, x)
		}
	}
	return nil
}

// contourOf converts the raw [x, y] pairs.
func (r Record) contourOf() contour.Contour {
	c := make(contour.Contour, len(r.Contour))
	for i, p := range r.Contour {
		c[i] = contour.Point{X: p[0], Y: p[1]}
	}
	return c
}

// ContourRecord builds a Record from a raw contour.
func ContourRecord(label string, c contour.Contour) Record {
	pts := make([][]float64, len(c))
	for i, p := range c {
		pts[i] = []float64{p.X, p.Y}
	}
	return Record{Label: label, Contour: pts}
}

// FeatureRecord builds a Record from a precomputed signature.
func FeatureRecord(label string, v descriptor.FeatureVector) Record {
	return Record{Label: label, Features: []float64(v.Clone())}
}

// WriteFile serializes doc to path, choosing the encoding from the
// extension. Version is forced to FormatVersion.
func WriteFile(path string, doc Document) error {
	doc.Version = FormatVersion

	var data []byte
	var err error
	switch formatFor(path) {
	case formatSQLite:
		return WriteSQLite(path, doc)
	case formatYAML:
		data, err = yaml.Marshal(&doc)
	default:
		data, err = json.MarshalIndent(&doc, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to encode training data: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write training data: %w", err)
	}
	return nil
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
