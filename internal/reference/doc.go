// Package reference loads and holds the labeled shape signatures used as
// ground truth by the classifier.
//
// # Lifecycle
//
// A Store starts empty and not ready. A successful Load publishes a new,
// fully validated snapshot; from then on the store is ready and readers see
// that snapshot until the next successful Load replaces it wholesale. A
// failed Load never touches the published snapshot, so a store that was
// ready stays ready with its previous contents and an empty store stays
// empty.
//
// Loads are serialized: at most one is in flight at a time. Readers never
// block on a load; they either see the previous snapshot or, before the
// first successful load, get ErrNotLoaded.
//
// # File Formats
//
// The format is chosen by file extension:
//
//   - .json (and any unknown extension): JSON document
//   - .yaml, .yml: the same document in YAML
//   - .db, .sqlite, .sqlite3: SQLite database
//
// JSON and YAML documents share one schema:
//
//	{
//	  "version": 1,
//	  "dimension": 16,
//	  "entries": [
//	    {"label": "circle", "contour": [[10, 0], [7, 7], [0, 10], ...]},
//	    {"label": "square", "features": [0.85, 0.0, ...]}
//	  ]
//	}
//
// Each entry carries exactly one sample: either a raw contour, described on
// load with the store's descriptor settings, or a precomputed feature
// vector. dimension is optional; when present it must match the store's
// descriptor dimension.
//
// SQLite databases hold the same data in two tables:
//
//	meta(key TEXT PRIMARY KEY, value TEXT)            -- key "version"
//	entries(id INTEGER PRIMARY KEY, label TEXT, features TEXT)
//
// where features is a JSON array. Entries load in id order.
//
// # Versioning
//
// Every format carries an explicit version. Files with a missing or unknown
// version are rejected with ErrUnsupportedVersion before any entries are
// read.
package reference
