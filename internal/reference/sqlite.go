package reference

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
	CREATE TABLE IF NOT EXISTS meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS entries (
		id INTEGER PRIMARY KEY,
		label TEXT NOT NULL,
		features TEXT NOT NULL
	);
`

// readSQLite reads a training database into a Document. Only precomputed
// feature vectors are stored in databases.
func readSQLite(ctx context.Context, path string) (*Document, error) {
	// sql.Open would silently create a missing database.
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("failed to open training data: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	var raw string
	err = db.QueryRowContext(ctx, "SELECT value FROM meta WHERE key = 'version'").Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: missing version", ErrUnsupportedVersion)
		}
		return nil, parseErrorf("read version: %v", err)
	}
	version, err := strconv.Atoi(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedVersion, raw)
	}
	if err := checkVersion(version); err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, "SELECT label, features FROM entries ORDER BY id")
	if err != nil {
		return nil, parseErrorf("read entries: %v", err)
	}
	defer rows.Close()

	doc := &Document{Version: version}
	for rows.Next() {
		var label, features string
		if err := rows.Scan(&label, &features); err != nil {
			return nil, parseErrorf("scan entry: %v", err)
		}
		var vec []float64
		if err := json.Unmarshal([]byte(features), &vec); err != nil {
			return nil, parseErrorf("entry %d (%s): %v", len(doc.Entries), label, err)
		}
		doc.Entries = append(doc.Entries, Record{Label: label, Features: vec})
	}
	if err := rows.Err(); err != nil {
		return nil, parseErrorf("read entries: %v", err)
	}
	return doc, nil
}

// WriteSQLite stores doc in a SQLite database at path, replacing any
// existing entries. Contour records are rejected; describe them first.
func WriteSQLite(path string, doc Document) error {
	ctx := context.Background()

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("schema creation failed: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM entries"); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT OR REPLACE INTO meta (key, value) VALUES ('version', ?)",
		strconv.Itoa(FormatVersion)); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO entries (id, label, features) VALUES (?, ?, ?)")
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, r := range doc.Entries {
		if len(r.Features) == 0 {
			return fmt.Errorf("entry %d (%s): only feature vectors can be stored in a database", i, r.Label)
		}
		features, err := json.Marshal(r.Features)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, i+1, r.Label, string(features)); err != nil {
			return fmt.Errorf("failed to insert entry %d: %w", i, err)
		}
	}

	return tx.Commit()
}
