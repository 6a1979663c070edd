// Package modelstore keeps named CRF model snapshots in a SQLite
// database, so several trained models can live side by side in one
// file and be pulled out by name.
package modelstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/happyhackingspace/seqtag/crf"
)

// ErrModelNotFound is returned when no snapshot with the requested
// name exists.
var ErrModelNotFound = errors.New("modelstore: model not found")

// Info is the metadata of one stored snapshot.
type Info struct {
	Name        string
	NumFeatures int
	NumLabels   int
	CreatedAt   time.Time
}

// Store is a SQLite-backed registry of model snapshots.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the registry database at the given path and
// ensures the schema exists.
func Open(path string) (*Store, error) {
	db, err := openDB(path)
	if err != nil {
		return nil, fmt.Errorf("modelstore: %w", err)
	}
	if err := setupSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("modelstore: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func setupSchema(db *sql.DB) error {
	const schema = `
CREATE TABLE IF NOT EXISTS crf_models (
    name TEXT PRIMARY KEY,
    num_features INTEGER NOT NULL,
    num_labels INTEGER NOT NULL,
    created_at INTEGER NOT NULL,
    snapshot BLOB NOT NULL
);
`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("could not create schema: %w", err)
	}
	return nil
}

// Save stores a snapshot under the given name, replacing any previous
// snapshot with that name.
func (s *Store) Save(ctx context.Context, name string, snap *crf.Snapshot) error {
	if name == "" {
		return fmt.Errorf("modelstore: empty model name")
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("modelstore: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO crf_models (name, num_features, num_labels, created_at, snapshot) VALUES (?, ?, ?, ?, ?)
ON CONFLICT(name) DO UPDATE SET
    num_features = excluded.num_features,
    num_labels = excluded.num_labels,
    created_at = excluded.created_at,
    snapshot = excluded.snapshot`,
		name, snap.NumFeatures, snap.NumLabels, time.Now().Unix(), data)
	if err != nil {
		return fmt.Errorf("modelstore: save %q: %w", name, err)
	}
	return nil
}

// Load retrieves a snapshot by name.
func (s *Store) Load(ctx context.Context, name string) (*crf.Snapshot, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx,
		"SELECT snapshot FROM crf_models WHERE name = ?", name).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %q", ErrModelNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("modelstore: load %q: %w", name, err)
	}
	var snap crf.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("modelstore: load %q: %w: %w", name, crf.ErrMalformedModelData, err)
	}
	return &snap, nil
}

// List returns metadata for all stored snapshots, newest first.
func (s *Store) List(ctx context.Context) ([]Info, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT name, num_features, num_labels, created_at FROM crf_models ORDER BY created_at DESC, name")
	if err != nil {
		return nil, fmt.Errorf("modelstore: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var infos []Info
	for rows.Next() {
		var info Info
		var createdAt int64
		if err := rows.Scan(&info.Name, &info.NumFeatures, &info.NumLabels, &createdAt); err != nil {
			return nil, fmt.Errorf("modelstore: %w", err)
		}
		info.CreatedAt = time.Unix(createdAt, 0).UTC()
		infos = append(infos, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("modelstore: %w", err)
	}
	return infos, nil
}

// Delete removes a stored snapshot by name.
func (s *Store) Delete(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM crf_models WHERE name = ?", name)
	if err != nil {
		return fmt.Errorf("modelstore: delete %q: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("modelstore: delete %q: %w", name, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %q", ErrModelNotFound, name)
	}
	return nil
}
