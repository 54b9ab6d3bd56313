package index

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"ragkit/internal/domain"
)

// ErrSnapshotNotFound is returned by Load when the snapshot file does not
// exist at the resolved path.
var ErrSnapshotNotFound = errors.New("snapshot file not found")

type snapshotEntry struct {
	Chunk     domain.Chunk `json:"chunk"`
	Embedding []float32    `json:"embedding"`
}

// Persist writes every record as a {chunk, embedding} pair to a flat JSON
// array, creating parent directories as needed.
func (ix *Index) Persist(path string) error {
	entries := make([]snapshotEntry, len(ix.records))
	for i, rec := range ix.records {
		entries[i] = snapshotEntry{Chunk: rec.chunk, Embedding: rec.vector}
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create snapshot directory: %w", err)
		}
	}

	return os.WriteFile(path, data, 0644)
}

// Load reads a snapshot and rebuilds the index by replaying AddMany over
// the stored pairs, preserving insertion order.
func Load(path string) (*Index, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrSnapshotNotFound, abs)
		}
		return nil, fmt.Errorf("failed to read snapshot %s: %w", abs, err)
	}

	var entries []snapshotEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot %s: %w", abs, err)
	}

	ix := New()
	for _, e := range entries {
		if err := ix.AddMany([]domain.Chunk{e.Chunk}, [][]float32{e.Embedding}); err != nil {
			return nil, err
		}
	}
	return ix, nil
}
