package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Snapshot is the persisted form of the semantic cache: three parallel
// arrays sharing a common index. The JSON layout is the cache file format
// the service has always used, so existing cache files keep working.
type Snapshot struct {
	Questions  []string    `json:"questions"`
	Embeddings [][]float32 `json:"embeddings"`
	Answers    []string    `json:"answers"`
}

// Store persists cache snapshots. Save always writes the whole snapshot;
// the cache is append-only and small, so wholesale rewrites are fine.
type Store interface {
	Load() (*Snapshot, error)
	Save(snap *Snapshot) error
}

// FileStore persists the snapshot as a single JSON file.
type FileStore struct {
	path string
}

// NewFileStore creates a FileStore writing to the given path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load reads the snapshot from disk. A missing file is not an error: it
// returns an empty snapshot so a fresh deployment starts with an empty
// cache.
func (s *FileStore) Load() (*Snapshot, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Snapshot{}, nil
		}
		return nil, fmt.Errorf("failed to read cache file: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to decode cache file: %w", err)
	}
	return &snap, nil
}

// Save rewrites the whole cache file.
func (s *FileStore) Save(snap *Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode cache snapshot: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create cache directory: %w", err)
		}
	}

	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}
	return nil
}

var _ Store = (*FileStore)(nil)
