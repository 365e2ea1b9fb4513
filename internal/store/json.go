package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"ctxgraph/internal/graph"
	"ctxgraph/internal/logging"
)

// JSONStore keeps the index as one indented JSON document.
type JSONStore struct {
	path string
}

// NewJSONStore creates a store for path. Nothing is touched until Save.
func NewJSONStore(path string) *JSONStore {
	return &JSONStore{path: path}
}

// Path returns the snapshot file.
func (s *JSONStore) Path() string { return s.path }

// Close is a no-op.
func (s *JSONStore) Close() error { return nil }

// Save writes ix to a temporary file next to the snapshot and renames it
// into place, so readers never see a half-written file.
func (s *JSONStore) Save(ctx context.Context, ix *graph.Index) error {
	timer := logging.StartTimer(logging.CategoryStore, "JSONStore.Save")
	defer timer.Stop()

	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.MarshalIndent(ix, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode index: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("failed to replace snapshot: %w", err)
	}

	logging.StoreDebug("Saved %d nodes to %s", ix.Len(), s.path)
	return nil
}

// Load reads the snapshot. A missing file yields ErrNoSnapshot.
func (s *JSONStore) Load(ctx context.Context) (*graph.Index, error) {
	timer := logging.StartTimer(logging.CategoryStore, "JSONStore.Load")
	defer timer.Stop()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	ix := graph.NewIndex()
	if err := json.Unmarshal(data, ix); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot %s: %w", s.path, err)
	}
	if ix.Nodes == nil {
		ix.Nodes = make(map[string]*graph.Node)
	}
	ix.Reindex()

	logging.StoreDebug("Loaded %d nodes from %s", ix.Len(), s.path)
	return ix, nil
}
