// Package store persists the graph index between invocations so that
// resolve, summary and show do not rescan the corpus every time.
package store

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"ctxgraph/internal/graph"
)

// ErrNoSnapshot is returned by Load when nothing has been saved yet.
var ErrNoSnapshot = errors.New("no index snapshot")

// Snapshot backends.
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

// Snapshotter saves and loads a whole index. A save replaces the previous
// snapshot; there is no partial update.
type Snapshotter interface {
	Save(ctx context.Context, ix *graph.Index) error
	Load(ctx context.Context) (*graph.Index, error)
	Path() string
	Close() error
}

// BackendFor picks a backend. An empty backend is chosen by file
// extension: .db, .sqlite and .sqlite3 use SQLite, anything else JSON.
func BackendFor(path, backend string) string {
	if backend != "" {
		return backend
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		return BackendSQLite
	default:
		return BackendJSON
	}
}

// Open returns the snapshotter for path.
func Open(path, backend string) (Snapshotter, error) {
	if path == "" {
		return nil, fmt.Errorf("snapshot path is empty")
	}
	switch b := BackendFor(path, backend); b {
	case BackendJSON:
		return NewJSONStore(path), nil
	case BackendSQLite:
		return NewSQLiteStore(path)
	default:
		return nil, fmt.Errorf("unknown snapshot backend: %s", b)
	}
}
