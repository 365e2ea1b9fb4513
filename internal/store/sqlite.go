package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"ctxgraph/internal/graph"
	"ctxgraph/internal/logging"
)

// SQLiteStore keeps the index in a SQLite database: one row per node, per
// edge and per indexed path, rewritten wholesale on every save.
type SQLiteStore struct {
	db     *sql.DB
	mu     sync.Mutex
	dbPath string
}

// NewSQLiteStore opens (creating if needed) the database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db, dbPath: path}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) initialize() error {
	nodesTable := `
	CREATE TABLE IF NOT EXISTS nodes (
		id TEXT PRIMARY KEY,
		position INTEGER NOT NULL,
		type TEXT NOT NULL,
		path TEXT NOT NULL,
		title TEXT NOT NULL,
		specialist TEXT,
		domain TEXT,
		requires TEXT NOT NULL,
		optional TEXT NOT NULL,
		provides TEXT NOT NULL,
		metadata TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_nodes_type ON nodes(type);
	CREATE INDEX IF NOT EXISTS idx_nodes_path ON nodes(path);
	`

	edgesTable := `
	CREATE TABLE IF NOT EXISTS edges (
		position INTEGER NOT NULL,
		from_id TEXT NOT NULL,
		to_ref TEXT NOT NULL,
		kind TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_edges_from ON edges(from_id);
	`

	pathsTable := `
	CREATE TABLE IF NOT EXISTS paths (
		path TEXT PRIMARY KEY,
		node_id TEXT NOT NULL
	);
	`

	metaTable := `
	CREATE TABLE IF NOT EXISTS snapshot_meta (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		node_count INTEGER NOT NULL,
		saved_at DATETIME NOT NULL
	);
	`

	for _, table := range []string{nodesTable, edgesTable, pathsTable, metaTable} {
		if _, err := s.db.Exec(table); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}
	return nil
}

// Path returns the database file.
func (s *SQLiteStore) Path() string { return s.dbPath }

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Save replaces the stored index with ix in a single transaction.
func (s *SQLiteStore) Save(ctx context.Context, ix *graph.Index) (err error) {
	timer := logging.StartTimer(logging.CategoryStore, "SQLiteStore.Save")
	defer timer.Stop()

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	for _, stmt := range []string{"DELETE FROM edges", "DELETE FROM paths", "DELETE FROM nodes", "DELETE FROM snapshot_meta"} {
		if _, err = tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to clear snapshot: %w", err)
		}
	}

	insertNode, err := tx.PrepareContext(ctx,
		`INSERT INTO nodes (id, position, type, path, title, specialist, domain, requires, optional, provides, metadata)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare node insert: %w", err)
	}
	defer insertNode.Close()

	for i, n := range ix.Ordered() {
		var cols []interface{}
		if cols, err = encodeNode(n); err != nil {
			return err
		}
		args := append([]interface{}{n.ID, i, n.Type, n.Path, n.Title, n.Specialist, n.Domain}, cols...)
		if _, err = insertNode.ExecContext(ctx, args...); err != nil {
			logging.Get(logging.CategoryStore).Error("Failed to store node %s: %v", n.ID, err)
			return fmt.Errorf("failed to store node %s: %w", n.ID, err)
		}
	}

	insertEdge, err := tx.PrepareContext(ctx, `INSERT INTO edges (position, from_id, to_ref, kind) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare edge insert: %w", err)
	}
	defer insertEdge.Close()

	for i, e := range ix.Edges {
		if _, err = insertEdge.ExecContext(ctx, i, e.From, e.To, string(e.Kind)); err != nil {
			return fmt.Errorf("failed to store edge %s -> %s: %w", e.From, e.To, err)
		}
	}

	insertPath, err := tx.PrepareContext(ctx, `INSERT INTO paths (path, node_id) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare path insert: %w", err)
	}
	defer insertPath.Close()

	for _, p := range ix.Paths() {
		if _, err = insertPath.ExecContext(ctx, p, ix.ByPath[p]); err != nil {
			return fmt.Errorf("failed to store path %s: %w", p, err)
		}
	}

	if _, err = tx.ExecContext(ctx,
		`INSERT INTO snapshot_meta (id, node_count, saved_at) VALUES (1, ?, ?)`,
		ix.Len(), time.Now().UTC().Format(time.RFC3339)); err != nil {
		return fmt.Errorf("failed to store snapshot metadata: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit snapshot: %w", err)
	}
	logging.StoreDebug("Saved %d nodes and %d edges to %s", ix.Len(), len(ix.Edges), s.dbPath)
	return nil
}

// Load reads the stored index. A database that was never saved to yields
// ErrNoSnapshot.
func (s *SQLiteStore) Load(ctx context.Context) (*graph.Index, error) {
	timer := logging.StartTimer(logging.CategoryStore, "SQLiteStore.Load")
	defer timer.Stop()

	s.mu.Lock()
	defer s.mu.Unlock()

	var count int
	err := s.db.QueryRowContext(ctx, "SELECT node_count FROM snapshot_meta WHERE id = 1").Scan(&count)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot metadata: %w", err)
	}

	ix := graph.NewIndex()
	if err := s.loadNodes(ctx, ix); err != nil {
		return nil, err
	}
	if err := s.loadEdges(ctx, ix); err != nil {
		return nil, err
	}
	if err := s.loadPaths(ctx, ix); err != nil {
		return nil, err
	}
	ix.Reindex()

	if ix.Len() != count {
		logging.Get(logging.CategoryStore).Warn("Snapshot lists %d nodes but %d were read", count, ix.Len())
	}
	logging.StoreDebug("Loaded %d nodes from %s", ix.Len(), s.dbPath)
	return ix, nil
}

func (s *SQLiteStore) loadNodes(ctx context.Context, ix *graph.Index) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, type, path, title, specialist, domain, requires, optional, provides, metadata
		 FROM nodes ORDER BY position`)
	if err != nil {
		return fmt.Errorf("failed to query nodes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			n                                    graph.Node
			specialist, domain, metadata         sql.NullString
			requiresJSON, optionalJSON, provJSON string
		)
		if err := rows.Scan(&n.ID, &n.Type, &n.Path, &n.Title, &specialist, &domain,
			&requiresJSON, &optionalJSON, &provJSON, &metadata); err != nil {
			return fmt.Errorf("failed to scan node: %w", err)
		}
		n.Specialist = specialist.String
		n.Domain = domain.String
		if err := decodeNode(&n, requiresJSON, optionalJSON, provJSON, metadata.String); err != nil {
			return fmt.Errorf("node %s: %w", n.ID, err)
		}
		ix.Nodes[n.ID] = &n
		ix.Order = append(ix.Order, n.ID)
	}
	return rows.Err()
}

func (s *SQLiteStore) loadEdges(ctx context.Context, ix *graph.Index) error {
	rows, err := s.db.QueryContext(ctx, `SELECT from_id, to_ref, kind FROM edges ORDER BY position`)
	if err != nil {
		return fmt.Errorf("failed to query edges: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var e graph.Edge
		var kind string
		if err := rows.Scan(&e.From, &e.To, &kind); err != nil {
			return fmt.Errorf("failed to scan edge: %w", err)
		}
		e.Kind = graph.EdgeKind(kind)
		ix.Edges = append(ix.Edges, e)
	}
	return rows.Err()
}

func (s *SQLiteStore) loadPaths(ctx context.Context, ix *graph.Index) error {
	rows, err := s.db.QueryContext(ctx, `SELECT path, node_id FROM paths`)
	if err != nil {
		return fmt.Errorf("failed to query paths: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var path, id string
		if err := rows.Scan(&path, &id); err != nil {
			return fmt.Errorf("failed to scan path: %w", err)
		}
		ix.ByPath[path] = id
	}
	return rows.Err()
}

// encodeNode returns the JSON columns of n: requires, optional, provides,
// metadata.
func encodeNode(n *graph.Node) ([]interface{}, error) {
	cols := make([]interface{}, 0, 4)
	for _, v := range []interface{}{n.Requires, n.Optional, n.Provides, n.Metadata} {
		data, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("failed to encode node %s: %w", n.ID, err)
		}
		cols = append(cols, string(data))
	}
	return cols, nil
}

func decodeNode(n *graph.Node, requires, optional, provides, metadata string) error {
	if err := json.Unmarshal([]byte(requires), &n.Requires); err != nil {
		return fmt.Errorf("bad requires: %w", err)
	}
	if err := json.Unmarshal([]byte(optional), &n.Optional); err != nil {
		return fmt.Errorf("bad optional: %w", err)
	}
	if err := json.Unmarshal([]byte(provides), &n.Provides); err != nil {
		return fmt.Errorf("bad provides: %w", err)
	}
	if metadata != "" && metadata != "null" {
		if err := json.Unmarshal([]byte(metadata), &n.Metadata); err != nil {
			return fmt.Errorf("bad metadata: %w", err)
		}
	}
	if n.Requires == nil {
		n.Requires = []string{}
	}
	if n.Optional == nil {
		n.Optional = []graph.Reference{}
	}
	if n.Provides == nil {
		n.Provides = []string{}
	}
	return nil
}
