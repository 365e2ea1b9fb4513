package system

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ctxgraph/internal/assemble"
	"ctxgraph/internal/config"
	"ctxgraph/internal/external"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	ws := t.TempDir()
	writeFile(t, filepath.Join(ws, "knowledge", "a.md"), "---\nid: a\ntype: specialist\nrequires:\n  - b\noptional:\n  - path: ~/gdrive/extra.md\n    when: deploy\n---\nA body\n")
	writeFile(t, filepath.Join(ws, "knowledge", "b.md"), "---\nid: b\n---\nB body\n")

	cfg := config.DefaultConfig()
	cfg.Workspace = ws
	return cfg
}

func TestBoot_RejectsInvalidConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Roots = nil
	_, err := Boot(context.Background(), cfg)
	assert.ErrorIs(t, err, config.ErrInvalid)
}

func TestEngine_IndexScansThenLoadsSnapshot(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)

	e, err := Boot(ctx, cfg)
	require.NoError(t, err)
	defer e.Close()

	assert.Equal(t, filepath.Join(cfg.Workspace, ".cache", "knowledge_graph.json"), e.Store.Path())
	assert.IsType(t, &external.CachedLoader{}, e.Loader)

	ix, err := e.Index(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, ix.Len())
	require.NotNil(t, e.Report(), "first run scans the corpus")
	assert.FileExists(t, e.Store.Path())

	// A second engine reads the snapshot even after the corpus changes.
	writeFile(t, filepath.Join(cfg.Workspace, "knowledge", "c.md"), "---\nid: c\n---\n")
	e2, err := Boot(ctx, cfg)
	require.NoError(t, err)
	defer e2.Close()

	ix2, err := e2.Index(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, ix2.Len())
	assert.Nil(t, e2.Report())

	ix3, report, err := e2.Rebuild(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, ix3.Len())
	assert.Equal(t, 3, report.Indexed)

	cur, err := e2.Index(ctx)
	require.NoError(t, err)
	assert.Same(t, ix3, cur)
}

func TestEngine_CorruptSnapshotRebuilds(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	writeFile(t, filepath.Join(cfg.Workspace, ".cache", "knowledge_graph.json"), "{broken")

	e, err := Boot(ctx, cfg)
	require.NoError(t, err)
	defer e.Close()

	ix, err := e.Index(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, ix.Len())
}

func TestEngine_SQLiteBackend(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	cfg.Cache.Path = filepath.Join("state", "graph.db")

	e, err := Boot(ctx, cfg)
	require.NoError(t, err)
	defer e.Close()

	_, err = e.Index(ctx)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(cfg.Workspace, "state", "graph.db"))
}

func TestEngine_Assembler(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	home := t.TempDir()
	t.Setenv("HOME", home)
	writeFile(t, filepath.Join(home, "gdrive", "extra.md"), "Extra")

	e, err := Boot(ctx, cfg)
	require.NoError(t, err)
	defer e.Close()

	a, err := e.Assembler(ctx)
	require.NoError(t, err)

	b, err := a.Assemble(ctx, assemble.Request{Entry: "a", Task: "deploy it"})
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, b.Nodes)
	assert.Equal(t, "Extra", b.External["extra.md"])
}

func TestEngine_NoExternalCache(t *testing.T) {
	cfg := testConfig(t)
	cfg.External.CacheSize = 0

	e, err := Boot(context.Background(), cfg)
	require.NoError(t, err)
	defer e.Close()
	assert.IsType(t, &external.Mux{}, e.Loader)
}

func TestEngine_S3LoaderWired(t *testing.T) {
	cfg := testConfig(t)
	cfg.External.S3.Endpoint = "127.0.0.1:9000"
	cfg.External.S3.UseSSL = false

	e, err := Boot(context.Background(), cfg)
	require.NoError(t, err)
	defer e.Close()
	assert.NotNil(t, e.Loader)
}

func TestEngine_CloseIsIdempotent(t *testing.T) {
	e, err := Boot(context.Background(), testConfig(t))
	require.NoError(t, err)
	require.NoError(t, e.Close())
	require.NoError(t, e.Close())

	var nilEngine *Engine
	assert.NoError(t, nilEngine.Close())
}
