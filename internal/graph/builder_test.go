package graph

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ctxgraph/internal/pathutil"
)

func writeDoc(t *testing.T, root, rel, content string) string {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func buildIn(t *testing.T, ws string, roots ...string) (*Index, *BuildReport) {
	t.Helper()
	b := NewBuilder(Options{
		Roots:      roots,
		Extensions: []string{".md", ".yaml", ".yml"},
		Paths:      pathutil.Normalizer{Home: "/nonexistent-home", Workspace: ws},
	})
	ix, report, err := b.Build(context.Background())
	require.NoError(t, err)
	return ix, report
}

func TestBuild_IndexesDocuments(t *testing.T) {
	ws := t.TempDir()
	aPath := writeDoc(t, ws, "knowledge/a.md", "---\nid: alpha\ntype: specialist\ndomain: infra\nrequires:\n  - b.md\noptional:\n  - path: c.md\n    when: deploy\n  - d.md\n  - when: orphan\nprovides:\n  - ops\n---\nAlpha body\n")
	bPath := writeDoc(t, ws, "knowledge/sub/b.md", "No header here\n")
	writeDoc(t, ws, "config/settings.yaml", "---\ntype: config\ntitle: Settings\n---\n")
	writeDoc(t, ws, "knowledge/notes.txt", "---\nid: ignored\n---\n")
	writeDoc(t, ws, "knowledge/.hidden.md", "---\nid: hidden\n---\n")
	writeDoc(t, ws, "knowledge/.git/x.md", "---\nid: in-hidden-dir\n---\n")

	ix, report := buildIn(t, ws, "knowledge", "config", "routines")

	assert.Equal(t, 3, ix.Len())
	assert.Equal(t, 3, report.Seen)
	assert.Equal(t, 3, report.Indexed)
	assert.Empty(t, report.Collisions)

	a, ok := ix.Node("alpha")
	require.True(t, ok)
	assert.Equal(t, "specialist", a.Type)
	assert.Equal(t, "infra", a.Domain)
	assert.Equal(t, "a", a.Title)
	assert.Equal(t, aPath, a.Path)
	assert.Equal(t, []string{"b.md"}, a.Requires)
	assert.Equal(t, []Reference{Conditional("c.md", "deploy"), Plain("d.md")}, a.Optional)
	assert.Equal(t, []string{"ops"}, a.Provides)

	b, ok := ix.Node("b")
	require.True(t, ok)
	assert.Equal(t, DefaultType, b.Type)
	assert.Equal(t, "b", b.Title)
	assert.Equal(t, "b", ix.ByPath[bPath])

	settings, ok := ix.Node("settings")
	require.True(t, ok)
	assert.Equal(t, "Settings", settings.Title)

	assert.Equal(t, []string{"config", "specialist", DefaultType}, ix.Types())
	assert.Contains(t, ix.Edges, Edge{From: "alpha", To: "b.md", Kind: EdgeRequires})
	assert.Contains(t, ix.Edges, Edge{From: "alpha", To: "c.md", Kind: EdgeOptional})
}

func TestBuild_CollisionLastScannedWins(t *testing.T) {
	ws := t.TempDir()
	first := writeDoc(t, ws, "knowledge/a/doc.md", "---\nid: dup\ntype: one\nrequires:\n  - x\n---\n")
	second := writeDoc(t, ws, "knowledge/b/doc.md", "---\nid: dup\ntype: two\n---\n")

	ix, report := buildIn(t, ws, "knowledge")

	require.Len(t, report.Collisions, 1)
	assert.Equal(t, Collision{ID: "dup", Loser: first, Winner: second}, report.Collisions[0])

	n, _ := ix.Node("dup")
	assert.Equal(t, second, n.Path)
	assert.Equal(t, "dup", ix.ByPath[first], "replaced path resolves to the surviving node")
	id, ok := NewResolver(ix, pathutil.Normalizer{Workspace: ws}).Resolve(first)
	require.True(t, ok)
	assert.Equal(t, "dup", id)
	assert.Equal(t, []string{"two"}, ix.Types())
	for _, e := range ix.Edges {
		assert.NotEqual(t, "x", e.To, "replaced node's edges must be dropped")
	}
}

func TestBuild_OverlappingRootsScanOnce(t *testing.T) {
	ws := t.TempDir()
	writeDoc(t, ws, "knowledge/a.md", "---\nid: a\n---\n")
	writeDoc(t, ws, "knowledge/sub/b.md", "---\nid: b\n---\n")

	for _, roots := range [][]string{
		{"knowledge", "knowledge/sub"},
		{"knowledge/sub", "knowledge"},
		{"knowledge", "knowledge/"},
	} {
		t.Run(roots[0]+"+"+roots[1], func(t *testing.T) {
			ix, report := buildIn(t, ws, roots...)
			assert.Empty(t, report.Collisions)
			assert.Equal(t, 2, report.Seen)
			assert.Equal(t, 2, report.Indexed)
			assert.Equal(t, 2, ix.Len())
		})
	}
}

func TestBuild_ToleratesBadInput(t *testing.T) {
	ws := t.TempDir()
	writeDoc(t, ws, "knowledge/bad.md", "---\nid: bad\n\xff\xferequires:\n  - ok\n---\n")
	writeDoc(t, ws, "knowledge/unterminated.md", "---\nid: never\n")

	ix, _ := buildIn(t, ws, "knowledge", "missing-root")

	bad, ok := ix.Node("bad")
	require.True(t, ok)
	assert.Equal(t, []string{"ok"}, bad.Requires)
	_, ok = ix.Node("unterminated")
	assert.True(t, ok, "document without closing marker is indexed by stem")
}

func TestBuild_UnreadableFileIsSkipped(t *testing.T) {
	ws := t.TempDir()
	writeDoc(t, ws, "knowledge/good.md", "---\nid: good\n---\n")
	writeDoc(t, ws, "knowledge/broken.md", "---\nid: broken\n---\n")

	b := NewBuilder(Options{Roots: []string{"knowledge"}, Extensions: []string{".md"}, Paths: pathutil.Normalizer{Workspace: ws}})
	b.readFile = func(p string) ([]byte, error) {
		if filepath.Base(p) == "broken.md" {
			return nil, os.ErrPermission
		}
		return os.ReadFile(p)
	}
	ix, report, err := b.Build(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, ix.Len())
	require.Len(t, report.Skipped, 1)
	assert.Equal(t, "broken.md", filepath.Base(report.Skipped[0].Path))
}

func TestBuild_ExtensionsCaseInsensitive(t *testing.T) {
	ws := t.TempDir()
	writeDoc(t, ws, "knowledge/UPPER.MD", "---\nid: upper\n---\n")

	ix, _ := buildIn(t, ws, "knowledge")
	_, ok := ix.Node("upper")
	assert.True(t, ok)
}

func TestBuild_Cancelled(t *testing.T) {
	ws := t.TempDir()
	writeDoc(t, ws, "knowledge/a.md", "x")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := NewBuilder(Options{Roots: []string{"knowledge"}, Extensions: []string{".md"}, Paths: pathutil.Normalizer{Workspace: ws}}).Build(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNodeFromHeader_RequiresRecordContributesPath(t *testing.T) {
	ws := t.TempDir()
	writeDoc(t, ws, "k/a.md", "---\nrequires:\n  - path: b.md\n    when: ignored\n  - c.md\n---\n")

	ix, _ := buildIn(t, ws, "k")
	a, _ := ix.Node("a")
	assert.Equal(t, []string{"b.md", "c.md"}, a.Requires)
}
