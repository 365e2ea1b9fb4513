package facts

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/mangle/parse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ctxgraph/internal/graph"
	"ctxgraph/internal/pathutil"
)

func resolverFor(t *testing.T, docs map[string]string) *graph.Resolver {
	t.Helper()
	ws := t.TempDir()
	for rel, content := range docs {
		path := filepath.Join(ws, "knowledge", rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	paths := pathutil.Normalizer{Home: t.TempDir(), Workspace: ws}
	ix, _, err := graph.NewBuilder(graph.Options{
		Roots:      []string{"knowledge"},
		Extensions: []string{".md"},
		Paths:      paths,
	}).Build(context.Background())
	require.NoError(t, err)
	return graph.NewResolver(ix, paths)
}

func predicates(atoms []string) map[string]int {
	out := make(map[string]int)
	for _, a := range atoms {
		out[a[:strings.Index(a, "(")]]++
	}
	return out
}

func TestAtoms(t *testing.T) {
	r := resolverFor(t, map[string]string{
		"a.md": "---\nid: a\ntype: specialist\ndomain: ops\nspecialist: sre\nrequires:\n  - b.md\n  - ghost\noptional:\n  - path: x.md\n    when: deploy\nprovides:\n  - deploy\n---\n",
		"b.md": "---\nid: b\n---\n",
	})

	var rendered []string
	for _, a := range Atoms(r) {
		rendered = append(rendered, a.String())
	}

	assert.Equal(t, map[string]int{
		"node":       2,
		"title":      2,
		"domain":     1,
		"specialist": 1,
		"requires":   2,
		"edge":       1,
		"optional":   1,
		"provides":   1,
	}, predicates(rendered))
	assert.Contains(t, rendered[0], `"a"`)
	assert.Contains(t, rendered[0], `"specialist"`)
}

func TestProgramParses(t *testing.T) {
	r := resolverFor(t, map[string]string{
		"a.md": "---\nid: a\nrequires:\n  - b\n---\n",
		"b.md": "---\nid: b\ntitle: Bee\n---\n",
	})

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, r))
	assert.Equal(t, Program(r), buf.String())
	assert.True(t, strings.HasPrefix(buf.String(), "Decl node(Id, Type, Path)."))

	unit, err := parse.Unit(strings.NewReader(buf.String()))
	require.NoError(t, err)
	assert.Len(t, unit.Clauses, len(Atoms(r)))
}

func TestClosure(t *testing.T) {
	r := resolverFor(t, map[string]string{
		"a.md":    "---\nid: a\nrequires:\n  - b\n  - missing\n---\n",
		"b.md":    "---\nid: b\nrequires:\n  - c.md\n---\n",
		"c.md":    "---\nid: c\n---\n",
		"x.md":    "---\nid: x\nrequires:\n  - y\n---\n",
		"y.md":    "---\nid: y\nrequires:\n  - x\n---\n",
		"solo.md": "---\nid: solo\n---\n",
	})

	closure, err := Closure(r)
	require.NoError(t, err)
	assert.Equal(t, map[string][]string{
		"a": {"b", "c"},
		"b": {"c"},
		"x": {"x", "y"},
		"y": {"x", "y"},
	}, closure)
}

func TestClosure_EmptyIndex(t *testing.T) {
	closure, err := Closure(graph.NewResolver(graph.NewIndex(), pathutil.Normalizer{Workspace: "/"}))
	require.NoError(t, err)
	assert.Empty(t, closure)
}
