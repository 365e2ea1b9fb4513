package graph

import (
	"path/filepath"
	"strings"

	"ctxgraph/internal/pathutil"
)

// Resolver maps references to node ids against one Index.
type Resolver struct {
	ix    *Index
	paths pathutil.Normalizer
}

// NewResolver binds a resolver to ix. paths must be the normalizer the
// index was built with.
func NewResolver(ix *Index, paths pathutil.Normalizer) *Resolver {
	return &Resolver{ix: ix, paths: paths}
}

// Index returns the index the resolver reads.
func (r *Resolver) Index() *Index {
	return r.ix
}

// Paths returns the normalizer used for path matching.
func (r *Resolver) Paths() pathutil.Normalizer {
	return r.paths
}

// Resolve maps ref to a node id, trying in order:
//
//  1. ref is a node id
//  2. the expanded ref is an indexed path
//  3. an indexed path ends with ref on a path-component boundary
//  4. an indexed path ends with ref at all, so "nowledge/b.md" still
//     finds ".../knowledge/b.md"
//
// Within steps 3 and 4 the lexicographically smallest path wins. It
// reports false when nothing matches.
func (r *Resolver) Resolve(ref string) (string, bool) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", false
	}
	if _, ok := r.ix.Nodes[ref]; ok {
		return ref, true
	}
	if id, ok := r.ix.ByPath[r.paths.Expand(ref)]; ok {
		return id, true
	}

	suffix := filepath.Clean(ref)
	if id, ok := r.smallestMatch(func(path string) bool { return hasPathSuffix(path, suffix) }); ok {
		return id, true
	}
	return r.smallestMatch(func(path string) bool { return strings.HasSuffix(path, ref) })
}

func (r *Resolver) smallestMatch(match func(path string) bool) (string, bool) {
	var bestPath, bestID string
	for path, id := range r.ix.ByPath {
		if !match(path) {
			continue
		}
		if bestPath == "" || path < bestPath {
			bestPath, bestID = path, id
		}
	}
	return bestID, bestPath != ""
}

func hasPathSuffix(path, suffix string) bool {
	if path == suffix {
		return true
	}
	return strings.HasSuffix(path, string(filepath.Separator)+suffix)
}
