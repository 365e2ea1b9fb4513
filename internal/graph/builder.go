package graph

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"ctxgraph/internal/frontmatter"
	"ctxgraph/internal/logging"
	"ctxgraph/internal/metrics"
	"ctxgraph/internal/pathutil"
)

// Options configures a Builder.
type Options struct {
	Roots      []string // scanned in order; relative roots expand against Paths.Workspace
	Extensions []string // allow-list including the dot, compared case-insensitively
	Paths      pathutil.Normalizer
}

// Collision records an id claimed by more than one document. The later
// document (Winner) replaced the earlier one (Loser).
type Collision struct {
	ID     string
	Loser  string
	Winner string
}

// Skipped records a candidate file that was not indexed.
type Skipped struct {
	Path   string
	Reason string
}

// BuildReport summarizes one scan.
type BuildReport struct {
	Seen       int
	Indexed    int
	Collisions []Collision
	Skipped    []Skipped
}

// Builder scans corpus roots into an Index.
type Builder struct {
	opts       Options
	extensions map[string]bool
	readFile   func(string) ([]byte, error)
}

// NewBuilder creates a builder for the given roots and extensions.
func NewBuilder(opts Options) *Builder {
	exts := make(map[string]bool, len(opts.Extensions))
	for _, e := range opts.Extensions {
		exts[strings.ToLower(e)] = true
	}
	return &Builder{opts: opts, extensions: exts, readFile: os.ReadFile}
}

// Build walks every root and indexes each eligible document. Individual
// files that cannot be read are skipped and recorded; a missing root is
// skipped. The only error is cancellation of ctx.
func (b *Builder) Build(ctx context.Context) (*Index, *BuildReport, error) {
	timer := logging.StartTimer(logging.CategoryGraph, "Build")
	defer timer.Stop()

	ix := NewIndex()
	report := &BuildReport{}
	visited := make(map[string]bool)

	for _, root := range b.opts.Roots {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		dir := b.opts.Paths.Expand(root)
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			logging.ScanDebug("Skipping missing root %s", dir)
			continue
		}
		logging.ScanDebug("Scanning root %s", dir)
		if err := b.walk(ctx, dir, ix, report, visited); err != nil {
			return nil, nil, err
		}
	}

	metrics.NodesIndexed.Set(float64(ix.Len()))
	logging.Graph("Indexed %d nodes from %d files (%d skipped, %d collisions)",
		ix.Len(), report.Seen, len(report.Skipped), len(report.Collisions))
	return ix, report, nil
}

// walk indexes one root. visited holds directories already walked in this
// build, so nested or repeated roots scan each file once.
func (b *Builder) walk(ctx context.Context, root string, ix *Index, report *BuildReport, visited map[string]bool) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			b.skip(report, path, err.Error())
			if d != nil && d.IsDir() && path != root {
				return fs.SkipDir
			}
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if visited[path] {
				return fs.SkipDir
			}
			visited[path] = true
			return nil
		}
		if !b.eligible(path) {
			return nil
		}

		report.Seen++
		metrics.FilesScanned.Inc()
		node, ok := b.load(path, report)
		if !ok {
			return nil
		}
		if old := ix.Add(node); old != nil {
			report.Collisions = append(report.Collisions, Collision{ID: node.ID, Loser: old.Path, Winner: node.Path})
			metrics.IDCollisions.Inc()
			logging.GraphWarn("Duplicate id %q: %s replaces %s", node.ID, node.Path, old.Path)
		}
		report.Indexed++
		return nil
	})
}

func (b *Builder) eligible(path string) bool {
	return b.extensions[strings.ToLower(filepath.Ext(path))]
}

func (b *Builder) load(path string, report *BuildReport) (*Node, bool) {
	data, err := b.readFile(path)
	if err != nil {
		b.skip(report, path, err.Error())
		return nil, false
	}
	header, _ := frontmatter.Split(strings.ToValidUTF8(string(data), ""))
	return NodeFromHeader(path, header), true
}

func (b *Builder) skip(report *BuildReport, path, reason string) {
	report.Skipped = append(report.Skipped, Skipped{Path: path, Reason: reason})
	metrics.FilesSkipped.Inc()
	logging.ScanWarn("Skipping %s: %s", path, reason)
}

// NodeFromHeader derives a node from a document's path and parsed header.
func NodeFromHeader(path string, h *frontmatter.Header) *Node {
	stem := pathutil.Stem(path)
	n := &Node{
		ID:         h.Scalar("id"),
		Type:       h.Scalar("type"),
		Path:       path,
		Title:      h.Scalar("title"),
		Specialist: h.Scalar("specialist"),
		Domain:     h.Scalar("domain"),
		Requires:   []string{},
		Optional:   []Reference{},
		Provides:   []string{},
		Metadata:   h.Map(),
	}
	if n.ID == "" {
		n.ID = stem
	}
	if n.Type == "" {
		n.Type = DefaultType
	}
	if n.Title == "" {
		n.Title = stem
	}

	for _, it := range h.Items("requires") {
		ref := it.Scalar
		if it.IsRecord() {
			ref, _ = it.Record.Get("path")
		}
		if ref = strings.TrimSpace(ref); ref != "" {
			n.Requires = append(n.Requires, ref)
		}
	}

	for _, it := range h.Items("optional") {
		if !it.IsRecord() {
			if it.Scalar != "" {
				n.Optional = append(n.Optional, Plain(it.Scalar))
			}
			continue
		}
		p, ok := it.Record.Get("path")
		if !ok || p == "" {
			continue
		}
		when, _ := it.Record.Get("when")
		n.Optional = append(n.Optional, Conditional(p, when))
	}

	n.Provides = append(n.Provides, h.Strings("provides")...)
	return n
}
