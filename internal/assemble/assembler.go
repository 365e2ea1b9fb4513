// Package assemble turns a resolved entry into a context bundle: the text
// of every required document plus the external references selected for
// the task.
package assemble

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"ctxgraph/internal/external"
	"ctxgraph/internal/graph"
	"ctxgraph/internal/logging"
	"ctxgraph/internal/metrics"
	"ctxgraph/internal/pathutil"
)

// ErrUnresolvedRequired is returned in strict mode when a required
// reference matched nothing or a required external could not be loaded.
var ErrUnresolvedRequired = errors.New("unresolved required reference")

// Request describes one assembly.
type Request struct {
	Entry    string
	Workflow string
	Task     string
	Pills    []string
	// Strict turns unresolved required references into ErrUnresolvedRequired.
	Strict bool
}

// Assembler builds bundles against one index.
type Assembler struct {
	resolver *graph.Resolver
	loader   external.Loader
	roots    []string
	readFile func(string) ([]byte, error)
}

// New creates an assembler. roots are the expanded corpus roots; a home or
// absolute reference outside all of them is treated as external.
func New(resolver *graph.Resolver, loader external.Loader, roots []string) *Assembler {
	return &Assembler{
		resolver: resolver,
		loader:   loader,
		roots:    roots,
		readFile: os.ReadFile,
	}
}

// Assemble resolves req and loads everything it needs. Missing files and
// unresolved references are left out and recorded on the bundle; with
// req.Strict set they also produce ErrUnresolvedRequired. The partially
// filled bundle is returned alongside any error.
func (a *Assembler) Assemble(ctx context.Context, req Request) (*Bundle, error) {
	timer := logging.StartTimer(logging.CategoryAssemble, "Assemble")
	defer timer.Stop()

	ix := a.resolver.Index()
	b := newBundle(req.Entry, req.Workflow)

	entryID, ok := a.resolver.Resolve(req.Entry)
	if !ok {
		b.Unresolved = append(b.Unresolved, req.Entry)
		if req.Strict {
			return b, fmt.Errorf("entry %q: %w", req.Entry, ErrUnresolvedRequired)
		}
		return b, nil
	}
	b.Entry = entryID
	entry := ix.Nodes[entryID]
	b.Metadata = Metadata{Type: entry.Type, Specialist: entry.Specialist, Title: entry.Title}

	b.Nodes = a.resolver.Dependencies(entryID, false)
	if req.Workflow != "" {
		wf := a.resolver.Dependencies(req.Workflow, false)
		if wf == nil {
			b.Unresolved = append(b.Unresolved, req.Workflow)
		}
		for _, id := range wf {
			b.Nodes = appendUnique(b.Nodes, id)
		}
	}

	sel := NewSelector(req.Task, req.Pills)
	policy := string(sel.Policy())
	var required, optional []string

	for _, id := range b.Nodes {
		node := ix.Nodes[id]
		data, err := a.readFile(node.Path)
		if err != nil {
			logging.AssembleDebug("Skipping %s: %v", id, err)
			continue
		}
		b.Files[id] = strings.ToValidUTF8(string(data), "")

		for _, ref := range node.Requires {
			if a.isExternal(ref) {
				required = appendUnique(required, ref)
				continue
			}
			if _, ok := a.resolver.Resolve(ref); !ok {
				logging.AssembleDebug("%s requires %q which matches no node", id, ref)
				b.Unresolved = appendUnique(b.Unresolved, ref)
			}
		}

		for _, opt := range node.Optional {
			if sel.Select(opt) {
				optional = appendUnique(optional, opt.Path)
				metrics.OptionalSelections.WithLabelValues(policy, "selected").Inc()
			} else {
				b.SkippedOptional = append(b.SkippedOptional, opt.Path)
				metrics.OptionalSelections.WithLabelValues(policy, "skipped").Inc()
			}
		}
	}

	for _, ref := range required {
		if !a.loadExternal(ctx, b, ref, ref) {
			b.MissingExternal = append(b.MissingExternal, ref)
		}
	}
	for _, ref := range optional {
		a.loadExternal(ctx, b, ref, a.locate(ref))
	}

	if err := ctx.Err(); err != nil {
		return b, err
	}
	if req.Strict && (len(b.Unresolved) > 0 || len(b.MissingExternal) > 0) {
		missing := append(append([]string(nil), b.Unresolved...), b.MissingExternal...)
		return b, fmt.Errorf("%w: %s", ErrUnresolvedRequired, strings.Join(missing, ", "))
	}
	return b, nil
}

// isExternal reports whether a required reference lives outside the
// corpus: a remote URL, or an absolute or home path outside every root.
func (a *Assembler) isExternal(ref string) bool {
	if external.HasScheme(ref) {
		return true
	}
	if !pathutil.IsAnchored(ref) {
		return false
	}
	p := a.resolver.Paths().Expand(ref)
	for _, root := range a.roots {
		if pathutil.Within(p, root) {
			return false
		}
	}
	return true
}

// locate maps an optional reference that names an indexed document to
// that document's path, so corpus-relative references load too.
func (a *Assembler) locate(ref string) string {
	if external.HasScheme(ref) {
		return ref
	}
	if id, ok := a.resolver.Resolve(ref); ok {
		return a.resolver.Index().Nodes[id].Path
	}
	return ref
}

func (a *Assembler) loadExternal(ctx context.Context, b *Bundle, ref, location string) bool {
	text, ok := a.loader.Load(ctx, location)
	if !ok || text == "" {
		logging.AssembleDebug("External %s not loaded", ref)
		return false
	}
	b.addExternal(pathutil.Base(ref), text)
	return true
}
