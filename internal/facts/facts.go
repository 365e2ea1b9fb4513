// Package facts exports the graph index as Mangle (Datalog) facts so it can
// be queried with rules, and computes the transitive required closure with
// the Mangle engine.
package facts

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/google/mangle/analysis"
	"github.com/google/mangle/ast"
	"github.com/google/mangle/engine"
	"github.com/google/mangle/factstore"
	"github.com/google/mangle/parse"

	"ctxgraph/internal/graph"
	"ctxgraph/internal/logging"
)

// Schema declares every exported predicate. edge holds resolved required
// dependencies between node ids; requires and optional keep the raw
// references as written.
const Schema = `Decl node(Id, Type, Path).
Decl title(Id, Title).
Decl domain(Id, Domain).
Decl specialist(Id, Specialist).
Decl requires(Id, Ref).
Decl optional(Id, Ref, When).
Decl provides(Id, Capability).
Decl edge(From, To).
`

// Rules derives depends/2, the transitive closure of edge/2.
const Rules = `Decl depends(From, To).
depends(X, Y) :- edge(X, Y).
depends(X, Z) :- depends(X, Y), edge(Y, Z).
`

// derivedFactLimit caps closure evaluation on very large corpora.
const derivedFactLimit = 1000000

// Atoms returns the facts for every node, in scan order.
func Atoms(r *graph.Resolver) []ast.Atom {
	var atoms []ast.Atom
	for _, n := range r.Index().Ordered() {
		id := ast.String(n.ID)
		atoms = append(atoms,
			ast.NewAtom("node", id, ast.String(n.Type), ast.String(n.Path)),
			ast.NewAtom("title", id, ast.String(n.Title)),
		)
		if n.Domain != "" {
			atoms = append(atoms, ast.NewAtom("domain", id, ast.String(n.Domain)))
		}
		if n.Specialist != "" {
			atoms = append(atoms, ast.NewAtom("specialist", id, ast.String(n.Specialist)))
		}
		for _, ref := range n.Requires {
			atoms = append(atoms, ast.NewAtom("requires", id, ast.String(ref)))
			if to, ok := r.Resolve(ref); ok {
				atoms = append(atoms, ast.NewAtom("edge", id, ast.String(to)))
			}
		}
		for _, opt := range n.Optional {
			atoms = append(atoms, ast.NewAtom("optional", id, ast.String(opt.Path), ast.String(opt.When)))
		}
		for _, p := range n.Provides {
			atoms = append(atoms, ast.NewAtom("provides", id, ast.String(p)))
		}
	}
	return atoms
}

// Program renders the schema followed by one fact per line.
func Program(r *graph.Resolver) string {
	var sb strings.Builder
	sb.WriteString(Schema)
	sb.WriteString("\n")
	for _, a := range Atoms(r) {
		sb.WriteString(a.String())
		sb.WriteString(".\n")
	}
	return sb.String()
}

// Write writes Program(r) to w.
func Write(w io.Writer, r *graph.Resolver) error {
	_, err := io.WriteString(w, Program(r))
	return err
}

// Closure evaluates Rules over the exported facts and returns, for every
// node with at least one resolvable requirement, the sorted ids it
// transitively requires.
func Closure(r *graph.Resolver) (map[string][]string, error) {
	timer := logging.StartTimer(logging.CategoryGraph, "facts.Closure")
	defer timer.Stop()

	unit, err := parse.Unit(strings.NewReader(Program(r) + "\n" + Rules))
	if err != nil {
		return nil, fmt.Errorf("failed to parse program: %w", err)
	}
	programInfo, err := analysis.AnalyzeOneUnit(unit, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to analyze program: %w", err)
	}

	store := factstore.NewSimpleInMemoryStore()
	if _, err := engine.EvalProgramWithStats(programInfo, store,
		engine.WithCreatedFactLimit(derivedFactLimit)); err != nil {
		return nil, fmt.Errorf("failed to evaluate program: %w", err)
	}

	out := make(map[string][]string)
	depends := ast.PredicateSym{Symbol: "depends", Arity: 2}
	err = store.GetFacts(ast.NewQuery(depends), func(a ast.Atom) error {
		from, ok1 := stringArg(a, 0)
		to, ok2 := stringArg(a, 1)
		if !ok1 || !ok2 {
			return fmt.Errorf("unexpected fact %s", a.String())
		}
		out[from] = append(out[from], to)
		return nil
	})
	if err != nil {
		return nil, err
	}
	for id := range out {
		sort.Strings(out[id])
	}
	logging.Get(logging.CategoryGraph).Debug("Closure covers %d nodes", len(out))
	return out, nil
}

func stringArg(a ast.Atom, i int) (string, bool) {
	if i >= len(a.Args) {
		return "", false
	}
	c, ok := a.Args[i].(ast.Constant)
	if !ok || c.Type != ast.StringType {
		return "", false
	}
	return c.Symbol, true
}
