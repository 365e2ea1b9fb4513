// Package graph builds the knowledge-graph index over a document corpus and
// resolves references and transitive dependencies against it.
package graph

import (
	"encoding/json"
	"fmt"
)

// DefaultType is assigned to documents without a type.
const DefaultType = "unknown"

// RefKind tags a Reference.
type RefKind int

const (
	// RefPlain is always eligible.
	RefPlain RefKind = iota
	// RefConditional is eligible when its predicate matches the task.
	RefConditional
)

// Reference points at another document by id, path or filename.
type Reference struct {
	Kind RefKind
	Path string
	When string // predicate; only meaningful for RefConditional
}

// Plain returns an unconditional reference.
func Plain(path string) Reference {
	return Reference{Kind: RefPlain, Path: path}
}

// Conditional returns a reference guarded by a task predicate.
func Conditional(path, when string) Reference {
	return Reference{Kind: RefConditional, Path: path, When: when}
}

// IsConditional reports whether r carries a predicate.
func (r Reference) IsConditional() bool {
	return r.Kind == RefConditional
}

func (r Reference) String() string {
	if r.IsConditional() {
		return fmt.Sprintf("%s (when %s)", r.Path, r.When)
	}
	return r.Path
}

type conditionalJSON struct {
	Path string `json:"path"`
	When string `json:"when"`
}

// MarshalJSON encodes plain references as strings and conditional ones as
// {"path", "when"} objects, the same shape the document header uses.
func (r Reference) MarshalJSON() ([]byte, error) {
	if r.IsConditional() {
		return json.Marshal(conditionalJSON{Path: r.Path, When: r.When})
	}
	return json.Marshal(r.Path)
}

// UnmarshalJSON accepts either shape produced by MarshalJSON.
func (r *Reference) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*r = Plain(s)
		return nil
	}
	var c conditionalJSON
	if err := json.Unmarshal(data, &c); err != nil {
		return fmt.Errorf("reference must be a string or {path, when}: %w", err)
	}
	*r = Conditional(c.Path, c.When)
	return nil
}

// Node is one indexed document.
type Node struct {
	ID         string                 `json:"id"`
	Type       string                 `json:"type"`
	Path       string                 `json:"path"`
	Title      string                 `json:"title"`
	Specialist string                 `json:"specialist,omitempty"`
	Domain     string                 `json:"domain,omitempty"`
	Requires   []string               `json:"requires"`
	Optional   []Reference            `json:"optional"`
	Provides   []string               `json:"provides"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
}

// EdgeKind distinguishes required from optional dependencies.
type EdgeKind string

const (
	EdgeRequires EdgeKind = "requires"
	EdgeOptional EdgeKind = "optional"
)

// Edge is a directed reference from a node to a (possibly unresolved) target.
type Edge struct {
	From string   `json:"from"`
	To   string   `json:"to"`
	Kind EdgeKind `json:"type"`
}

// edgesOf lists the outgoing edges declared by n.
func edgesOf(n *Node) []Edge {
	edges := make([]Edge, 0, len(n.Requires)+len(n.Optional))
	for _, req := range n.Requires {
		edges = append(edges, Edge{From: n.ID, To: req, Kind: EdgeRequires})
	}
	for _, opt := range n.Optional {
		edges = append(edges, Edge{From: n.ID, To: opt.Path, Kind: EdgeOptional})
	}
	return edges
}
