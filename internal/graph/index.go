package graph

import (
	"sort"
)

// Index is the built knowledge graph: nodes by id plus path and type
// lookups. It is owned by a single goroutine.
type Index struct {
	Nodes  map[string]*Node    `json:"nodes"`
	Edges  []Edge              `json:"edges"`
	ByPath map[string]string   `json:"by_path"`
	ByType map[string][]string `json:"by_type"`
	// Order holds node ids in scan order.
	Order []string `json:"order,omitempty"`
}

// NewIndex returns an empty index.
func NewIndex() *Index {
	return &Index{
		Nodes:  make(map[string]*Node),
		Edges:  []Edge{},
		ByPath: make(map[string]string),
		ByType: make(map[string][]string),
	}
}

// Len returns the number of nodes.
func (ix *Index) Len() int {
	return len(ix.Nodes)
}

// Node returns the node with the given id.
func (ix *Index) Node(id string) (*Node, bool) {
	n, ok := ix.Nodes[id]
	return n, ok
}

// Add inserts n. When a node with the same id exists it is replaced and
// returned; its type entry and edges are dropped. Its path stays in ByPath
// and now resolves to the replacement, since both share the id.
func (ix *Index) Add(n *Node) *Node {
	old, exists := ix.Nodes[n.ID]
	if exists {
		ix.detach(old)
	}

	ix.Nodes[n.ID] = n
	ix.Order = append(ix.Order, n.ID)
	if n.Path != "" {
		ix.ByPath[n.Path] = n.ID
	}
	ix.ByType[n.Type] = append(ix.ByType[n.Type], n.ID)
	ix.Edges = append(ix.Edges, edgesOf(n)...)

	if exists {
		return old
	}
	return nil
}

func (ix *Index) detach(old *Node) {
	ix.ByType[old.Type] = without(ix.ByType[old.Type], old.ID)
	if len(ix.ByType[old.Type]) == 0 {
		delete(ix.ByType, old.Type)
	}
	ix.Order = without(ix.Order, old.ID)

	kept := ix.Edges[:0]
	for _, e := range ix.Edges {
		if e.From != old.ID {
			kept = append(kept, e)
		}
	}
	ix.Edges = kept
}

func without(ids []string, id string) []string {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

// Types returns every node type, sorted.
func (ix *Index) Types() []string {
	types := make([]string, 0, len(ix.ByType))
	for t := range ix.ByType {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Paths returns every indexed path, sorted. Paths of replaced documents
// are included.
func (ix *Index) Paths() []string {
	paths := make([]string, 0, len(ix.ByPath))
	for p := range ix.ByPath {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Ordered returns the nodes in scan order. Nodes missing from Order (an
// index decoded from a snapshot without it) follow, sorted by id.
func (ix *Index) Ordered() []*Node {
	out := make([]*Node, 0, len(ix.Nodes))
	seen := make(map[string]bool, len(ix.Nodes))
	for _, id := range ix.Order {
		if n, ok := ix.Nodes[id]; ok && !seen[id] {
			out = append(out, n)
			seen[id] = true
		}
	}
	var rest []string
	for id := range ix.Nodes {
		if !seen[id] {
			rest = append(rest, id)
		}
	}
	sort.Strings(rest)
	for _, id := range rest {
		out = append(out, ix.Nodes[id])
	}
	return out
}

// Reindex rebuilds Order, ByPath and ByType from Nodes. Used after decoding
// a snapshot. ByPath entries that name a known node are kept, so paths of
// replaced documents survive the round trip.
func (ix *Index) Reindex() {
	nodes := ix.Ordered()
	ix.Order = make([]string, 0, len(nodes))
	paths := make(map[string]string, len(nodes))
	for p, id := range ix.ByPath {
		if _, ok := ix.Nodes[id]; ok {
			paths[p] = id
		}
	}
	ix.ByPath = paths
	ix.ByType = make(map[string][]string)
	for _, n := range nodes {
		ix.Order = append(ix.Order, n.ID)
		if n.Path != "" {
			ix.ByPath[n.Path] = n.ID
		}
		ix.ByType[n.Type] = append(ix.ByType[n.Type], n.ID)
	}
	if ix.Edges == nil {
		ix.Edges = []Edge{}
	}
}
