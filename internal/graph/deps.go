package graph

import (
	"ctxgraph/internal/logging"
)

// Dependencies returns entry and everything it transitively requires (and,
// with includeOptional, optionally references), dependencies first. Each
// node appears once. Unresolvable references are skipped. An unresolvable
// entry yields nil.
func (r *Resolver) Dependencies(entry string, includeOptional bool) []string {
	entryID, ok := r.Resolve(entry)
	if !ok {
		logging.ResolveDebug("Entry %q did not resolve", entry)
		return nil
	}

	memo := make(map[string]string)
	resolve := func(ref string) (string, bool) {
		if id, ok := memo[ref]; ok {
			return id, id != ""
		}
		id, ok := r.Resolve(ref)
		memo[ref] = id
		return id, ok
	}

	visited := make(map[string]bool)
	deps := make(map[string][]string)
	var order []string

	queue := []string{entryID}
	for len(queue) > 0 {
		ref := queue[0]
		queue = queue[1:]
		if visited[ref] {
			continue
		}
		visited[ref] = true

		id, ok := resolve(ref)
		if !ok {
			continue
		}
		if id != ref {
			if visited[id] {
				continue
			}
			visited[id] = true
		}
		node := r.ix.Nodes[id]

		targets := node.Requires
		if includeOptional {
			targets = append(append([]string(nil), node.Requires...), optionalPaths(node)...)
		}
		for _, t := range targets {
			depID, ok := resolve(t)
			if !ok {
				logging.ResolveDebug("%s: reference %q did not resolve", id, t)
				continue
			}
			deps[id] = append(deps[id], depID)
			if !visited[t] && !visited[depID] {
				queue = append(queue, t)
			}
		}
		order = append(order, id)
	}

	return dependencyOrder(order, deps)
}

func optionalPaths(n *Node) []string {
	out := make([]string, 0, len(n.Optional))
	for _, o := range n.Optional {
		out = append(out, o.Path)
	}
	return out
}

// dependencyOrder arranges the BFS visitation list so that dependencies
// come before dependents. Among nodes whose dependencies are all placed,
// the one latest in BFS order goes first, which reproduces reversed BFS
// order whenever that order is already valid. A cycle stalls the pass; it
// is broken by placing the unplaced node latest in BFS order.
func dependencyOrder(order []string, deps map[string][]string) []string {
	n := len(order)
	inSet := make(map[string]bool, n)
	for _, id := range order {
		inSet[id] = true
	}

	pending := make(map[string]int, n)
	dependents := make(map[string][]string, n)
	for _, id := range order {
		seen := make(map[string]bool)
		for _, d := range deps[id] {
			if d == id || !inSet[d] || seen[d] {
				continue
			}
			seen[d] = true
			pending[id]++
			dependents[d] = append(dependents[d], id)
		}
	}

	placed := make(map[string]bool, n)
	result := make([]string, 0, n)
	for len(result) < n {
		pick := -1
		for i := n - 1; i >= 0; i-- {
			if id := order[i]; !placed[id] && pending[id] == 0 {
				pick = i
				break
			}
		}
		if pick < 0 {
			for i := n - 1; i >= 0; i-- {
				if !placed[order[i]] {
					pick = i
					break
				}
			}
		}
		id := order[pick]
		placed[id] = true
		result = append(result, id)
		for _, dep := range dependents[id] {
			pending[dep]--
		}
	}
	return result
}
