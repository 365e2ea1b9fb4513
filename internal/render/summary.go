package render

import (
	"fmt"
	"sort"
	"strings"

	"ctxgraph/internal/graph"
	"ctxgraph/internal/pathutil"
)

// Types listed before all others in the overview, with their headings.
var leadingTypes = []struct {
	name    string
	heading string
}{
	{"specialist", "Specialists"},
	{"domain", "Domains"},
	{"routine", "Routines"},
}

const summaryTitle = "# Knowledge Graph Summary"

// Summary describes a single entry: what it always loads, what can be
// loaded on request, and what it provides. The entry is resolved the same
// way as for assembly.
func Summary(r *graph.Resolver, entry string) string {
	id, ok := r.Resolve(entry)
	if !ok {
		return "Unknown entry: " + entry
	}
	n := r.Index().Nodes[id]

	lines := []string{summaryTitle, ""}
	lines = append(lines,
		"## "+n.Title,
		"**Type**: "+n.Type,
		"**Domain**: "+orNA(n.Domain),
		"",
	)

	if len(n.Requires) > 0 {
		lines = append(lines, "### Required (always loaded)")
		for _, req := range n.Requires {
			lines = append(lines, fmt.Sprintf("- `%s`", pathutil.Stem(req)))
		}
		lines = append(lines, "")
	}

	if len(n.Optional) > 0 {
		lines = append(lines,
			"### Optional (specify to load)",
			"| ID | Path | When |",
			"|-----|------|------|",
		)
		for i, opt := range n.Optional {
			when := "(always if task)"
			if opt.IsConditional() {
				when = strings.Trim(opt.When, `"'`)
			}
			lines = append(lines, fmt.Sprintf("| %d | `%s` | %s |", i+1, pathutil.Stem(opt.Path), when))
		}
		lines = append(lines, "")
	}

	if len(n.Provides) > 0 {
		lines = append(lines, "**Provides**: "+strings.Join(n.Provides, ", "), "")
	}

	return strings.Join(lines, "\n")
}

// Overview lists every node grouped by type. Specialists, domains and
// routines come first and always get a heading; any other type follows in
// sorted order.
func Overview(ix *graph.Index) string {
	byType := make(map[string][]*graph.Node)
	for _, n := range ix.Ordered() {
		byType[n.Type] = append(byType[n.Type], n)
	}

	lines := []string{summaryTitle, ""}
	leading := make(map[string]bool, len(leadingTypes))
	for i, t := range leadingTypes {
		leading[t.name] = true
		if i > 0 {
			lines = append(lines, "")
		}
		lines = append(lines, "## "+t.heading)
		for _, n := range byType[t.name] {
			lines = append(lines, overviewLine(n))
		}
	}

	var rest []string
	for t := range byType {
		if !leading[t] {
			rest = append(rest, t)
		}
	}
	sort.Strings(rest)
	for _, t := range rest {
		lines = append(lines, "", "## Type: "+t)
		for _, n := range byType[t] {
			lines = append(lines, overviewLine(n))
		}
	}

	return strings.Join(lines, "\n")
}

func overviewLine(n *graph.Node) string {
	if n.Type == "specialist" {
		return fmt.Sprintf("- **%s**: %s (%d optional pills)", n.ID, n.Domain, len(n.Optional))
	}
	return fmt.Sprintf("- **%s**: %s", n.ID, n.Title)
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
