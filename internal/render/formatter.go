// Package render turns bundles and graph indexes into the text the CLI
// prints: the prompt-ready context, capability summaries and the graph
// listing for an entry.
package render

import (
	"strings"

	"ctxgraph/internal/assemble"
	"ctxgraph/internal/frontmatter"
)

// Format renders b as a single prompt: every loaded node without its
// header, then the external reference materials, then the task verbatim.
// Nodes whose body is empty are left out.
func Format(b *assemble.Bundle, task string) string {
	var lines []string

	lines = append(lines, "# Context: "+b.Entry)
	if b.Workflow != "" {
		lines = append(lines, "**Workflow**: "+b.Workflow)
	}
	lines = append(lines, "")

	for _, id := range b.Nodes {
		content, ok := b.Files[id]
		if !ok || content == "" {
			continue
		}
		lines = append(lines, "## "+id, strings.TrimSpace(frontmatter.Strip(content)), "")
	}

	if len(b.ExternalOrder) > 0 {
		lines = append(lines, "## Reference Materials (External)")
		for _, name := range b.ExternalOrder {
			body := strings.TrimSpace(frontmatter.Strip(b.External[name]))
			lines = append(lines, "### "+name, body, "")
		}
	}

	lines = append(lines, "---", "## YOUR TASK", task)
	return strings.Join(lines, "\n")
}
