package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"ctxgraph/internal/graph"
)

// Theme styles the graph listing.
type Theme struct {
	Header lipgloss.Style
	Type   lipgloss.Style
	Label  lipgloss.Style
	plain  bool
}

// DefaultTheme is used for terminal output.
func DefaultTheme() Theme {
	return Theme{
		Header: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#8BC34A")),
		Type:   lipgloss.NewStyle().Foreground(lipgloss.Color("#2196F3")),
		Label:  lipgloss.NewStyle().Faint(true),
	}
}

// PlainTheme renders without any escape sequences.
func PlainTheme() Theme {
	return Theme{plain: true}
}

func (t Theme) render(s lipgloss.Style, text string) string {
	if t.plain {
		return text
	}
	return s.Render(text)
}

// Show lists every node reachable from entry, optional dependencies
// included, in dependency order.
func Show(r *graph.Resolver, entry string, theme Theme) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "\n%s\n\n", theme.render(theme.Header, "=== Graph for: "+entry+" ==="))

	for _, id := range r.Dependencies(entry, true) {
		n := r.Index().Nodes[id]
		fmt.Fprintf(&sb, "%s %s\n", theme.render(theme.Type, "["+n.Type+"]"), id)
		fmt.Fprintf(&sb, "    %s %s\n", theme.render(theme.Label, "path:"), n.Path)
		if len(n.Requires) > 0 {
			fmt.Fprintf(&sb, "    %s %s\n", theme.render(theme.Label, "requires:"), strings.Join(n.Requires, ", "))
		}
		if len(n.Optional) > 0 {
			opts := make([]string, len(n.Optional))
			for i, o := range n.Optional {
				opts[i] = o.String()
			}
			fmt.Fprintf(&sb, "    %s %s\n", theme.render(theme.Label, "optional:"), strings.Join(opts, ", "))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
