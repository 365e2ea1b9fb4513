package render

import (
	"fmt"

	"github.com/charmbracelet/glamour"
)

// DefaultWrap is the word-wrap width for Pretty.
const DefaultWrap = 80

// Pretty renders markdown for a terminal. An empty style picks light or
// dark from the terminal background; otherwise style names a glamour
// standard style ("dark", "light", "notty", ...) or a JSON style file.
func Pretty(markdown, style string, wrap int) (string, error) {
	if wrap <= 0 {
		wrap = DefaultWrap
	}
	opts := []glamour.TermRendererOption{glamour.WithWordWrap(wrap)}
	if style == "" {
		opts = append(opts, glamour.WithAutoStyle())
	} else {
		opts = append(opts, glamour.WithStylePath(style))
	}

	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return "", fmt.Errorf("failed to create renderer: %w", err)
	}
	out, err := r.Render(markdown)
	if err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	return out, nil
}
