// Package pathutil normalizes document references into filesystem paths.
// The builder and the resolver share one Normalizer so the same reference
// always expands to the same path.
package pathutil

import (
	"os/user"
	"path/filepath"
	"strings"
)

// Normalizer expands home-relative and workspace-relative references.
type Normalizer struct {
	Home      string
	Workspace string
}

// Expand turns ref into a cleaned path:
//
//	~         → Home
//	~/x       → Home/x
//	~name/x   → home of user name, when it exists
//	/x        → /x
//	x         → Workspace/x
func (n Normalizer) Expand(ref string) string {
	if ref == "" {
		return ""
	}
	switch {
	case ref == "~":
		return filepath.Clean(n.Home)
	case strings.HasPrefix(ref, "~/"):
		return filepath.Join(n.Home, ref[2:])
	case strings.HasPrefix(ref, "~"):
		name, rest, _ := strings.Cut(ref[1:], "/")
		if u, err := user.Lookup(name); err == nil && u.HomeDir != "" {
			return filepath.Join(u.HomeDir, rest)
		}
		return filepath.Join(n.Workspace, ref)
	case filepath.IsAbs(ref):
		return filepath.Clean(ref)
	default:
		return filepath.Join(n.Workspace, ref)
	}
}

// IsAnchored reports whether ref is absolute or home-relative, i.e. does not
// depend on the workspace.
func IsAnchored(ref string) bool {
	return strings.HasPrefix(ref, "~") || filepath.IsAbs(ref)
}

// Within reports whether path lies inside root (or is root).
func Within(path, root string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// Base returns the final path component of ref.
func Base(ref string) string {
	return filepath.Base(ref)
}

// Stem returns the final path component without its last extension.
// Dotfiles keep their full name.
func Stem(ref string) string {
	base := filepath.Base(ref)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if stem == "" {
		return base
	}
	return stem
}
