package external

import (
	"context"
	"os"

	"ctxgraph/internal/logging"
	"ctxgraph/internal/pathutil"
)

// FileLoader reads local files, expanding ~ and workspace-relative paths.
type FileLoader struct {
	paths pathutil.Normalizer
}

// NewFileLoader creates a loader using n for path expansion.
func NewFileLoader(n pathutil.Normalizer) *FileLoader {
	return &FileLoader{paths: n}
}

// Load reads the file behind ref.
func (l *FileLoader) Load(ctx context.Context, ref string) (string, bool) {
	if ctx.Err() != nil {
		return "", false
	}
	path := l.paths.Expand(ref)
	if path == "" {
		return "", false
	}
	f, err := os.Open(path)
	if err != nil {
		logging.ExternalDebug("File %s unavailable: %v", path, err)
		return "", false
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil || info.IsDir() {
		return "", false
	}
	text, err := decode(f)
	if err != nil {
		logging.ExternalDebug("Failed to read %s: %v", path, err)
		return "", false
	}
	return text, true
}
