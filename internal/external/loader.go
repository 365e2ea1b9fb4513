// Package external loads reference text from outside the indexed corpus:
// local files, S3-compatible object stores and Google Cloud Storage.
//
// Loaders report absence instead of failing. A reference that cannot be
// loaded for any reason is simply left out of the context bundle.
package external

import (
	"context"
	"io"
	"strings"
)

// Loader loads the raw text behind a reference.
type Loader interface {
	Load(ctx context.Context, ref string) (string, bool)
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(ctx context.Context, ref string) (string, bool)

// Load calls f.
func (f LoaderFunc) Load(ctx context.Context, ref string) (string, bool) {
	return f(ctx, ref)
}

// MaxObjectBytes caps how much of one remote object is read.
const MaxObjectBytes = 8 << 20

// Location is a parsed scheme://bucket/key reference.
type Location struct {
	Scheme string
	Bucket string
	Key    string
}

// ParseLocation splits a remote reference. ok is false for anything that
// is not scheme://bucket/key.
func ParseLocation(ref string) (Location, bool) {
	scheme, rest, found := strings.Cut(ref, "://")
	if !found || !validScheme(scheme) {
		return Location{}, false
	}
	bucket, key, _ := strings.Cut(rest, "/")
	if bucket == "" || key == "" {
		return Location{}, false
	}
	return Location{Scheme: strings.ToLower(scheme), Bucket: bucket, Key: key}, true
}

// Scheme returns the lower-cased URL scheme of ref, or "" for plain paths.
func Scheme(ref string) string {
	scheme, _, found := strings.Cut(ref, "://")
	if !found || !validScheme(scheme) {
		return ""
	}
	return strings.ToLower(scheme)
}

// HasScheme reports whether ref is a URL-style reference.
func HasScheme(ref string) bool {
	return Scheme(ref) != ""
}

func validScheme(s string) bool {
	if len(s) < 2 {
		// single letters are drive names, not schemes
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case i > 0 && (c >= '0' && c <= '9' || c == '+' || c == '-' || c == '.'):
		default:
			return false
		}
	}
	return true
}

// decode reads at most MaxObjectBytes and drops invalid UTF-8.
func decode(r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxObjectBytes))
	if err != nil {
		return "", err
	}
	return strings.ToValidUTF8(string(data), ""), nil
}
