package external

import (
	"context"
	"errors"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"ctxgraph/internal/logging"
)

// GCSLoader reads gs://bucket/object references.
type GCSLoader struct {
	client *storage.Client
	open   func(ctx context.Context, bucket, object string) (io.ReadCloser, error)
}

// NewGCSLoader creates a storage client. An empty credentialsFile uses
// application default credentials.
func NewGCSLoader(ctx context.Context, credentialsFile string, opts ...option.ClientOption) (*GCSLoader, error) {
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	l := &GCSLoader{client: client}
	l.open = func(ctx context.Context, bucket, object string) (io.ReadCloser, error) {
		return client.Bucket(bucket).Object(object).NewReader(ctx)
	}
	return l, nil
}

// Load fetches the object behind ref.
func (l *GCSLoader) Load(ctx context.Context, ref string) (string, bool) {
	loc, ok := ParseLocation(ref)
	if !ok || loc.Scheme != "gs" {
		return "", false
	}

	r, err := l.open(ctx, loc.Bucket, loc.Key)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) || errors.Is(err, storage.ErrBucketNotExist) {
			logging.ExternalDebug("GCS object %s not found", ref)
		} else {
			logging.Get(logging.CategoryExternal).Warn("GCS open %s failed: %v", ref, err)
		}
		return "", false
	}
	defer r.Close()

	text, err := decode(r)
	if err != nil {
		logging.Get(logging.CategoryExternal).Warn("GCS read %s failed: %v", ref, err)
		return "", false
	}
	return text, true
}

// Close releases the storage client.
func (l *GCSLoader) Close() error {
	if l.client == nil {
		return nil
	}
	return l.client.Close()
}
