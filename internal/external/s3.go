package external

import (
	"context"
	"fmt"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"ctxgraph/internal/logging"
)

// S3Config configures an S3Loader.
type S3Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	UseSSL    bool
}

// S3Loader reads s3://bucket/key references from any S3-compatible store.
type S3Loader struct {
	client *minio.Client
}

// NewS3Loader creates a client for cfg. Empty keys mean anonymous access.
func NewS3Loader(cfg S3Config) (*S3Loader, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("s3 endpoint is required")
	}
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = "us-east-1"
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(strings.TrimSpace(cfg.AccessKey), strings.TrimSpace(cfg.SecretKey), ""),
		Secure: cfg.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("init s3 client: %w", err)
	}
	return &S3Loader{client: client}, nil
}

// Load fetches the object behind ref.
func (l *S3Loader) Load(ctx context.Context, ref string) (string, bool) {
	loc, ok := ParseLocation(ref)
	if !ok || loc.Scheme != "s3" {
		return "", false
	}

	obj, err := l.client.GetObject(ctx, loc.Bucket, loc.Key, minio.GetObjectOptions{})
	if err != nil {
		logging.ExternalDebug("S3 get %s failed: %v", ref, err)
		return "", false
	}
	defer obj.Close()

	text, err := decode(obj)
	if err != nil {
		errResp := minio.ToErrorResponse(err)
		if errResp.Code == "NoSuchKey" || errResp.Code == "NoSuchBucket" {
			logging.ExternalDebug("S3 object %s not found", ref)
		} else {
			logging.Get(logging.CategoryExternal).Warn("S3 read %s failed: %v", ref, err)
		}
		return "", false
	}
	return text, true
}
