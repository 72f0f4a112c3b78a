package templatestore

import (
	"context"
	"errors"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// bucketHandle is the subset of a Cloud Storage bucket the store uses.
type bucketHandle interface {
	Attrs(ctx context.Context) error
	NewReader(ctx context.Context, object string) (io.ReadCloser, error)
}

type gcsBucket struct {
	bkt *storage.BucketHandle
}

func (g gcsBucket) Attrs(ctx context.Context) error {
	_, err := g.bkt.Attrs(ctx)
	return err
}

func (g gcsBucket) NewReader(ctx context.Context, object string) (io.ReadCloser, error) {
	return g.bkt.Object(object).NewReader(ctx)
}

// GCSStore reads templates from gs://bucket/prefix/<name>.txt.
type GCSStore struct {
	bucket string
	prefix string
	handle bucketHandle
}

// NewGCSStore creates a Cloud Storage client with application default credentials
// unless opts say otherwise.
func NewGCSStore(ctx context.Context, bucket, prefix string, opts ...option.ClientOption) (*GCSStore, error) {
	opts = append(opts, option.WithScopes(storage.ScopeReadOnly))
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	return &GCSStore{bucket: bucket, prefix: prefix, handle: gcsBucket{bkt: client.Bucket(bucket)}}, nil
}

func (g *GCSStore) Load(ctx context.Context, name string) (string, error) {
	key := objectName(g.prefix, name)
	r, err := g.handle.NewReader(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return "", fmt.Errorf("%s: %w", key, ErrNotFound)
		}
		return "", fmt.Errorf("reading gs://%s/%s: %w", g.bucket, key, err)
	}
	defer func() { _ = r.Close() }()

	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("reading gs://%s/%s: %w", g.bucket, key, err)
	}
	return string(data), nil
}

func (g *GCSStore) Check(ctx context.Context) error {
	if err := g.handle.Attrs(ctx); err != nil {
		if errors.Is(err, storage.ErrBucketNotExist) {
			return fmt.Errorf("bucket %s does not exist", g.bucket)
		}
		return fmt.Errorf("bucket %s: %w", g.bucket, err)
	}
	return nil
}

func (g *GCSStore) String() string {
	if g.prefix == "" {
		return "gs://" + g.bucket
	}
	return "gs://" + g.bucket + "/" + g.prefix
}
