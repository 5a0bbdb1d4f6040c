package objectstore

import (
	"context"
	"fmt"
	"io"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// GCSClient is the subset of the storage client used for publishing.
type GCSClient interface {
	NewWriter(ctx context.Context, bucket, key, contentType string) io.WriteCloser
	Close() error
}

// GCSBackend writes objects to Google Cloud Storage using Application
// Default Credentials unless client options say otherwise. NewClient
// defaults to a real storage client built from Options.
type GCSBackend struct {
	Options   []option.ClientOption
	Timeout   time.Duration
	NewClient func(ctx context.Context, opts ...option.ClientOption) (GCSClient, error)
}

// NewGCSBackend returns a backend with a two minute upload timeout.
func NewGCSBackend(opts ...option.ClientOption) *GCSBackend {
	return &GCSBackend{Options: opts, Timeout: 2 * time.Minute}
}

// Put uploads body to gs://bucket/key.
func (g *GCSBackend) Put(ctx context.Context, loc Location, body io.Reader) error {
	newClient := g.NewClient
	if newClient == nil {
		newClient = newStorageClient
	}

	client, err := newClient(ctx, g.Options...)
	if err != nil {
		return fmt.Errorf("create storage client: %w", err)
	}
	defer client.Close()

	if g.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.Timeout)
		defer cancel()
	}

	w := client.NewWriter(ctx, loc.Bucket, loc.Key, contentType(loc))

	if _, err := io.Copy(w, body); err != nil {
		w.Close()
		return fmt.Errorf("copy to GCS writer: %w", err)
	}

	// Close finalizes the upload.
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalize upload: %w", err)
	}
	return nil
}

type storageClient struct {
	client *storage.Client
}

func newStorageClient(ctx context.Context, opts ...option.ClientOption) (GCSClient, error) {
	c, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return storageClient{client: c}, nil
}

func (s storageClient) NewWriter(ctx context.Context, bucket, key, contentType string) io.WriteCloser {
	w := s.client.Bucket(bucket).Object(key).NewWriter(ctx)
	w.ContentType = contentType
	return w
}

func (s storageClient) Close() error {
	return s.client.Close()
}
