package sink

import (
	"context"
	"fmt"
	"path"
	"time"

	"cloud.google.com/go/storage"

	"github.com/WagnerMushayija/momo-summative/internal/blob"
)

// GCSDestination writes documents as objects under a bucket prefix.
type GCSDestination struct {
	client *storage.Client
	bucket string
	prefix string
}

// NewGCSDestination opens a storage client for gs://bucket/prefix. Close
// releases it.
func NewGCSDestination(ctx context.Context, uri string) (*GCSDestination, error) {
	bucket, prefix, err := blob.SplitGCSURI(uri)
	if err != nil {
		return nil, err
	}
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return &GCSDestination{client: client, bucket: bucket, prefix: prefix}, nil
}

// Put uploads payload as one object.
func (d *GCSDestination) Put(ctx context.Context, name string, payload []byte) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := d.client.Bucket(d.bucket).Object(path.Join(d.prefix, name)).NewWriter(ctx)
	w.ContentType = "application/json"
	if _, err := w.Write(payload); err != nil {
		_ = w.Close()
		return fmt.Errorf("upload %s: %w", name, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalize upload %s: %w", name, err)
	}
	return nil
}

// Location is the gs:// URI of name.
func (d *GCSDestination) Location(name string) string {
	return "gs://" + path.Join(d.bucket, d.prefix, name)
}

// Close releases the storage client.
func (d *GCSDestination) Close() error {
	return d.client.Close()
}

var _ Destination = (*GCSDestination)(nil)
