// Package blob opens backup files from local disk or Google Cloud Storage.
package blob

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"cloud.google.com/go/storage"
)

const gcsScheme = "gs://"

// IsGCS reports whether uri points at a Cloud Storage object.
func IsGCS(uri string) bool {
	return strings.HasPrefix(uri, gcsScheme)
}

// SplitGCSURI splits gs://bucket/path into bucket and object path.
func SplitGCSURI(uri string) (bucket, object string, err error) {
	if !IsGCS(uri) {
		return "", "", fmt.Errorf("invalid GCS URI: %s", uri)
	}
	parts := strings.SplitN(strings.TrimPrefix(uri, gcsScheme), "/", 2)
	if parts[0] == "" {
		return "", "", fmt.Errorf("invalid GCS URI (no bucket): %s", uri)
	}
	if len(parts) == 1 {
		return parts[0], "", nil
	}
	return parts[0], parts[1], nil
}

// Open returns a reader over uri. The caller must Close it; for GCS objects
// that also releases the storage client.
func Open(ctx context.Context, uri string) (io.ReadCloser, error) {
	if !IsGCS(uri) {
		f, err := os.Open(uri)
		if err != nil {
			return nil, fmt.Errorf("open %q: %w", uri, err)
		}
		return f, nil
	}

	bucket, object, err := SplitGCSURI(uri)
	if err != nil {
		return nil, err
	}
	if object == "" {
		return nil, fmt.Errorf("invalid GCS URI (no object path): %s", uri)
	}

	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}

	rc, err := client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("read object %s/%s: %w", bucket, object, err)
	}
	return &gcsReader{Reader: rc, client: client}, nil
}

type gcsReader struct {
	*storage.Reader
	client *storage.Client
}

func (r *gcsReader) Close() error {
	err := r.Reader.Close()
	if cerr := r.client.Close(); err == nil {
		err = cerr
	}
	return err
}
