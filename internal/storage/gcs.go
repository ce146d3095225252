package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
)

const gcsPrefix = "uploads/"

// GCSArchive stores uploads as objects in a Cloud Storage bucket.
type GCSArchive struct {
	client *storage.Client
	bucket string
}

// NewGCSArchive uses application default credentials.
func NewGCSArchive(ctx context.Context, bucket string) (*GCSArchive, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	return &GCSArchive{client: client, bucket: bucket}, nil
}

var _ Archive = (*GCSArchive)(nil)

func (a *GCSArchive) Save(ctx context.Context, key string, r io.Reader) (string, error) {
	if !validKey(key) {
		return "", fmt.Errorf("invalid archive key %q", key)
	}
	w := a.client.Bucket(a.bucket).Object(gcsPrefix + key).NewWriter(ctx)
	w.ContentType = "application/octet-stream"
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("failed to upload to gcs: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize gcs upload: %w", err)
	}
	return key, nil
}

func (a *GCSArchive) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	if !validKey(key) {
		return nil, ErrObjectNotFound
	}
	rc, err := a.client.Bucket(a.bucket).Object(gcsPrefix + key).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, ErrObjectNotFound
	}
	if err != nil {
		return nil, err
	}
	return rc, nil
}

func (a *GCSArchive) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	bucket := a.client.Bucket(a.bucket)
	it := bucket.Objects(ctx, &storage.Query{Prefix: gcsPrefix})
	removed := 0
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return removed, err
		}
		if attrs.Updated.Before(cutoff) {
			if err := bucket.Object(attrs.Name).Delete(ctx); err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
				return removed, err
			}
			removed++
		}
	}
	return removed, nil
}

// Close releases the storage client.
func (a *GCSArchive) Close() error {
	return a.client.Close()
}
