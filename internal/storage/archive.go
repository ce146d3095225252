package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrObjectNotFound is returned when an archived upload no longer exists.
var ErrObjectNotFound = errors.New("archived file not found")

// Archive keeps retained uploads.
type Archive interface {
	// Save stores r under key and returns the stored location.
	Save(ctx context.Context, key string, r io.Reader) (string, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	// PurgeOlderThan deletes objects last written before cutoff.
	PurgeOlderThan(ctx context.Context, cutoff time.Time) (int, error)
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// ArchiveKey builds a collision-free object name for an upload.
func ArchiveKey(flavor, fileName string, now time.Time) string {
	base := unsafeChars.ReplaceAllString(filepath.Base(fileName), "_")
	base = strings.Trim(base, "._")
	if base == "" {
		base = "upload"
	}
	return fmt.Sprintf("%s_%s_%s_%s", flavor, now.Format("20060102_150405"), uuid.NewString()[:8], base)
}

// validKey rejects keys that could escape the archive root.
func validKey(key string) bool {
	return key != "" && key == filepath.Base(key) && key != "." && key != ".."
}

// OpenArchive returns the archive for backend ("local" or "gcs") and a
// function releasing it.
func OpenArchive(ctx context.Context, backend, dir, bucket string) (Archive, func(), error) {
	switch backend {
	case "gcs":
		archive, err := NewGCSArchive(ctx, bucket)
		if err != nil {
			return nil, nil, err
		}
		return archive, func() { _ = archive.Close() }, nil
	case "", "local":
		archive, err := NewLocalArchive(dir)
		if err != nil {
			return nil, nil, err
		}
		return archive, func() {}, nil
	}
	return nil, nil, fmt.Errorf("unknown archive backend %q", backend)
}
