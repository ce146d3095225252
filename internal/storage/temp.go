package storage

import (
	"fmt"
	"io"
	"os"
)

// TempFile is an upload spooled to local disk for the duration of one request.
type TempFile struct {
	Path string
	Size int64
}

// SpoolTemp copies r into a new file under dir (the OS temp dir when
// empty). The caller must call Remove once done, typically with defer.
func SpoolTemp(dir string, r io.Reader) (*TempFile, error) {
	if dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create temp dir: %w", err)
		}
	}

	f, err := os.CreateTemp(dir, "upload-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}

	size, copyErr := io.Copy(f, r)
	closeErr := f.Close()
	if copyErr != nil || closeErr != nil {
		_ = os.Remove(f.Name())
		if copyErr != nil {
			return nil, fmt.Errorf("failed to spool upload: %w", copyErr)
		}
		return nil, fmt.Errorf("failed to spool upload: %w", closeErr)
	}

	return &TempFile{Path: f.Name(), Size: size}, nil
}

// Open opens the spooled file for reading.
func (t *TempFile) Open() (*os.File, error) {
	return os.Open(t.Path)
}

// Remove deletes the spooled file. Removing twice is not an error.
func (t *TempFile) Remove() error {
	if err := os.Remove(t.Path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
