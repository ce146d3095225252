package importer

import (
	"errors"
	"fmt"
	"strings"
)

// Structural failure causes. Each aborts the upload before any row is merged.
var (
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrUnreadableFile    = errors.New("file could not be read")
	ErrEmptyFile         = errors.New("file has no header row")
	ErrMissingColumns    = errors.New("required columns missing")
	ErrTooManyRows       = errors.New("too many rows")
	ErrImportAborted     = errors.New("import aborted")
	ErrUnknownFlavor     = errors.New("unknown import flavor")
	ErrNoFile            = errors.New("no file uploaded")
	ErrFileTooLarge      = errors.New("file exceeds the upload size limit")
)

// StructuralError reports an upload that was rejected as a whole.
type StructuralError struct {
	Err     error
	Missing []string
	Detail  string
}

func (e *StructuralError) Error() string {
	switch {
	case len(e.Missing) > 0:
		return fmt.Sprintf("%v: %s", e.Err, strings.Join(e.Missing, ", "))
	case e.Detail != "":
		return fmt.Sprintf("%v: %s", e.Err, e.Detail)
	}
	return e.Err.Error()
}

func (e *StructuralError) Unwrap() error {
	return e.Err
}

// Message is the user-facing text for the failure.
func (e *StructuralError) Message() string {
	switch {
	case errors.Is(e.Err, ErrMissingColumns):
		return "Kolom yang diperlukan tidak ditemukan: " + strings.Join(e.Missing, ", ")
	case errors.Is(e.Err, ErrUnsupportedFormat):
		return "Format file tidak didukung, gunakan file .xlsx atau .csv"
	case errors.Is(e.Err, ErrEmptyFile):
		return "File tidak memiliki baris header"
	case errors.Is(e.Err, ErrTooManyRows):
		return "Jumlah baris melebihi batas: " + e.Detail
	case errors.Is(e.Err, ErrNoFile):
		return "Silakan unggah file CSV atau Excel"
	case errors.Is(e.Err, ErrFileTooLarge):
		return "Ukuran file melebihi batas unggah"
	case errors.Is(e.Err, ErrImportAborted):
		return "Import dibatalkan, tidak ada perubahan yang disimpan: " + e.Detail
	}
	return "File tidak dapat dibaca: " + e.Detail
}

func structural(err error, detail string) *StructuralError {
	return &StructuralError{Err: err, Detail: detail}
}
