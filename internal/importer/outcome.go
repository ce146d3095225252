package importer

import (
	"fmt"

	"stock-service/internal/models"
)

// RowErrorKind distinguishes why a row was not merged.
type RowErrorKind string

const (
	RowErrorCoercion RowErrorKind = "coercion"
	RowErrorPersist  RowErrorKind = "persist"
)

// RowError describes one rejected row.
type RowError struct {
	Row     int          `json:"row"`
	Column  string       `json:"column,omitempty"`
	Kind    RowErrorKind `json:"kind"`
	Message string       `json:"message"`
}

// DefaultMessageLimit caps the row errors echoed back to the uploader.
const DefaultMessageLimit = 10

// Outcome is the tally of one upload.
type Outcome struct {
	Flavor     string     `json:"flavor"`
	FileName   string     `json:"fileName"`
	TotalRows  int        `json:"totalRows"`
	Created    int        `json:"created"`
	Updated    int        `json:"updated"`
	Skipped    int        `json:"skipped"`
	ErrorCount int        `json:"errorCount"`
	Errors     []RowError `json:"errors"`
	// LowStock lists codes below their minimum after the merge, in file order.
	LowStock []string `json:"lowStock,omitempty"`
	// UploadID is the history row written for this attempt.
	UploadID string `json:"uploadId,omitempty"`
}

func newOutcome(flavor Flavor, fileName string) *Outcome {
	return &Outcome{
		Flavor:   flavor.Name,
		FileName: fileName,
		Errors:   make([]RowError, 0),
	}
}

func (o *Outcome) addError(e RowError) {
	o.ErrorCount++
	o.Errors = append(o.Errors, e)
}

// Merged is the number of rows written to the catalog.
func (o *Outcome) Merged() int {
	return o.Created + o.Updated
}

// Status maps the tally onto an activity status.
func (o *Outcome) Status() models.ActivityStatus {
	switch {
	case o.ErrorCount == 0:
		return models.ActivityStatusSuccess
	case o.Merged() == 0:
		return models.ActivityStatusFailed
	default:
		return models.ActivityStatusPartial
	}
}

// Notes is the activity log text for the upload.
func (o *Outcome) Notes() string {
	return fmt.Sprintf("File: %s. Created: %d, Updated: %d, Skipped: %d, Errors: %d",
		o.FileName, o.Created, o.Updated, o.Skipped, o.ErrorCount)
}

// Summary is the headline shown to the uploader.
func (o *Outcome) Summary() string {
	return fmt.Sprintf("Import selesai: %d data baru, %d data diperbarui, %d baris dilewati, %d error",
		o.Created, o.Updated, o.Skipped, o.ErrorCount)
}

// Messages returns at most limit row error messages followed by a count
// of the ones left out.
func (o *Outcome) Messages(limit int) []string {
	if limit <= 0 {
		limit = DefaultMessageLimit
	}
	messages := make([]string, 0, limit+1)
	for i, e := range o.Errors {
		if i == limit {
			messages = append(messages, fmt.Sprintf("... dan %d error lainnya", len(o.Errors)-limit))
			break
		}
		messages = append(messages, e.Message)
	}
	return messages
}
