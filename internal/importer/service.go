package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"stock-service/internal/events"
	"stock-service/internal/metrics"
	"stock-service/internal/models"
	"stock-service/internal/repository"
	"stock-service/internal/storage"
)

// Auditor records one activity log entry.
type Auditor interface {
	Record(ctx context.Context, actor *uuid.UUID, action string, status models.ActivityStatus, notes string)
}

// EventPublisher announces finished imports.
type EventPublisher interface {
	PublishImportCompleted(ctx context.Context, event events.ImportCompleted) error
	PublishLowStock(ctx context.Context, source string, codes []string) error
}

// Options tunes a Service. Zero values disable the matching limit.
type Options struct {
	MaxRows int
	Timeout time.Duration
	TempDir string
}

// Request is one uploaded file.
type Request struct {
	Flavor   Flavor
	FileName string
	File     io.Reader
	Actor    *uuid.UUID
}

// Service runs uploads end to end: spool, parse, merge, archive and record.
type Service struct {
	reconciler *Reconciler
	uploads    repository.UploadStore
	archive    storage.Archive
	auditor    Auditor
	publisher  EventPublisher
	opts       Options
	logger     *logrus.Entry
	now        func() time.Time
}

// NewService wires an import service. archive and publisher may be nil.
func NewService(
	items repository.ItemStore,
	uploads repository.UploadStore,
	archive storage.Archive,
	auditor Auditor,
	publisher EventPublisher,
	opts Options,
	logger *logrus.Logger,
) *Service {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Service{
		reconciler: NewReconciler(items, opts.MaxRows),
		uploads:    uploads,
		archive:    archive,
		auditor:    auditor,
		publisher:  publisher,
		opts:       opts,
		logger:     logger.WithField("component", "importer"),
		now:        time.Now,
	}
}

// Import processes req. A rejected file returns a *StructuralError and no
// outcome; the attempt is still written to upload history and the audit log.
// The spooled copy of the upload is removed before Import returns.
func (s *Service) Import(ctx context.Context, req Request) (*Outcome, error) {
	start := s.now()
	log := s.logger.WithFields(logrus.Fields{
		"flavor":   req.Flavor.Name,
		"fileName": req.FileName,
	})

	tmp, err := storage.SpoolTemp(s.opts.TempDir, req.File)
	if err != nil {
		log.WithError(err).Warn("Failed to spool upload")
		return s.finish(ctx, req, nil, nil, structural(ErrUnreadableFile, err.Error()), start, log)
	}
	defer func() {
		if err := tmp.Remove(); err != nil {
			log.WithError(err).Warn("Failed to remove temp upload")
		}
	}()

	runCtx := ctx
	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}

	outcome, importErr := s.run(runCtx, req, tmp)
	return s.finish(ctx, req, tmp, outcome, importErr, start, log)
}

// Reject records an upload refused before its file could be read, such as
// a missing or oversized file part, and returns cause.
func (s *Service) Reject(ctx context.Context, req Request, cause *StructuralError) error {
	log := s.logger.WithFields(logrus.Fields{
		"flavor":   req.Flavor.Name,
		"fileName": req.FileName,
	})
	_, err := s.finish(ctx, req, nil, nil, cause, s.now(), log)
	return err
}

// finish writes the history row and audit entry of one attempt. tmp is nil
// when the upload never reached disk.
func (s *Service) finish(ctx context.Context, req Request, tmp *storage.TempFile, outcome *Outcome, importErr error, start time.Time, log *logrus.Entry) (*Outcome, error) {
	// Bookkeeping must survive a timed-out or cancelled request.
	bgCtx := context.WithoutCancel(ctx)

	upload := &models.UploadHistory{
		Flavor:     req.Flavor.Name,
		FileName:   req.FileName,
		UploadedBy: req.Actor,
		UploadedAt: s.now(),
	}
	if tmp != nil {
		upload.FileSize = tmp.Size
	}
	if outcome != nil {
		upload.SuccessCount = outcome.Merged()
		upload.ErrorCount = outcome.ErrorCount
		if req.Flavor.Retain && tmp != nil {
			upload.StoragePath = s.archiveFile(bgCtx, req, tmp, log)
		}
	}
	if s.uploads != nil {
		if err := s.uploads.Create(bgCtx, upload); err != nil {
			log.WithError(err).Error("Failed to record upload history")
		}
	}

	status := models.ActivityStatusFailed
	notes := fmt.Sprintf("File: %s. %s", req.FileName, importErr)
	if outcome != nil {
		status = outcome.Status()
		notes = outcome.Notes()
		if upload.ID != uuid.Nil {
			outcome.UploadID = upload.ID.String()
		}
	}
	if s.auditor != nil {
		s.auditor.Record(bgCtx, req.Actor, req.Flavor.Action, status, notes)
	}

	took := s.now().Sub(start)
	if outcome != nil {
		metrics.RecordImport(req.Flavor.Name, string(status), outcome.Created, outcome.Updated, outcome.Skipped, outcome.ErrorCount, took)
		s.publish(bgCtx, req, outcome, status)
		log.WithFields(logrus.Fields{
			"created": outcome.Created,
			"updated": outcome.Updated,
			"skipped": outcome.Skipped,
			"errors":  outcome.ErrorCount,
			"took":    took.String(),
		}).Info("Import finished")
		return outcome, nil
	}

	metrics.RecordImport(req.Flavor.Name, string(status), 0, 0, 0, 0, took)
	var structErr *StructuralError
	if errors.As(importErr, &structErr) {
		log.WithError(importErr).Warn("Import rejected")
	} else {
		log.WithError(importErr).Error("Import failed")
	}
	return nil, importErr
}

func (s *Service) run(ctx context.Context, req Request, tmp *storage.TempFile) (*Outcome, error) {
	f, err := tmp.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to reopen upload: %w", err)
	}
	defer f.Close()

	sheet, err := ParseSheet(f, req.FileName)
	if err != nil {
		return nil, err
	}
	return s.reconciler.Reconcile(ctx, req.Flavor, sheet, req.FileName)
}

// archiveFile stores the upload and returns its key, or "" when archiving fails.
func (s *Service) archiveFile(ctx context.Context, req Request, tmp *storage.TempFile, log *logrus.Entry) string {
	if s.archive == nil {
		return ""
	}
	f, err := tmp.Open()
	if err != nil {
		log.WithError(err).Warn("Failed to reopen upload for archiving")
		return ""
	}
	defer f.Close()

	key, err := s.archive.Save(ctx, storage.ArchiveKey(req.Flavor.Name, req.FileName, s.now()), f)
	if err != nil {
		log.WithError(err).Warn("Failed to archive upload")
		return ""
	}
	return key
}

func (s *Service) publish(ctx context.Context, req Request, outcome *Outcome, status models.ActivityStatus) {
	if s.publisher == nil {
		return
	}
	event := events.ImportCompleted{
		Flavor:   outcome.Flavor,
		FileName: outcome.FileName,
		UploadID: outcome.UploadID,
		Status:   string(status),
		Created:  outcome.Created,
		Updated:  outcome.Updated,
		Skipped:  outcome.Skipped,
		Errors:   outcome.ErrorCount,
	}
	if req.Actor != nil {
		event.ActorID = req.Actor.String()
	}
	if err := s.publisher.PublishImportCompleted(ctx, event); err != nil {
		s.logger.WithError(err).Warn("Failed to publish import event")
	}
	if err := s.publisher.PublishLowStock(ctx, "import:"+req.Flavor.Name, outcome.LowStock); err != nil {
		s.logger.WithError(err).Warn("Failed to publish low stock event")
	}
}
